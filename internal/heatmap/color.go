package heatmap

import (
	"math"

	"github.com/jengzang/heatmap-backend-go/internal/models"
)

const bandWidth = 0.2

// band interpolates linearly from start to start+delta as the score moves
// from lower to lower+bandWidth
type band struct {
	lower float64
	start models.Color
	delta models.Color
}

// Purple -> Blue -> Cyan -> Green/Yellow -> Orange -> Red
var gradient = [...]band{
	{lower: 0.0, start: models.Color{R: 0.5, G: 0.0, B: 0.8}, delta: models.Color{R: -0.5, G: 0.2, B: 0.2}},
	{lower: 0.2, start: models.Color{R: 0.0, G: 0.2, B: 1.0}, delta: models.Color{R: 0.2, G: 0.5, B: 0.0}},
	{lower: 0.4, start: models.Color{R: 0.2, G: 0.7, B: 1.0}, delta: models.Color{R: 0.5, G: 0.3, B: -0.5}},
	{lower: 0.6, start: models.Color{R: 0.7, G: 1.0, B: 0.5}, delta: models.Color{R: 0.3, G: -0.3, B: -0.5}},
	{lower: 0.8, start: models.Color{R: 1.0, G: 0.7, B: 0.0}, delta: models.Color{R: 0.0, G: -0.7, B: 0.0}},
}

func (b band) at(t float64) models.Color {
	return models.Color{
		R: b.start.R + b.delta.R*t,
		G: b.start.G + b.delta.G*t,
		B: b.start.B + b.delta.B*t,
	}
}

// HeatColor maps a heat score in [0,1] onto the gradient.
// Scores outside the range are clamped, NaN is treated as 0.
func HeatColor(score float64) models.Color {
	score = clamp01(score)

	idx := len(gradient) - 1
	for i := 1; i < len(gradient); i++ {
		if score < gradient[i].lower {
			idx = i - 1
			break
		}
	}

	b := gradient[idx]
	return b.at((score - b.lower) / bandWidth)
}

// Radius maps a heat score to a circle radius in meters.
// It does not depend on zoom: hotter cells always draw larger.
func Radius(score float64) float64 {
	return BaseRadius + RadiusRange*clamp01(score)
}

const (
	BaseRadius  = 250.0 // Meters at score 0
	RadiusRange = 100.0 // Extra meters at score 1
)

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
