package heatmap

import (
	"sort"

	"github.com/jengzang/heatmap-backend-go/internal/models"
)

// Weights of the two normalized components of the heat score
const (
	CountWeight    = 0.5
	DurationWeight = 0.5
)

// Maxima returns the largest count and total duration across cells.
// Zero maxima are promoted to 1 so that normalization never divides by zero.
func Maxima(cells map[string]*models.GridCellAggregate) (maxCount int, maxTime float64) {
	for _, c := range cells {
		if c.Count > maxCount {
			maxCount = c.Count
		}
		if c.TotalDuration > maxTime {
			maxTime = c.TotalDuration
		}
	}

	if maxCount == 0 {
		maxCount = 1
	}
	if maxTime == 0 {
		maxTime = 1
	}
	return maxCount, maxTime
}

// Score blends the normalized visit frequency and dwell time of a cell
func Score(cell *models.GridCellAggregate, maxCount int, maxTime float64) float64 {
	normalizedCount := float64(cell.Count) / float64(maxCount)
	normalizedTime := cell.TotalDuration / maxTime
	return clamp01(normalizedCount*CountWeight + normalizedTime*DurationWeight)
}

// Normalize converts cell aggregates into heat points.
// Points are ordered by intensity (hottest first) then by cell key.
func Normalize(cells map[string]*models.GridCellAggregate) []models.HeatmapPoint {
	points := make([]models.HeatmapPoint, 0, len(cells))
	if len(cells) == 0 {
		return points
	}

	maxCount, maxTime := Maxima(cells)

	for _, cell := range cells {
		score := Score(cell, maxCount, maxTime)
		color := HeatColor(score)
		points = append(points, models.HeatmapPoint{
			CellKey:       cell.CellKey,
			Lat:           cell.Lat,
			Lng:           cell.Lng,
			Intensity:     score,
			Radius:        Radius(score),
			Color:         color,
			ColorHex:      color.Hex(),
			Count:         cell.Count,
			TotalDuration: cell.TotalDuration,
		})
	}

	sort.Slice(points, func(i, j int) bool {
		if points[i].Intensity != points[j].Intensity {
			return points[i].Intensity > points[j].Intensity
		}
		return points[i].CellKey < points[j].CellKey
	})

	return points
}

// Compute runs the whole pipeline over a snapshot of visit records.
// An empty snapshot yields an empty slice, never an error.
func Compute(records []models.VisitRecord) []models.HeatmapPoint {
	return Normalize(Aggregate(records))
}
