package models

import "fmt"

// Color is an RGB color with channels in [0,1]
type Color struct {
	R float64 `json:"r"`
	G float64 `json:"g"`
	B float64 `json:"b"`
}

// Hex formats the color as #rrggbb
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", channelByte(c.R), channelByte(c.G), channelByte(c.B))
}

func channelByte(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v*255 + 0.5)
}

// HeatmapPoint is the render primitive produced for one grid cell
type HeatmapPoint struct {
	CellKey       string  `json:"cell_key"`
	Lat           float64 `json:"lat"`
	Lng           float64 `json:"lng"`
	Intensity     float64 `json:"intensity"` // Normalized 0-1
	Radius        float64 `json:"radius"`    // Meters
	Color         Color   `json:"color"`
	ColorHex      string  `json:"color_hex"`
	Count         int     `json:"count"`
	TotalDuration float64 `json:"total_duration"` // Seconds
}

// HeatmapResponse represents the heatmap API response
type HeatmapResponse struct {
	Points      []HeatmapPoint `json:"points"`
	Count       int            `json:"count"`
	VisitCount  int            `json:"visit_count"`
	MaxCount    int            `json:"max_count"`
	MaxDuration float64        `json:"max_duration"`
}
