package models

// GridCellAggregate holds per-cell statistics for one heatmap pass.
// It is rebuilt from the full visit store on every recomputation.
type GridCellAggregate struct {
	CellKey       string  `json:"cell_key"`
	Count         int     `json:"count"`
	TotalDuration float64 `json:"total_duration"` // Seconds

	// Coordinate of the first record seen for this cell, not a centroid
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}
