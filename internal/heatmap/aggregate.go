// Package heatmap turns visit records into density weighted heat points.
//
// The pipeline is recomputed from scratch on every call: records are binned
// into grid cells (Aggregate), cells are scored against the snapshot maxima
// (Normalize) and every score is mapped to a radius and a color.
package heatmap

import (
	"github.com/jengzang/heatmap-backend-go/internal/models"
)

// Aggregate bins records by grid cell, summing counts and durations.
// The representative coordinate of a cell is the first record seen for it,
// so the result depends on input order only through that coordinate.
func Aggregate(records []models.VisitRecord) map[string]*models.GridCellAggregate {
	cells := make(map[string]*models.GridCellAggregate)

	for _, r := range records {
		key := r.GridCell()
		if cell, ok := cells[key]; ok {
			cell.Count++
			cell.TotalDuration += r.Duration
			continue
		}
		cells[key] = &models.GridCellAggregate{
			CellKey:       key,
			Count:         1,
			TotalDuration: r.Duration,
			Lat:           r.Latitude,
			Lng:           r.Longitude,
		}
	}

	return cells
}
