package models

import (
	"math"
	"time"

	"github.com/jengzang/heatmap-backend-go/internal/spatial"
)

// MaxVisitDurationSeconds is the upper bound of dwell time attributed to one record
const MaxVisitDurationSeconds = 1800.0

// Fix is a single raw position report from a location sensor
type Fix struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Timestamp time.Time `json:"timestamp"`
}

// Valid reports whether the fix carries a usable WGS84 coordinate
func (f Fix) Valid() bool {
	return spatial.ValidCoordinate(f.Latitude, f.Longitude)
}

// VisitRecord is an accepted fix plus the dwell duration attributed to it.
// Records are immutable once created.
type VisitRecord struct {
	ID        string    `json:"id" db:"id"`
	Latitude  float64   `json:"latitude" db:"latitude"`
	Longitude float64   `json:"longitude" db:"longitude"`
	Timestamp time.Time `json:"timestamp" db:"timestamp_ms"`
	Duration  float64   `json:"duration" db:"duration_s"` // Seconds, 0..1800
}

// GridCell returns the aggregation key of the record (~111m cells)
func (r VisitRecord) GridCell() string {
	return spatial.GridCellKey(r.Latitude, r.Longitude)
}

// Valid checks the record invariants
func (r VisitRecord) Valid() bool {
	if !spatial.ValidCoordinate(r.Latitude, r.Longitude) {
		return false
	}
	if math.IsNaN(r.Duration) || r.Duration < 0 || r.Duration > MaxVisitDurationSeconds {
		return false
	}
	return true
}

// VisitsResponse represents a paginated response of visit records
type VisitsResponse struct {
	Data       []VisitRecord `json:"data"`
	Total      int64         `json:"total"`
	Page       int           `json:"page"`
	PageSize   int           `json:"pageSize"`
	TotalPages int           `json:"totalPages"`
}
