package models

// VisitFilter represents filter parameters for querying visit records
type VisitFilter struct {
	StartTime int64 `form:"startTime"` // Unix timestamp
	EndTime   int64 `form:"endTime"`   // Unix timestamp
	Page      int   `form:"page"`
	PageSize  int   `form:"pageSize"`
}

// HeatmapFilter restricts the returned heatmap points to a bounding box.
// Normalization always runs over the whole store. Nil edges are unset.
type HeatmapFilter struct {
	MinLat *float64 `form:"minLat"`
	MaxLat *float64 `form:"maxLat"`
	MinLon *float64 `form:"minLon"`
	MaxLon *float64 `form:"maxLon"`
}

// HasBounds reports whether any bounding box parameter was supplied
func (f HeatmapFilter) HasBounds() bool {
	return f.MinLat != nil || f.MaxLat != nil || f.MinLon != nil || f.MaxLon != nil
}
