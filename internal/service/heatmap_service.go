package service

import (
	"context"
	"fmt"
	"time"

	"github.com/paulmach/orb"
	geojson "github.com/paulmach/go.geojson"

	"github.com/jengzang/heatmap-backend-go/internal/heatmap"
	"github.com/jengzang/heatmap-backend-go/internal/metrics"
	"github.com/jengzang/heatmap-backend-go/internal/models"
)

// VisitSnapshotter returns a point-in-time copy of all visit records
type VisitSnapshotter interface {
	All(ctx context.Context) ([]models.VisitRecord, error)
}

// HeatmapService rebuilds the heatmap from the visit store on every call
type HeatmapService struct {
	repo VisitSnapshotter
}

// NewHeatmapService creates a new heatmap service
func NewHeatmapService(repo VisitSnapshotter) *HeatmapService {
	return &HeatmapService{repo: repo}
}

// GetHeatmap computes the heatmap over the whole store and returns the
// points falling inside the filter's bounding box
func (s *HeatmapService) GetHeatmap(ctx context.Context, filter models.HeatmapFilter) (*models.HeatmapResponse, error) {
	start := time.Now()

	records, err := s.repo.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load visit records: %w", err)
	}

	cells := heatmap.Aggregate(records)
	points := heatmap.Normalize(cells)
	metrics.ObserveCompute(time.Since(start), len(cells))

	resp := &models.HeatmapResponse{
		Points:     points,
		VisitCount: len(records),
	}
	if len(cells) > 0 {
		resp.MaxCount, resp.MaxDuration = heatmap.Maxima(cells)
	}

	if filter.HasBounds() {
		resp.Points = filterPoints(points, boundFromFilter(filter))
	}
	resp.Count = len(resp.Points)

	return resp, nil
}

// GetHeatmapGeoJSON returns the heatmap as a FeatureCollection of points
func (s *HeatmapService) GetHeatmapGeoJSON(ctx context.Context, filter models.HeatmapFilter) (*geojson.FeatureCollection, error) {
	resp, err := s.GetHeatmap(ctx, filter)
	if err != nil {
		return nil, err
	}
	return ToFeatureCollection(resp.Points), nil
}

// ToFeatureCollection converts heat points into GeoJSON point features
func ToFeatureCollection(points []models.HeatmapPoint) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, p := range points {
		f := geojson.NewPointFeature([]float64{p.Lng, p.Lat})
		f.ID = p.CellKey
		f.SetProperty("intensity", p.Intensity)
		f.SetProperty("radius", p.Radius)
		f.SetProperty("color", p.ColorHex)
		f.SetProperty("count", p.Count)
		f.SetProperty("total_duration", p.TotalDuration)
		fc.AddFeature(f)
	}
	return fc
}

// boundFromFilter builds the bbox; unset edges extend to the world bounds
func boundFromFilter(filter models.HeatmapFilter) orb.Bound {
	bound := orb.Bound{Min: orb.Point{-180, -90}, Max: orb.Point{180, 90}}
	if filter.MinLon != nil {
		bound.Min[0] = *filter.MinLon
	}
	if filter.MinLat != nil {
		bound.Min[1] = *filter.MinLat
	}
	if filter.MaxLon != nil {
		bound.Max[0] = *filter.MaxLon
	}
	if filter.MaxLat != nil {
		bound.Max[1] = *filter.MaxLat
	}
	return bound
}

func filterPoints(points []models.HeatmapPoint, bound orb.Bound) []models.HeatmapPoint {
	filtered := make([]models.HeatmapPoint, 0, len(points))
	for _, p := range points {
		if bound.Contains(orb.Point{p.Lng, p.Lat}) {
			filtered = append(filtered, p)
		}
	}
	return filtered
}
