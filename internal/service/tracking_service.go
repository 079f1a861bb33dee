package service

import (
	"context"

	"github.com/jengzang/heatmap-backend-go/internal/models"
	"github.com/jengzang/heatmap-backend-go/internal/sampling"
)

// TrackingService feeds reported fixes to the tracker
type TrackingService struct {
	tracker *sampling.Tracker
}

// NewTrackingService creates a new tracking service
func NewTrackingService(tracker *sampling.Tracker) *TrackingService {
	return &TrackingService{tracker: tracker}
}

// ReportFixes processes fixes one by one in the given order
func (s *TrackingService) ReportFixes(ctx context.Context, fixes []models.Fix) []sampling.Decision {
	decisions := make([]sampling.Decision, 0, len(fixes))
	for _, fix := range fixes {
		decisions = append(decisions, s.tracker.HandleFix(ctx, fix))
	}
	return decisions
}

// Start enables tracking
func (s *TrackingService) Start() sampling.TrackingStatus {
	s.tracker.Start()
	return s.tracker.Status()
}

// Stop disables tracking
func (s *TrackingService) Stop() sampling.TrackingStatus {
	s.tracker.Stop()
	return s.tracker.Status()
}

// Status returns the current tracking state
func (s *TrackingService) Status() sampling.TrackingStatus {
	return s.tracker.Status()
}
