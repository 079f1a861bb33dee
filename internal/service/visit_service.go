package service

import (
	"context"
	"fmt"
	"math"

	"github.com/jengzang/heatmap-backend-go/internal/models"
	"github.com/jengzang/heatmap-backend-go/internal/repository"
)

// VisitService handles business logic for visit records
type VisitService struct {
	visitRepo *repository.VisitRepository
}

// NewVisitService creates a new visit service
func NewVisitService(visitRepo *repository.VisitRepository) *VisitService {
	return &VisitService{
		visitRepo: visitRepo,
	}
}

// GetVisits retrieves visit records with filtering and pagination
func (s *VisitService) GetVisits(ctx context.Context, filter models.VisitFilter) (*models.VisitsResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 100
	}
	if filter.PageSize > 1000 {
		filter.PageSize = 1000
	}

	visits, total, err := s.visitRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to get visits: %w", err)
	}

	totalPages := int(math.Ceil(float64(total) / float64(filter.PageSize)))

	return &models.VisitsResponse{
		Data:       visits,
		Total:      total,
		Page:       filter.Page,
		PageSize:   filter.PageSize,
		TotalPages: totalPages,
	}, nil
}
