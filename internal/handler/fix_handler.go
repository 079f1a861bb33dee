package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/heatmap-backend-go/internal/models"
	"github.com/jengzang/heatmap-backend-go/internal/service"
	"github.com/jengzang/heatmap-backend-go/pkg/response"
)

// FixHandler handles HTTP requests reporting position fixes
type FixHandler struct {
	service *service.TrackingService
}

// NewFixHandler creates a new fix handler
func NewFixHandler(service *service.TrackingService) *FixHandler {
	return &FixHandler{service: service}
}

type fixRequest struct {
	Latitude  *float64   `json:"latitude"`
	Longitude *float64   `json:"longitude"`
	Timestamp *time.Time `json:"timestamp"`
}

// reportRequest is either a single fix or a batch under "fixes"
type reportRequest struct {
	fixRequest
	Fixes []fixRequest `json:"fixes"`
}

func (r fixRequest) toFix() (models.Fix, bool) {
	if r.Latitude == nil || r.Longitude == nil {
		return models.Fix{}, false
	}
	fix := models.Fix{Latitude: *r.Latitude, Longitude: *r.Longitude}
	if r.Timestamp != nil {
		fix.Timestamp = *r.Timestamp
	}
	return fix, true
}

// ReportFixes handles POST /api/v1/fixes
func (h *FixHandler) ReportFixes(c *gin.Context) {
	var req reportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	batch := req.Fixes
	if batch == nil {
		batch = []fixRequest{req.fixRequest}
	}

	fixes := make([]models.Fix, 0, len(batch))
	for _, r := range batch {
		fix, ok := r.toFix()
		if !ok {
			response.BadRequest(c, "latitude and longitude are required")
			return
		}
		fixes = append(fixes, fix)
	}

	decisions := h.service.ReportFixes(c.Request.Context(), fixes)

	accepted := 0
	for _, d := range decisions {
		if d.Accepted {
			accepted++
		}
	}

	response.Success(c, gin.H{
		"decisions": decisions,
		"accepted":  accepted,
		"count":     len(decisions),
	})
}

