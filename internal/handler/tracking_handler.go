package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/jengzang/heatmap-backend-go/internal/service"
	"github.com/jengzang/heatmap-backend-go/pkg/response"
)

// TrackingHandler exposes the tracking switch and current location
type TrackingHandler struct {
	service *service.TrackingService
}

// NewTrackingHandler creates a new tracking handler
func NewTrackingHandler(service *service.TrackingService) *TrackingHandler {
	return &TrackingHandler{service: service}
}

// GetStatus handles GET /api/v1/tracking
func (h *TrackingHandler) GetStatus(c *gin.Context) {
	response.Success(c, h.service.Status())
}

// Start handles POST /api/v1/tracking/start
func (h *TrackingHandler) Start(c *gin.Context) {
	response.Success(c, h.service.Start())
}

// Stop handles POST /api/v1/tracking/stop
func (h *TrackingHandler) Stop(c *gin.Context) {
	response.Success(c, h.service.Stop())
}
