package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/heatmap-backend-go/internal/models"
	"github.com/jengzang/heatmap-backend-go/internal/service"
	"github.com/jengzang/heatmap-backend-go/pkg/response"
)

// VisitHandler handles HTTP requests for visit records
type VisitHandler struct {
	service *service.VisitService
}

// NewVisitHandler creates a new visit handler
func NewVisitHandler(service *service.VisitService) *VisitHandler {
	return &VisitHandler{service: service}
}

// GetVisits handles GET /api/v1/visits
func (h *VisitHandler) GetVisits(c *gin.Context) {
	var filter models.VisitFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid query parameters", err)
		return
	}

	result, err := h.service.GetVisits(c.Request.Context(), filter)
	if err != nil {
		response.InternalError(c, "Failed to get visits", err)
		return
	}

	response.Success(c, result)
}
