package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/heatmap-backend-go/internal/models"
	"github.com/jengzang/heatmap-backend-go/internal/service"
	"github.com/jengzang/heatmap-backend-go/pkg/response"
)

// HeatmapHandler handles HTTP requests for heatmap data
type HeatmapHandler struct {
	service *service.HeatmapService
}

// NewHeatmapHandler creates a new heatmap handler
func NewHeatmapHandler(service *service.HeatmapService) *HeatmapHandler {
	return &HeatmapHandler{service: service}
}

// GetHeatmap handles GET /api/v1/heatmap
func (h *HeatmapHandler) GetHeatmap(c *gin.Context) {
	filter, ok := bindHeatmapFilter(c)
	if !ok {
		return
	}

	result, err := h.service.GetHeatmap(c.Request.Context(), filter)
	if err != nil {
		response.InternalError(c, "Failed to compute heatmap", err)
		return
	}

	response.Success(c, result)
}

// GetHeatmapGeoJSON handles GET /api/v1/heatmap/geojson.
// The FeatureCollection is written bare so map clients can load it directly.
func (h *HeatmapHandler) GetHeatmapGeoJSON(c *gin.Context) {
	filter, ok := bindHeatmapFilter(c)
	if !ok {
		return
	}

	fc, err := h.service.GetHeatmapGeoJSON(c.Request.Context(), filter)
	if err != nil {
		response.InternalError(c, "Failed to compute heatmap", err)
		return
	}

	data, err := fc.MarshalJSON()
	if err != nil {
		response.InternalError(c, "Failed to encode GeoJSON", err)
		return
	}

	c.Data(http.StatusOK, "application/geo+json", data)
}

func bindHeatmapFilter(c *gin.Context) (models.HeatmapFilter, bool) {
	var filter models.HeatmapFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid query parameters", err)
		return filter, false
	}
	if filter.MinLat != nil && filter.MaxLat != nil && *filter.MinLat > *filter.MaxLat {
		response.BadRequest(c, "minLat must not exceed maxLat")
		return filter, false
	}
	if filter.MinLon != nil && filter.MaxLon != nil && *filter.MinLon > *filter.MaxLon {
		response.BadRequest(c, "minLon must not exceed maxLon")
		return filter, false
	}
	return filter, true
}
