package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/heatmap-backend-go/internal/config"
	"github.com/jengzang/heatmap-backend-go/internal/handler"
	"github.com/jengzang/heatmap-backend-go/internal/metrics"
	"github.com/jengzang/heatmap-backend-go/internal/middleware"
	"github.com/jengzang/heatmap-backend-go/internal/service"
)

// Services bundles what the HTTP layer depends on
type Services struct {
	Heatmap  *service.HeatmapService
	Visits   *service.VisitService
	Tracking *service.TrackingService
	Limiter  *middleware.RateLimiter
}

// SetupRouter wires middleware, handlers and routes
func SetupRouter(cfg *config.Config, svc Services) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.Logger())

	// CORS
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":   "ok",
			"message":  "Heatmap Backend API is running",
			"tracking": svc.Tracking.Status().Tracking,
		})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	fixHandler := handler.NewFixHandler(svc.Tracking)
	heatmapHandler := handler.NewHeatmapHandler(svc.Heatmap)
	visitHandler := handler.NewVisitHandler(svc.Visits)
	trackingHandler := handler.NewTrackingHandler(svc.Tracking)

	// Write endpoints go through auth and rate limiting
	writes := []gin.HandlerFunc{}
	if cfg.AuthEnabled {
		writes = append(writes, middleware.Auth(cfg.JWTSecret))
	}
	if svc.Limiter != nil {
		writes = append(writes, middleware.RateLimit(svc.Limiter))
	}
	guarded := func(h gin.HandlerFunc) []gin.HandlerFunc {
		return append(append([]gin.HandlerFunc{}, writes...), h)
	}

	api := r.Group("/api/v1")
	{
		api.POST("/fixes", guarded(fixHandler.ReportFixes)...)

		heatmap := api.Group("/heatmap")
		{
			heatmap.GET("", heatmapHandler.GetHeatmap)
			heatmap.GET("/geojson", heatmapHandler.GetHeatmapGeoJSON)
		}

		api.GET("/visits", visitHandler.GetVisits)

		tracking := api.Group("/tracking")
		{
			tracking.GET("", trackingHandler.GetStatus)
			tracking.POST("/start", guarded(trackingHandler.Start)...)
			tracking.POST("/stop", guarded(trackingHandler.Stop)...)
		}
	}

	return r
}
