package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/apex/log"

	"github.com/jengzang/heatmap-backend-go/internal/api"
	"github.com/jengzang/heatmap-backend-go/internal/config"
	"github.com/jengzang/heatmap-backend-go/internal/database"
	"github.com/jengzang/heatmap-backend-go/internal/ingest"
	"github.com/jengzang/heatmap-backend-go/internal/middleware"
	"github.com/jengzang/heatmap-backend-go/internal/models"
	"github.com/jengzang/heatmap-backend-go/internal/repository"
	"github.com/jengzang/heatmap-backend-go/internal/sampling"
	"github.com/jengzang/heatmap-backend-go/internal/service"
)

func main() {
	if err := run(); err != nil {
		log.WithError(err).Fatal("Server exited")
	}
}

// run returns after shutdown so deferred cleanup always happens
func run() error {
	cfg := config.Load()
	cfg.ApplyLogLevel()

	if err := database.Init(database.Config{Path: cfg.DBPath}); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	visitRepo := repository.NewVisitRepository(database.GetDB())
	if n, err := visitRepo.Count(ctx); err == nil {
		log.Infof("[Server] %d visit records in store", n)
	}

	policy := sampling.NewPolicy(cfg.PolicyConfig(), visitRepo, nil)
	policy.Subscribe(func(r models.VisitRecord) {
		log.WithFields(log.Fields{
			"id":       r.ID,
			"cell":     r.GridCell(),
			"duration": r.Duration,
		}).Debug("[SamplingPolicy] Visit recorded")
	})
	tracker := sampling.NewTracker(policy, cfg.TrackingEnabled)

	limiter := middleware.NewRateLimiter(cfg.RateLimit, cfg.RateWindow)
	go limiter.Run(ctx.Done())

	router := api.SetupRouter(cfg, api.Services{
		Heatmap:  service.NewHeatmapService(visitRepo),
		Visits:   service.NewVisitService(visitRepo),
		Tracking: service.NewTrackingService(tracker),
		Limiter:  limiter,
	})

	if cfg.KafkaEnabled() {
		reader := ingest.NewReader(ingest.Config{
			Brokers: cfg.KafkaBrokers,
			Topic:   cfg.KafkaTopic,
			GroupID: cfg.KafkaGroupID,
		})
		consumer := ingest.NewConsumer(reader, tracker, cfg.KafkaTopic)
		go func() {
			if err := consumer.Run(ctx); err != nil {
				log.WithError(err).Error("[Kafka] Consumer stopped")
			}
		}()
	}

	srv := &http.Server{
		Addr:              cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return serve(ctx, srv)
}

// serve runs srv until ctx is cancelled, then shuts it down gracefully.
// Listen errors are returned instead of exiting the process.
func serve(ctx context.Context, srv *http.Server) error {
	serveErr := make(chan error, 1)
	go func() {
		log.Infof("Server starting on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("failed to start server: %w", err)
	case <-ctx.Done():
	}
	log.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}
