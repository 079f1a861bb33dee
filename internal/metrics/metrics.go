// Package metrics exposes Prometheus counters for sampling and heatmap activity.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "heatmap"

var (
	fixesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "fixes_total",
		Help:      "Position fixes processed by the sampling policy, by outcome and reason.",
	}, []string{"outcome", "reason"})

	storeFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "store_failures_total",
		Help:      "Accepted fixes dropped because the visit store rejected the write.",
	})

	computeSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "compute_seconds",
		Help:      "Time spent rebuilding the heatmap from the visit store.",
		Buckets:   prometheus.DefBuckets,
	})

	cellsGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "cells",
		Help:      "Number of grid cells in the last computed heatmap.",
	})
)

func init() {
	prometheus.MustRegister(fixesTotal, storeFailuresTotal, computeSeconds, cellsGauge)
}

// FixAccepted counts a fix that became a visit record
func FixAccepted(reason string) {
	fixesTotal.WithLabelValues("accepted", reason).Inc()
}

// FixRejected counts a fix that produced no record
func FixRejected(reason string) {
	fixesTotal.WithLabelValues("rejected", reason).Inc()
}

// StoreFailed counts a failed visit record insert
func StoreFailed() {
	fixesTotal.WithLabelValues("rejected", "store_failed").Inc()
	storeFailuresTotal.Inc()
}

// ObserveCompute records the duration and size of one heatmap pass
func ObserveCompute(elapsed time.Duration, cells int) {
	computeSeconds.Observe(elapsed.Seconds())
	cellsGauge.Set(float64(cells))
}

// Handler returns the Prometheus scrape handler
func Handler() http.Handler {
	return promhttp.Handler()
}
