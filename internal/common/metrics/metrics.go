// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	GenerationCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "preview_generation_calls_total",
			Help: "Total number of text-generation calls by step",
		},
		[]string{"step"},
	)

	GenerationFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "preview_generation_failures_total",
			Help: "Total number of failed text-generation calls by step",
		},
		[]string{"step", "error_code"},
	)

	GenerationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "preview_generation_duration_seconds",
			Help:    "Duration of text-generation calls in seconds",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		},
		[]string{"step"},
	)

	DegradedPreviews = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "preview_degraded_total",
			Help: "Driver previews stored in degraded form",
		},
		[]string{"reason"},
	)

	GenerationsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "preview_generations_active",
			Help: "Number of generation runs in progress",
		},
	)

	UpstreamFetchFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upstream_fetch_failures_total",
			Help: "Failed race-data fetches by source",
		},
		[]string{"source"},
	)

	UpstreamFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "upstream_fetch_duration_seconds",
			Help: "Duration of race-data fetches in seconds",
		},
		[]string{"source"},
	)
)
