// Package metrics exposes Prometheus collectors for the aggregation subsystem.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Refresh Metrics
	RefreshDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bloombot_refresh_duration_seconds",
			Help:    "Duration of materialized view refreshes in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300, 600},
		},
		[]string{"view"},
	)

	RefreshFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bloombot_refresh_failures_total",
			Help: "Total number of failed materialized view refreshes",
		},
		[]string{"view"},
	)

	RefreshLastSuccess = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "bloombot_refresh_last_success_timestamp_seconds",
			Help: "Unix time of the last successful refresh of each view",
		},
		[]string{"view"},
	)

	RefreshCycles = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bloombot_refresh_cycles_total",
			Help: "Total number of completed refresh cycles",
		},
	)

	// Streak Metrics
	StreakComputations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bloombot_streak_computations_total",
			Help: "Total number of streak computations by path",
		},
		[]string{"path"}, // "empty", "incremental", "bootstrap"
	)

	StreakErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bloombot_streak_errors_total",
			Help: "Total number of streak computations that failed",
		},
	)
)
