// Package metrics defines the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal counts HTTP requests by route pattern and status.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "silay",
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	// RequestDuration observes HTTP latency by route pattern.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "silay",
			Subsystem: "api",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"method", "route"},
	)

	// ProviderAttempts counts transport attempts by outcome.
	ProviderAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "silay",
			Subsystem: "provider",
			Name:      "attempts_total",
			Help:      "AI provider transport attempts",
		},
		[]string{"transport", "outcome"},
	)

	// ProviderFallbacks counts SDK to REST fallbacks by reason.
	ProviderFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "silay",
			Subsystem: "provider",
			Name:      "fallbacks_total",
			Help:      "SDK to REST transport fallbacks",
		},
		[]string{"reason"},
	)

	// ProviderDuration observes a whole invocation, fallback included.
	ProviderDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "silay",
			Subsystem: "provider",
			Name:      "invoke_duration_seconds",
			Help:      "AI provider invocation duration in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60},
		},
	)

	// StorageFailures counts swallowed best-effort storage errors.
	StorageFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "silay",
			Subsystem: "history",
			Name:      "best_effort_failures_total",
			Help:      "Storage failures swallowed by the chat pipeline",
		},
		[]string{"operation"},
	)

	// ResetTokensPurged counts expired reset tokens removed by the cleanup worker.
	ResetTokensPurged = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "silay",
			Subsystem: "account",
			Name:      "reset_tokens_purged_total",
			Help:      "Expired password reset tokens deleted",
		},
	)
)
