package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector metrics
var (
	RecipientLookupFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recipient_lookup_failures_total",
			Help: "Total number of recipient group lookups that failed and were treated as empty",
		},
		[]string{"group"}, // to, cc, bcc
	)

	RecipientsCollected = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "recipients_collected",
			Help:    "Number of unique recipients collected per run",
			Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100},
		},
	)
)

// Validator metrics
var (
	ValidationRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "validation_requests_total",
			Help: "Total number of remote validation calls",
		},
		[]string{"outcome"}, // valid, invalid, error
	)

	ValidationRequestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "validation_request_duration_seconds",
			Help:    "Duration of remote validation calls",
			Buckets: prometheus.DefBuckets,
		},
	)

	CorrectionsSuggestedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "corrections_suggested_total",
			Help: "Total number of address corrections suggested by the validation service",
		},
	)
)

// Rate limiter metrics
var (
	ThrottleFallbackTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "throttle_fallback_total",
			Help: "Total number of waits served by the in-process throttle because Redis failed",
		},
	)

	ThrottleWaitDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "throttle_wait_duration_seconds",
			Help:    "Time spent waiting for the validation rate limit",
			Buckets: []float64{0, 0.1, 0.25, 0.5, 0.75, 1, 2, 5},
		},
	)
)

// Pipeline metrics
var (
	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_runs_total",
			Help: "Total number of pipeline runs",
		},
		[]string{"mode", "status"}, // preview|validate, completed|rejected|cancelled
	)

	RunInProgress = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pipeline_run_in_progress",
			Help: "1 while a pipeline run is in flight",
		},
	)

	RunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pipeline_run_duration_seconds",
			Help:    "Duration of pipeline runs",
			Buckets: []float64{0.01, 0.1, 0.5, 1, 5, 15, 30, 60, 120},
		},
		[]string{"mode"},
	)
)

// API metrics
var (
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "path", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "Duration of API requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	APIAuthFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "api_auth_failures_total",
			Help: "Total number of API authentication failures",
		},
	)
)
