package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Dispatch outcomes
const (
	OutcomeGenerated      = "generated"
	OutcomeNoValidModel   = "no_valid_model"
	OutcomeMissingBackend = "missing_backend"
	OutcomeTransportError = "transport_error"
)

var (
	// DispatchTotal counts dispatch attempts by selected model and outcome
	DispatchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fakedetect",
			Subsystem: "dispatch",
			Name:      "requests_total",
			Help:      "Total number of image generation dispatches",
		},
		[]string{"model", "outcome"},
	)

	// BackendRequestDuration tracks backend call latency
	BackendRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "fakedetect",
			Subsystem: "backend",
			Name:      "request_duration_seconds",
			Help:      "Backend request duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"operation", "status"},
	)

	// ScheduledRunsTotal counts scheduled generation runs
	ScheduledRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fakedetect",
			Subsystem: "scheduler",
			Name:      "runs_total",
			Help:      "Total scheduled generation runs",
		},
		[]string{"status"},
	)
)
