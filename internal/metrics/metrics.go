// Package metrics exposes Prometheus instrumentation for notification runs.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifier_runs_total",
			Help: "Total number of notification batch runs by final state",
		},
		[]string{"state"}, // "done", "failed", "aborted"
	)

	RunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "notifier_run_duration_seconds",
			Help:    "Duration of notification batch runs in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
	)

	PairOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifier_pair_outcomes_total",
			Help: "Total number of evaluated (user, event) pairs by outcome",
		},
		[]string{"outcome"}, // "ineligible", "malformed", "created", "already_exists", "failed"
	)

	SinkDeliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifier_sink_deliveries_total",
			Help: "Total number of sink delivery attempts by result",
		},
		[]string{"result"}, // "ok", "error"
	)

	SinkBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "notifier_sink_breaker_state",
			Help: "Sink circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	LastRunCreated = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "notifier_last_run_notifications_created",
			Help: "Notifications created by the most recent completed run",
		},
	)
)

// RecordRun records the final state and duration of a run.
func RecordRun(state string, seconds float64, created int) {
	RunsTotal.WithLabelValues(state).Inc()
	RunDuration.Observe(seconds)
	if state == "done" {
		LastRunCreated.Set(float64(created))
	}
}

// RecordPair records the outcome of one (user, event) pair.
func RecordPair(outcome string) {
	PairOutcomes.WithLabelValues(outcome).Inc()
}
