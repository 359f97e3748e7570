// Package metrics implements Prometheus metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// BusyConditions tracks the current number of conditions in the busy
	// state (condition.Registry.BusyCount).
	BusyConditions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "scheduled_busy_conditions",
			Help: "Current number of conditions with an in-flight tick",
		},
	)

	// TicksTotal counts completed scheduler ticks.
	TicksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "scheduled_ticks_total",
			Help: "Total number of tick loop iterations run",
		},
	)

	// ConditionFiredTotal counts condition firings by name and trigger
	// source; the only source recorded is "tick".
	ConditionFiredTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scheduled_condition_fired_total",
			Help: "Total number of times a condition fired and ran its tasks",
		},
		[]string{"condition", "source"},
	)

	// ConditionErrorsTotal counts tick errors by condition and schederr kind.
	ConditionErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scheduled_condition_errors_total",
			Help: "Total number of errors returned from condition ticks",
		},
		[]string{"condition", "kind"},
	)

	// TaskOutcomesTotal counts task runs by name and outcome (success/failure).
	TaskOutcomesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scheduled_task_outcomes_total",
			Help: "Total number of task executions by outcome",
		},
		[]string{"task", "outcome"},
	)

	// TaskLatencySeconds measures task execution latency.
	TaskLatencySeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scheduled_task_latency_seconds",
			Help:    "Latency of task execution in seconds",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 16), // 10ms to ~5m
		},
		[]string{"task"},
	)

	// EventListenersActive tracks the current number of events with a
	// running background listener goroutine.
	EventListenersActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "scheduled_event_listeners_active",
			Help: "Current number of events with an active listener",
		},
	)

	// ConditionRetriesLeft tracks the remaining retry budget per condition
	// (-1, meaning unbounded, is reported as -1).
	ConditionRetriesLeft = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "scheduled_condition_retries_left",
			Help: "Remaining task-phase retries for a condition (-1 means unbounded)",
		},
		[]string{"condition"},
	)
)

// TaskOutcome labels for TaskOutcomesTotal.
const (
	TaskOutcomeSuccess = "success"
	TaskOutcomeFailure = "failure"
)
