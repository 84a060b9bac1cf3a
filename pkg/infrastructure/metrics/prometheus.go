// Package metrics exports planning solve metrics in Prometheus format.
package metrics

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vsinha/balance/pkg/infrastructure/events"
)

// PrometheusExporter turns planning events into Prometheus metrics.
type PrometheusExporter struct {
	registry *prometheus.Registry

	solveLatency *prometheus.HistogramVec
	solves       *prometheus.CounterVec
	solveFailed  *prometheus.CounterVec
	bbNodes      *prometheus.HistogramVec
	skippedKeys  prometheus.Counter
	heuristicKey prometheus.Counter
	unmatchedKey prometheus.Counter
	ambiguousKey prometheus.Counter
}

// Config configures the Prometheus exporter.
type Config struct {
	// Registry to use (if nil, creates a new one)
	Registry *prometheus.Registry

	// Buckets for latency histograms (in seconds)
	LatencyBuckets []float64
}

// DefaultConfig returns default Prometheus configuration.
func DefaultConfig() Config {
	return Config{
		LatencyBuckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
	}
}

// NewPrometheusExporter creates a new Prometheus metrics exporter.
func NewPrometheusExporter(cfg Config) *PrometheusExporter {
	if len(cfg.LatencyBuckets) == 0 {
		cfg.LatencyBuckets = DefaultConfig().LatencyBuckets
	}

	registry := cfg.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	e := &PrometheusExporter{registry: registry}

	e.solveLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "balance",
			Subsystem: "planning",
			Name:      "solve_duration_seconds",
			Help:      "Wall time of a single model solve in seconds",
			Buckets:   cfg.LatencyBuckets,
		},
		[]string{"model"},
	)

	e.solves = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "balance",
			Subsystem: "planning",
			Name:      "solves_total",
			Help:      "Total number of completed solves by solver status",
		},
		[]string{"model", "status"},
	)

	e.solveFailed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "balance",
			Subsystem: "planning",
			Name:      "solve_errors_total",
			Help:      "Total number of solves that returned an error",
		},
		[]string{"model"},
	)

	e.bbNodes = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "balance",
			Subsystem: "planning",
			Name:      "relaxations_per_solve",
			Help:      "Number of LP relaxations solved per model solve",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		},
		[]string{"model"},
	)

	e.skippedKeys = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "balance",
			Subsystem: "scenario",
			Name:      "skipped_keys_total",
			Help:      "Flattened keys dropped because they carry no delimiter",
		},
	)

	e.heuristicKey = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "balance",
			Subsystem: "scenario",
			Name:      "heuristic_keys_total",
			Help:      "Flattened keys split without a known product/period match",
		},
	)

	e.unmatchedKey = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "balance",
			Subsystem: "scenario",
			Name:      "unmatched_keys_total",
			Help:      "Flattened keys dropped because they name an unlisted product or period",
		},
	)

	e.ambiguousKey = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "balance",
			Subsystem: "scenario",
			Name:      "ambiguous_keys_total",
			Help:      "Flattened keys with more than one known product/period split",
		},
	)

	registry.MustRegister(
		e.solveLatency,
		e.solves,
		e.solveFailed,
		e.bbNodes,
		e.skippedKeys,
		e.heuristicKey,
		e.unmatchedKey,
		e.ambiguousKey,
	)

	return e
}

// Verify interface compliance
var _ events.EventHandler = (*PrometheusExporter)(nil)

// HandledEvents lists the event types the exporter subscribes to
func HandledEvents() []string {
	return []string{
		events.PlanSolveCompletedEvent,
		events.PlanSolveFailedEvent,
		events.ScenarioKeysSkippedEvent,
	}
}

// CanHandle reports whether the event type feeds a metric
func (e *PrometheusExporter) CanHandle(eventType string) bool {
	switch eventType {
	case events.PlanSolveCompletedEvent, events.PlanSolveFailedEvent, events.ScenarioKeysSkippedEvent:
		return true
	default:
		return false
	}
}

// Handle records the event's payload
func (e *PrometheusExporter) Handle(event events.Event) error {
	switch data := event.Data().(type) {
	case events.PlanSolveCompleted:
		e.RecordSolve(data)
	case events.PlanSolveFailed:
		e.solveFailed.WithLabelValues(data.Model.String()).Inc()
	case events.ScenarioKeysSkipped:
		e.skippedKeys.Add(float64(len(data.Skipped)))
		e.heuristicKey.Add(float64(len(data.Heuristic)))
		e.unmatchedKey.Add(float64(len(data.Unmatched)))
		e.ambiguousKey.Add(float64(len(data.Ambiguous)))
	default:
		return fmt.Errorf("unexpected payload %T for event %s", data, event.Type())
	}
	return nil
}

// RecordSolve records one completed solve.
func (e *PrometheusExporter) RecordSolve(data events.PlanSolveCompleted) {
	model := data.Model.String()
	e.solveLatency.WithLabelValues(model).Observe(data.Duration.Seconds())
	e.solves.WithLabelValues(model, data.Status.String()).Inc()
	e.bbNodes.WithLabelValues(model).Observe(float64(data.Nodes))
}

// Handler returns an HTTP handler serving the exporter's registry.
func (e *PrometheusExporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{})
}

// GetRegistry returns the underlying registry.
func (e *PrometheusExporter) GetRegistry() *prometheus.Registry {
	return e.registry
}
