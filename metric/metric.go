// Package metric provides prometheus metrics for harness operations: client
// lifecycle transitions, domain operations, reference resolution and async
// waits.
package metric

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics contains all harness-level metrics
type Metrics struct {
	ClientOperations  *prometheus.CounterVec
	ClientLifecycle   *prometheus.CounterVec
	ResolverLookups   *prometheus.CounterVec
	WaitDuration      *prometheus.HistogramVec
	PropertyMutations *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all harness metrics
func NewMetrics() *Metrics {
	return &Metrics{
		ClientOperations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "smoker",
				Subsystem: "client",
				Name:      "operations_total",
				Help:      "Total number of client domain operations",
			},
			[]string{"client", "operation", "status"},
		),

		ClientLifecycle: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "smoker",
				Subsystem: "client",
				Name:      "lifecycle_total",
				Help:      "Total number of client lifecycle transitions",
			},
			[]string{"client", "transition", "status"},
		),

		ResolverLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "smoker",
				Subsystem: "resolver",
				Name:      "lookups_total",
				Help:      "Total number of reference token resolutions",
			},
			[]string{"kind", "status"},
		),

		WaitDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "smoker",
				Subsystem: "wait",
				Name:      "duration_seconds",
				Help:      "Duration of async wait operations in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"client", "outcome"},
		),

		PropertyMutations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "smoker",
				Subsystem: "properties",
				Name:      "mutations_total",
				Help:      "Total number of property store mutations",
			},
			[]string{"operation"},
		),
	}
}

// Register registers all metrics with the given prometheus registry
func (m *Metrics) Register(registry *prometheus.Registry) error {
	collectors := []prometheus.Collector{
		m.ClientOperations,
		m.ClientLifecycle,
		m.ResolverLookups,
		m.WaitDuration,
		m.PropertyMutations,
	}
	for _, c := range collectors {
		if err := registry.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// ObserveOperation records one client domain operation
func (m *Metrics) ObserveOperation(client, operation string, err error) {
	if m == nil {
		return
	}
	m.ClientOperations.WithLabelValues(client, operation, statusLabel(err)).Inc()
}

// ObserveLifecycle records one lifecycle transition
func (m *Metrics) ObserveLifecycle(client, transition string, err error) {
	if m == nil {
		return
	}
	m.ClientLifecycle.WithLabelValues(client, transition, statusLabel(err)).Inc()
}

// ObserveLookup records one reference resolution of the given kind
// ("config" or "prop").
func (m *Metrics) ObserveLookup(kind string, err error) {
	if m == nil {
		return
	}
	m.ResolverLookups.WithLabelValues(kind, statusLabel(err)).Inc()
}

// ObserveWait records the duration and outcome of one wait operation
func (m *Metrics) ObserveWait(client string, elapsed time.Duration, found bool, err error) {
	if m == nil {
		return
	}
	outcome := "match"
	switch {
	case err != nil:
		outcome = "error"
	case !found:
		outcome = "timeout"
	}
	m.WaitDuration.WithLabelValues(client, outcome).Observe(elapsed.Seconds())
}

// ObserveProperty records one property store mutation
func (m *Metrics) ObserveProperty(operation string) {
	if m == nil {
		return
	}
	m.PropertyMutations.WithLabelValues(operation).Inc()
}

func statusLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
