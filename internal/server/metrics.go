package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/leapstack-labs/jokebox/internal/outcome"
	"github.com/leapstack-labs/jokebox/internal/pool"
)

// Metrics provides Prometheus metrics for the joke operations and the pool.
// A nil *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry

	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

// NewMetrics registers operation and pool metrics on a private registry.
func NewMetrics(namespace string, p *pool.Pool) *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "operations_total",
				Help:      "Total number of joke operations by outcome and status",
			},
			[]string{"operation", "outcome", "status"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "operation_duration_seconds",
				Help:      "Duration of joke operations in seconds",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5},
			},
			[]string{"operation"},
		),
	}

	registry.MustRegister(
		m.operations,
		m.duration,
		collectors.NewGoCollector(),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pool_slots_in_use",
			Help:      "Connection pool slots currently held by units of work",
		}, func() float64 { return float64(p.Stats().InUse) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pool_slots_capacity",
			Help:      "Connection pool size",
		}, func() float64 { return float64(p.Stats().Capacity) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pool_rejected_total",
			Help:      "Acquisitions rejected because the pool was exhausted",
		}, func() float64 { return float64(p.Stats().Rejected) }),
	)

	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) observe(op outcome.Op, kind outcome.Kind, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(string(op), kind.String(), strconv.Itoa(status)).Inc()
	m.duration.WithLabelValues(string(op)).Observe(elapsed.Seconds())
}
