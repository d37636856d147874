package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusMetrics implements Metrics using Prometheus.
type PrometheusMetrics struct {
	registry *prometheus.Registry

	// Repository metrics
	operations       *prometheus.CounterVec
	operationLatency *prometheus.HistogramVec
	fetchResults     prometheus.Histogram
	invalidQueries   prometheus.Counter

	// Ingest metrics
	blockHeight prometheus.Gauge
	revisions   *prometheus.CounterVec
	rolledBack  prometheus.Counter
}

// NewPrometheusMetrics creates a PrometheusMetrics with its own registry.
func NewPrometheusMetrics(namespace string) *PrometheusMetrics {
	registry := prometheus.NewRegistry()

	m := &PrometheusMetrics{
		registry: registry,

		operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "repository_operations_total",
				Help:      "Total number of repository operations",
			},
			[]string{"op", "result"},
		),
		operationLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "repository_operation_seconds",
				Help:      "Latency of repository operations",
				Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
			},
			[]string{"op"},
		),
		fetchResults: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "fetch_results",
				Help:      "Number of documents returned per fetch",
				Buckets:   []float64{0, 1, 5, 10, 25, 50, 100},
			},
		),
		invalidQueries: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "invalid_queries_total",
				Help:      "Total number of queries rejected by validation",
			},
		),

		blockHeight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "block_height",
				Help:      "Height of the last applied block",
			},
		),
		revisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "revisions_total",
				Help:      "Total number of revisions appended",
			},
			[]string{"action"},
		),
		rolledBack: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "revisions_rolled_back_total",
				Help:      "Total number of revisions removed by rollbacks",
			},
		),
	}

	registry.MustRegister(
		m.operations,
		m.operationLatency,
		m.fetchResults,
		m.invalidQueries,
		m.blockHeight,
		m.revisions,
		m.rolledBack,
	)

	return m
}

func (m *PrometheusMetrics) ObserveOperation(op string, err error, latency time.Duration) {
	m.operations.WithLabelValues(op, Result(err)).Inc()
	m.operationLatency.WithLabelValues(op).Observe(latency.Seconds())
}

func (m *PrometheusMetrics) ObserveFetchResults(n int) {
	m.fetchResults.Observe(float64(n))
}

func (m *PrometheusMetrics) IncInvalidQueries() {
	m.invalidQueries.Inc()
}

func (m *PrometheusMetrics) SetBlockHeight(height int64) {
	m.blockHeight.Set(float64(height))
}

func (m *PrometheusMetrics) IncRevisions(action string) {
	m.revisions.WithLabelValues(action).Inc()
}

func (m *PrometheusMetrics) AddRolledBack(n int) {
	m.rolledBack.Add(float64(n))
}

// Registry returns the registry the metrics are registered with.
func (m *PrometheusMetrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns an HTTP handler for serving metrics.
func (m *PrometheusMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		Registry: m.registry,
	})
}
