package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	dto "github.com/prometheus/client_model/go"
)

// Metric names, prefixed with the configured namespace
const (
	MetricRequestsTotal          = "client_requests_total"
	MetricRequestDurationSeconds = "client_request_duration_seconds"
	MetricCheckoutsTotal         = "checkouts_total"
)

// StatusTransportError is the status label used when no response arrived
const StatusTransportError = "error"

// ClientMetrics records per-operation request counts and latencies on a
// private registry.
//
// Thread Safety: Safe for concurrent use by multiple goroutines.
type ClientMetrics struct {
	registry        *prometheus.Registry
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	checkoutsTotal  *prometheus.CounterVec
}

// NewClientMetrics creates and registers the client metrics
func NewClientMetrics(namespace string) *ClientMetrics {
	registry := prometheus.NewRegistry()

	m := &ClientMetrics{
		registry: registry,
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      MetricRequestsTotal,
				Help:      "Total number of API requests by operation and status",
			},
			[]string{"operation", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      MetricRequestDurationSeconds,
				Help:      "API request duration in seconds by operation",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		checkoutsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      MetricCheckoutsTotal,
				Help:      "Total number of checkout attempts by outcome",
			},
			[]string{"outcome"},
		),
	}

	registry.MustRegister(m.requestsTotal, m.requestDuration, m.checkoutsTotal)
	return m
}

// ObserveRequest records one finished request. status is the HTTP status
// code, or 0 when the transport failed.
func (m *ClientMetrics) ObserveRequest(operation string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	label := StatusTransportError
	if status > 0 {
		label = strconv.Itoa(status)
	}
	m.requestsTotal.WithLabelValues(operation, label).Inc()
	m.requestDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// ObserveCheckout records a checkout outcome (submitted, rejected, empty, error)
func (m *ClientMetrics) ObserveCheckout(outcome string) {
	if m == nil {
		return
	}
	m.checkoutsTotal.WithLabelValues(outcome).Inc()
}

// Gather returns the current metric families
func (m *ClientMetrics) Gather() ([]*dto.MetricFamily, error) {
	return m.registry.Gather()
}

// Handler exposes the registry in the Prometheus text format
func (m *ClientMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
