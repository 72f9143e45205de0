package gateway

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Failure kinds recorded on BackendErrorsTotal
const (
	KindConfiguration = "configuration"
	KindQuery         = "query"
	KindEncode        = "encode"
)

// Metrics contains the gateway's Prometheus metrics
type Metrics struct {
	RequestsTotal      *prometheus.CounterVec
	RequestDuration    *prometheus.HistogramVec
	BackendErrorsTotal *prometheus.CounterVec
}

// NewMetrics creates and registers the gateway metrics
func NewMetrics(registry prometheus.Registerer, namespace string) *Metrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registry)

	return &Metrics{
		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "requests_total",
			Help:      "Total number of gateway invocations by resource and status code",
		}, []string{"resource", "status"}),

		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "request_duration_seconds",
			Help:      "Time spent serving gateway invocations",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
		}, []string{"resource"}),

		BackendErrorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "backend_errors_total",
			Help:      "Total number of failed invocations by resource and failure kind",
		}, []string{"resource", "kind"}),
	}
}

// RecordRequest records one finished invocation
func (m *Metrics) RecordRequest(resource string, status int, seconds float64) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(resource, strconv.Itoa(status)).Inc()
	m.RequestDuration.WithLabelValues(resource).Observe(seconds)
}

// IncBackendErrors increments the failure counter
func (m *Metrics) IncBackendErrors(resource, kind string) {
	if m == nil {
		return
	}
	m.BackendErrorsTotal.WithLabelValues(resource, kind).Inc()
}
