package kawatrpc

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsCollector provides Prometheus metrics for the method call
// lifecycle. It is safe for concurrent use.
type MetricsCollector struct {
	callsTotal    *prometheus.CounterVec
	callDuration  *prometheus.HistogramVec
	callsInFlight *prometheus.GaugeVec

	errorsTotal *prometheus.CounterVec

	cookieUpdates prometheus.Counter
}

// NewMetricsCollector creates a metrics collector on the default registerer.
func NewMetricsCollector() *MetricsCollector {
	return NewMetricsCollectorWithRegistry(prometheus.DefaultRegisterer)
}

// NewMetricsCollectorWithRegistry creates a collector using the supplied
// registerer.
func NewMetricsCollectorWithRegistry(registry prometheus.Registerer) *MetricsCollector {
	return &MetricsCollector{
		callsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "kawatrpc_calls_total",
				Help: "Total number of XML-RPC method calls completed",
			},
			[]string{"method", "status_code"},
		),
		callDuration: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "kawatrpc_call_duration_seconds",
				Help:    "Duration of XML-RPC method calls in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "status_code"},
		),
		callsInFlight: promauto.With(registry).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "kawatrpc_calls_in_flight",
				Help: "Number of XML-RPC method calls currently in flight",
			},
			[]string{"method"},
		),
		errorsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "kawatrpc_errors_total",
				Help: "Total number of call failures by error type",
			},
			[]string{"type", "method"},
		),
		cookieUpdates: promauto.With(registry).NewCounter(
			prometheus.CounterOpts{
				Name: "kawatrpc_cookie_updates_total",
				Help: "Total number of responses that carried Set-Cookie headers",
			},
		),
	}
}

// RecordCallStart increments the in-flight gauge for method.
func (mc *MetricsCollector) RecordCallStart(method string) {
	mc.callsInFlight.WithLabelValues(method).Inc()
}

// RecordCallEnd decrements the in-flight gauge for method.
func (mc *MetricsCollector) RecordCallEnd(method string) {
	mc.callsInFlight.WithLabelValues(method).Dec()
}

// RecordCall records a completed call with its HTTP status (0 when the
// exchange never produced a response) and duration.
func (mc *MetricsCollector) RecordCall(method string, statusCode int, duration time.Duration) {
	status := strconv.Itoa(statusCode)
	mc.callsTotal.WithLabelValues(method, status).Inc()
	mc.callDuration.WithLabelValues(method, status).Observe(duration.Seconds())
}

// RecordError records a call failure by ClientError type.
func (mc *MetricsCollector) RecordError(errorType, method string) {
	mc.errorsTotal.WithLabelValues(errorType, method).Inc()
}

// RecordCookieUpdate records a response whose headers rotated the jar.
func (mc *MetricsCollector) RecordCookieUpdate() {
	mc.cookieUpdates.Inc()
}
