// Package telemetry provides Prometheus metrics for model calls and HTTP
// traffic, and OpenTelemetry tracing setup.
package telemetry

import (
	"context"
	"errors"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/flemzord/gemgate/internal/provider"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ServiceName is the service registry key of the shared Metrics.
const ServiceName = "telemetry.metrics"

const namespace = "gemgate"

var _ provider.Observer = (*Metrics)(nil)

// Metrics owns a Prometheus registry and the collectors gemgate exports.
// It observes provider calls and records gateway requests.
type Metrics struct {
	registry *prometheus.Registry

	calls        *prometheus.CounterVec
	callDuration *prometheus.HistogramVec
	tokens       *prometheus.CounterVec
	embedValues  *prometheus.CounterVec

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
	streamsOpen  prometheus.Gauge
}

// NewMetrics creates a Metrics with its own registry, including the Go
// runtime and process collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "provider",
			Name:      "calls_total",
			Help:      "Model calls by outcome and finish reason.",
		}, []string{"provider", "model", "operation", "outcome", "finish_reason"}),
		callDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "provider",
			Name:      "call_duration_seconds",
			Help:      "Model call latency. Streams are measured until the finish event.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"provider", "model", "operation"}),
		tokens: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "provider",
			Name:      "tokens_total",
			Help:      "Tokens reported by the provider.",
		}, []string{"provider", "model", "kind"}),
		embedValues: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "provider",
			Name:      "embedded_values_total",
			Help:      "Values sent for embedding.",
		}, []string{"provider", "model"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Gateway requests by route and status code.",
		}, []string{"method", "route", "code"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Gateway request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		streamsOpen: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "open_streams",
			Help:      "Streaming responses in progress.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.calls, m.callDuration, m.tokens, m.embedValues,
		m.httpRequests, m.httpDuration, m.streamsOpen,
	)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveCall implements provider.Observer.
func (m *Metrics) ObserveCall(_ context.Context, rec provider.CallRecord) {
	op := string(rec.Operation)
	finish := string(rec.FinishReason)
	m.calls.WithLabelValues(rec.Provider, rec.Model, op, outcome(rec.Err), finish).Inc()
	m.callDuration.WithLabelValues(rec.Provider, rec.Model, op).Observe(rec.Duration.Seconds())

	if !math.IsNaN(rec.Usage.PromptTokens) {
		m.tokens.WithLabelValues(rec.Provider, rec.Model, "prompt").Add(rec.Usage.PromptTokens)
	}
	if !math.IsNaN(rec.Usage.CompletionTokens) {
		m.tokens.WithLabelValues(rec.Provider, rec.Model, "completion").Add(rec.Usage.CompletionTokens)
	}
	if rec.Values > 0 {
		m.embedValues.WithLabelValues(rec.Provider, rec.Model).Add(float64(rec.Values))
	}
}

// ObserveRequest records one finished gateway request. route is the
// matched route pattern, not the raw path.
func (m *Metrics) ObserveRequest(method, route string, code int, d time.Duration) {
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// StreamOpened and StreamClosed track in-flight streaming responses.
func (m *Metrics) StreamOpened() { m.streamsOpen.Inc() }

// StreamClosed decrements the open stream gauge.
func (m *Metrics) StreamClosed() { m.streamsOpen.Dec() }

// outcome classifies an error into a low-cardinality label.
func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	case errors.Is(err, provider.ErrRateLimit):
		return "rate_limited"
	case errors.Is(err, provider.ErrAuthentication):
		return "auth_error"
	case errors.Is(err, provider.ErrProviderDown):
		return "unavailable"
	case errors.Is(err, provider.ErrInvalidArgument), errors.Is(err, provider.ErrUnsupported),
		errors.Is(err, provider.ErrTooManyValues):
		return "invalid_request"
	case errors.Is(err, provider.ErrSchemaValidation):
		return "bad_response"
	default:
		return "error"
	}
}
