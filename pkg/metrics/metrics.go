package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

// HTTPMetrics records request-level counters and latency.
type HTTPMetrics struct {
	duration *prometheus.HistogramVec
	total    *prometheus.CounterVec
}

// NewHTTPMetrics registers the request metrics on the provided registerer.
func NewHTTPMetrics(reg prometheus.Registerer) *HTTPMetrics {
	if reg == nil {
		return &HTTPMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
	total := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Handled HTTP requests.",
	}, []string{"method", "route", "status"})
	reg.MustRegister(duration, total)
	return &HTTPMetrics{duration: duration, total: total}
}

// Observe records one handled request.
func (m *HTTPMetrics) Observe(method, route, status string, seconds float64) {
	if m == nil || m.duration == nil {
		return
	}
	method = normalizeLabel(method)
	route = normalizeLabel(route)
	m.duration.WithLabelValues(method, route, status).Observe(seconds)
	m.total.WithLabelValues(method, route, status).Inc()
}

// WebhookMetrics counts reconciler outcomes per event type.
type WebhookMetrics struct {
	processed *prometheus.CounterVec
	failed    *prometheus.CounterVec
	ignored   prometheus.Counter
}

// NewWebhookMetrics registers the reconciler metrics on the provided registerer.
func NewWebhookMetrics(reg prometheus.Registerer) *WebhookMetrics {
	if reg == nil {
		return &WebhookMetrics{}
	}
	processed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_events_processed_total",
		Help: "Webhook events that completed their state transition.",
	}, []string{"event_type"})
	failed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_events_failed_total",
		Help: "Webhook events whose state transition errored.",
	}, []string{"event_type"})
	ignored := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "webhook_events_ignored_total",
		Help: "Webhook events acknowledged without a handler.",
	})
	reg.MustRegister(processed, failed, ignored)
	return &WebhookMetrics{processed: processed, failed: failed, ignored: ignored}
}

// IncProcessed counts a completed transition for the event type.
func (m *WebhookMetrics) IncProcessed(eventType string) {
	if m == nil || m.processed == nil {
		return
	}
	m.processed.WithLabelValues(normalizeLabel(eventType)).Inc()
}

// IncFailed counts a failed transition for the event type.
func (m *WebhookMetrics) IncFailed(eventType string) {
	if m == nil || m.failed == nil {
		return
	}
	m.failed.WithLabelValues(normalizeLabel(eventType)).Inc()
}

// IncIgnored counts an acknowledged event with no handler.
func (m *WebhookMetrics) IncIgnored() {
	if m == nil || m.ignored == nil {
		return
	}
	m.ignored.Inc()
}

func normalizeLabel(value string) string {
	value = strings.TrimSpace(strings.ToLower(value))
	if value == "" {
		return "unknown"
	}
	return value
}
