package metrics

import "github.com/prometheus/client_golang/prometheus"

// WebhookMetrics counts inbound courier webhook deliveries.
type WebhookMetrics struct {
	received  *prometheus.CounterVec
	duplicate prometheus.Counter
}

// NewWebhookMetrics registers the webhook metrics on the provided registerer.
func NewWebhookMetrics(reg prometheus.Registerer) *WebhookMetrics {
	if reg == nil {
		return &WebhookMetrics{}
	}
	received := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_events_total",
		Help: "Courier webhook deliveries by job type, trigger and outcome.",
	}, []string{"job_type", "trigger", "outcome"})
	duplicate := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "webhook_events_duplicate_total",
		Help: "Courier webhook deliveries skipped by the idempotency guard.",
	})
	reg.MustRegister(received, duplicate)
	return &WebhookMetrics{received: received, duplicate: duplicate}
}

// IncReceived records one processed delivery.
func (w *WebhookMetrics) IncReceived(jobType, trigger, outcome string) {
	if w == nil || w.received == nil {
		return
	}
	w.received.WithLabelValues(normalizeLabel(jobType), normalizeLabel(trigger), normalizeLabel(outcome)).Inc()
}

// IncDuplicate records one skipped duplicate delivery.
func (w *WebhookMetrics) IncDuplicate() {
	if w == nil || w.duplicate == nil {
		return
	}
	w.duplicate.Inc()
}
