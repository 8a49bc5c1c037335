package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	statusTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_status_transitions_total",
			Help: "Payment status transitions applied, by source",
		},
		[]string{"from", "to", "source"},
	)

	webhookRejections = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "webhook_signature_rejections_total",
			Help: "Webhook deliveries rejected for an invalid signature",
		},
	)

	webhookReplays = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "webhook_replays_total",
			Help: "Webhook deliveries ignored because the payment was already reconciled",
		},
	)
)

// RecordTransition counts one applied status transition.
func RecordTransition(from, to, source string) {
	statusTransitions.WithLabelValues(from, to, source).Inc()
}

// RecordWebhookRejection counts one rejected webhook signature.
func RecordWebhookRejection() {
	webhookRejections.Inc()
}

// RecordWebhookReplay counts one idempotent no-op webhook delivery.
func RecordWebhookReplay() {
	webhookReplays.Inc()
}
