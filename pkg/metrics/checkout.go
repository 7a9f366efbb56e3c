package metrics

import "github.com/prometheus/client_golang/prometheus"

// CheckoutMetrics counts order creation and payment confirmation outcomes.
type CheckoutMetrics struct {
	ordersCreated *prometheus.CounterVec
	confirmations *prometheus.CounterVec
	webhookEvents *prometheus.CounterVec
}

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	ordersCreated := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "phytopro_checkout_orders_total",
		Help: "Checkout attempts by outcome.",
	}, []string{"outcome"})
	confirmations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "phytopro_payment_confirmations_total",
		Help: "Payment confirmation attempts by source and outcome.",
	}, []string{"source", "outcome"})
	webhookEvents := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "phytopro_stripe_webhook_events_total",
		Help: "Stripe webhook deliveries by event type and outcome.",
	}, []string{"event_type", "outcome"})
	reg.MustRegister(ordersCreated, confirmations, webhookEvents)
	return &CheckoutMetrics{
		ordersCreated: ordersCreated,
		confirmations: confirmations,
		webhookEvents: webhookEvents,
	}
}

// IncOrder records a checkout attempt ("created", "gateway_error", "rejected").
func (c *CheckoutMetrics) IncOrder(outcome string) {
	if c == nil || c.ordersCreated == nil {
		return
	}
	c.ordersCreated.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// IncConfirmation records a confirmation attempt ("confirmed", "skipped", "refund_required", "failed").
func (c *CheckoutMetrics) IncConfirmation(source, outcome string) {
	if c == nil || c.confirmations == nil {
		return
	}
	c.confirmations.WithLabelValues(normalizeLabel(source), normalizeLabel(outcome)).Inc()
}

// IncWebhook records a webhook delivery.
func (c *CheckoutMetrics) IncWebhook(eventType, outcome string) {
	if c == nil || c.webhookEvents == nil {
		return
	}
	c.webhookEvents.WithLabelValues(normalizeLabel(eventType), normalizeLabel(outcome)).Inc()
}
