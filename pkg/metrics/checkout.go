package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Submission outcomes recorded by the checkout workflow.
const (
	OutcomeServer   = "server"
	OutcomeGuest    = "guest_retry"
	OutcomeFallback = "local_fallback"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
)

// CheckoutMetrics records cart activity and order-submission outcomes.
type CheckoutMetrics struct {
	cartActions *prometheus.CounterVec
	submissions *prometheus.CounterVec
	restored    *prometheus.CounterVec
}

// NewCheckoutMetrics registers the storefront metrics on the provided registerer.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	cartActions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_actions_total",
		Help: "Cart reducer actions dispatched, by action type.",
	}, []string{"action"})
	submissions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_submissions_total",
		Help: "Order submissions, by terminal outcome.",
	}, []string{"outcome"})
	restored := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_restore_entries_total",
		Help: "Cart entries seen during restore, by disposition.",
	}, []string{"disposition"})
	reg.MustRegister(cartActions, submissions, restored)
	return &CheckoutMetrics{
		cartActions: cartActions,
		submissions: submissions,
		restored:    restored,
	}
}

// IncCartAction increments the counter for the named reducer action.
func (c *CheckoutMetrics) IncCartAction(action string) {
	if c == nil || c.cartActions == nil {
		return
	}
	c.cartActions.WithLabelValues(normalizeLabel(action)).Inc()
}

// IncSubmission increments the counter for the given submission outcome.
func (c *CheckoutMetrics) IncSubmission(outcome string) {
	if c == nil || c.submissions == nil {
		return
	}
	c.submissions.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// IncRestored counts a restored-or-dropped cart entry.
func (c *CheckoutMetrics) IncRestored(disposition string) {
	if c == nil || c.restored == nil {
		return
	}
	c.restored.WithLabelValues(normalizeLabel(disposition)).Inc()
}

func normalizeLabel(label string) string {
	if label == "" {
		return "unknown"
	}
	return label
}
