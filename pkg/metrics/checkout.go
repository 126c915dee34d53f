package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Checkout outcome labels.
const (
	OutcomeSucceeded           = "succeeded"
	OutcomeValidation          = "validation"
	OutcomeEmptyCart           = "empty_cart"
	OutcomeDeclined            = "declined"
	OutcomeGatewayError        = "gateway_error"
	OutcomeAmbiguous           = "ambiguous"
	OutcomePostChargeFailure   = "post_charge_persistence"
	OutcomeLockTimeout         = "lock_timeout"
	OutcomeInternal            = "internal"
	OutcomeInsufficientStock   = "insufficient_stock"
	OutcomeProductInconsistent = "product_not_found"
)

// CheckoutMetrics records checkout outcomes and payment gateway latency.
type CheckoutMetrics struct {
	outcomes *prometheus.CounterVec
	gateway  *prometheus.HistogramVec
}

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_outcomes_total",
		Help: "Checkout attempts by final outcome.",
	}, []string{"outcome"})
	gateway := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "payment_gateway_duration_seconds",
		Help:    "Duration of payment gateway charge calls in seconds.",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{"result"})
	reg.MustRegister(outcomes, gateway)
	return &CheckoutMetrics{
		outcomes: outcomes,
		gateway:  gateway,
	}
}

// IncOutcome counts a finished checkout attempt.
func (c *CheckoutMetrics) IncOutcome(outcome string) {
	if c == nil || c.outcomes == nil {
		return
	}
	c.outcomes.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// ObserveGateway records how long a charge call took and how it ended.
func (c *CheckoutMetrics) ObserveGateway(result string, duration time.Duration) {
	if c == nil || c.gateway == nil {
		return
	}
	c.gateway.WithLabelValues(normalizeLabel(result)).Observe(duration.Seconds())
}

// Handler exposes the registry in the Prometheus text format.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	if gatherer == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
