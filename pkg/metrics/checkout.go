package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CheckoutMetrics records checkout transaction outcomes.
type CheckoutMetrics struct {
	duration *prometheus.HistogramVec
	success  prometheus.Counter
	failure  *prometheus.CounterVec
	saleSize prometheus.Histogram
}

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "checkout_duration_seconds",
		Help:    "Duration of checkout transactions in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})
	success := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "checkout_success",
		Help: "Checkouts that completed with all inventory writes applied.",
	})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_failure",
		Help: "Checkouts that failed, labelled by the step that failed.",
	}, []string{"step"})
	saleSize := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "checkout_sale_lines",
		Help:    "Number of cart lines per completed sale.",
		Buckets: []float64{1, 2, 5, 10, 20, 50},
	})
	reg.MustRegister(duration, success, failure, saleSize)
	return &CheckoutMetrics{
		duration: duration,
		success:  success,
		failure:  failure,
		saleSize: saleSize,
	}
}

// ObserveDuration records the transaction duration for the given outcome.
func (c *CheckoutMetrics) ObserveDuration(outcome string, duration time.Duration) {
	if c == nil || c.duration == nil {
		return
	}
	c.duration.WithLabelValues(normalizeLabel(outcome)).Observe(duration.Seconds())
}

// IncSuccess increments the completed-checkout counter.
func (c *CheckoutMetrics) IncSuccess() {
	if c == nil || c.success == nil {
		return
	}
	c.success.Inc()
}

// IncFailure increments the failure counter for the named step.
func (c *CheckoutMetrics) IncFailure(step string) {
	if c == nil || c.failure == nil {
		return
	}
	c.failure.WithLabelValues(normalizeLabel(step)).Inc()
}

// ObserveSaleLines records the cart size of a completed sale.
func (c *CheckoutMetrics) ObserveSaleLines(lines int) {
	if c == nil || c.saleSize == nil {
		return
	}
	c.saleSize.Observe(float64(lines))
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
