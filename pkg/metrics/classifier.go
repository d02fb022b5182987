package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ClassifierMetrics records image classification outcomes.
type ClassifierMetrics struct {
	loadDuration    prometheus.Histogram
	loadFailure     prometheus.Counter
	predictDuration prometheus.Histogram
	predictions     *prometheus.CounterVec
}

// NewClassifierMetrics registers the classifier metrics on the provided registerer.
func NewClassifierMetrics(reg prometheus.Registerer) *ClassifierMetrics {
	if reg == nil {
		return &ClassifierMetrics{}
	}
	loadDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "classifier_model_load_seconds",
		Help:    "Duration of classifier model loads in seconds.",
		Buckets: prometheus.DefBuckets,
	})
	loadFailure := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "classifier_model_load_failure",
		Help: "Failed classifier model loads.",
	})
	predictDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "classifier_predict_seconds",
		Help:    "Duration of single-image predictions in seconds.",
		Buckets: prometheus.DefBuckets,
	})
	predictions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "classifier_predictions",
		Help: "Predictions by outcome: matched, unmatched or unknown.",
	}, []string{"outcome"})
	reg.MustRegister(loadDuration, loadFailure, predictDuration, predictions)
	return &ClassifierMetrics{
		loadDuration:    loadDuration,
		loadFailure:     loadFailure,
		predictDuration: predictDuration,
		predictions:     predictions,
	}
}

// ObserveLoad records the duration of a model load.
func (c *ClassifierMetrics) ObserveLoad(duration time.Duration) {
	if c == nil || c.loadDuration == nil {
		return
	}
	c.loadDuration.Observe(duration.Seconds())
}

// IncLoadFailure increments the failed-load counter.
func (c *ClassifierMetrics) IncLoadFailure() {
	if c == nil || c.loadFailure == nil {
		return
	}
	c.loadFailure.Inc()
}

// ObservePredict records the duration of a prediction.
func (c *ClassifierMetrics) ObservePredict(duration time.Duration) {
	if c == nil || c.predictDuration == nil {
		return
	}
	c.predictDuration.Observe(duration.Seconds())
}

// IncPrediction increments the prediction counter for the given outcome.
func (c *ClassifierMetrics) IncPrediction(outcome string) {
	if c == nil || c.predictions == nil {
		return
	}
	c.predictions.WithLabelValues(normalizeLabel(outcome)).Inc()
}
