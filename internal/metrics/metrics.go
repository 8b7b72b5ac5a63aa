// Package metrics provides a Prometheus-backed implementation of the
// client's MetricsRecorder interface, plus an exposition handler for
// embedding applications that scrape their own registry.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "protopred"

// Recorder collects request and retry metrics for prediction calls. It
// satisfies the client package's MetricsRecorder interface.
type Recorder struct {
	registry *prometheus.Registry

	requests  *prometheus.CounterVec
	retries   *prometheus.CounterVec
	durations *prometheus.HistogramVec
}

// NewRecorder builds a Recorder on its own registry, so multiple clients in
// one process never collide on metric registration.
func NewRecorder() *Recorder {
	registry := prometheus.NewRegistry()

	r := &Recorder{
		registry: registry,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Prediction requests by module and outcome.",
		}, []string{"module", "outcome"}),
		retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retries_total",
			Help:      "Retry attempts by module.",
		}, []string{"module"}),
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "End-to-end prediction call latency by module.",
			Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"module"}),
	}
	registry.MustRegister(r.requests, r.retries, r.durations)
	return r
}

// ObserveRequest records one finished prediction call.
func (r *Recorder) ObserveRequest(module, outcome string, seconds float64) {
	r.requests.WithLabelValues(module, outcome).Inc()
	r.durations.WithLabelValues(module).Observe(seconds)
}

// IncRetry records one retry attempt.
func (r *Recorder) IncRetry(module string) {
	r.retries.WithLabelValues(module).Inc()
}

// Handler returns the Prometheus exposition handler for this recorder's
// registry.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
