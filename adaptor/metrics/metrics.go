// Package metrics exposes probe retry behavior as Prometheus metrics on a
// private registry.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "collatz"

// Probe records one participant's attempts, waits, and degraded steps.
type Probe struct {
	registry *prometheus.Registry
	attempts *prometheus.CounterVec
	waits    *prometheus.HistogramVec
	degraded prometheus.Counter
}

// NewProbe creates the probe metrics and registers them on a fresh registry.
//
//	m := metrics.NewProbe()
//	http.Handle("/metrics", m.Handler())
func NewProbe() *Probe {
	m := &Probe{
		registry: prometheus.NewRegistry(),
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "probe",
			Name:      "attempts_total",
			Help:      "Health check attempts by result.",
		}, []string{"result"}), // result: healthy/unhealthy
		waits: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "probe",
			Name:      "wait_seconds",
			Help:      "Backoff waits between attempts.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 9), // 50ms ~ 12.8s
		}, []string{"mode"}), // mode: collatz/random
		degraded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "probe",
			Name:      "degraded_steps_total",
			Help:      "Retry steps whose permutation fell back to identity.",
		}),
	}
	m.registry.MustRegister(m.attempts, m.waits, m.degraded)
	return m
}

// ObserveAttempt counts one health check.
func (m *Probe) ObserveAttempt(healthy bool) {
	result := "unhealthy"
	if healthy {
		result = "healthy"
	}
	m.attempts.WithLabelValues(result).Inc()
}

// ObserveWait records a wait chosen by the given jitter mode.
func (m *Probe) ObserveWait(mode string, d time.Duration) {
	m.waits.WithLabelValues(mode).Observe(d.Seconds())
}

// ObserveDegraded counts a step that used the identity fallback.
func (m *Probe) ObserveDegraded() {
	m.degraded.Inc()
}

// Registry returns the registry holding the probe metrics.
func (m *Probe) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Probe) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
