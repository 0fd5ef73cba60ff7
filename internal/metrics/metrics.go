package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels shared by the counters.
const (
	OutcomeSuccess       = "success"
	OutcomeNotFound      = "not_found"
	OutcomeError         = "error"
	OutcomeBadRequest    = "bad_request"
	OutcomeMisconfigured = "misconfigured"
)

// Metrics holds the service collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	upstreamRequests *prometheus.CounterVec
	upstreamDuration *prometheus.HistogramVec
	viewRequests     *prometheus.CounterVec
	upstreamUp       prometheus.Gauge
}

// New creates the collectors and registers them on a dedicated registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		upstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "weather_upstream_requests_total",
			Help: "Requests sent to the weather provider, by endpoint and outcome.",
		}, []string{"endpoint", "outcome"}),
		upstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "weather_upstream_request_duration_seconds",
			Help:    "Latency of weather provider requests.",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),
		viewRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "weather_view_requests_total",
			Help: "Weather view lookups, by outcome.",
		}, []string{"outcome"}),
		upstreamUp: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "weather_upstream_up",
			Help: "1 if the last upstream probe succeeded, 0 otherwise.",
		}),
	}

	m.registry.MustRegister(
		m.upstreamRequests,
		m.upstreamDuration,
		m.viewRequests,
		m.upstreamUp,
	)
	return m
}

// ObserveUpstream records one provider call.
func (m *Metrics) ObserveUpstream(endpoint, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.upstreamRequests.WithLabelValues(endpoint, outcome).Inc()
	m.upstreamDuration.WithLabelValues(endpoint).Observe(elapsed.Seconds())
}

// ObserveView records the outcome of one weather view lookup.
func (m *Metrics) ObserveView(outcome string) {
	if m == nil {
		return
	}
	m.viewRequests.WithLabelValues(outcome).Inc()
}

// SetUpstreamUp records the result of the latest probe.
func (m *Metrics) SetUpstreamUp(up bool) {
	if m == nil {
		return
	}
	if up {
		m.upstreamUp.Set(1)
		return
	}
	m.upstreamUp.Set(0)
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// UpstreamRequests exposes the upstream request counter, mainly for tests.
func (m *Metrics) UpstreamRequests() *prometheus.CounterVec {
	return m.upstreamRequests
}

// ViewRequests exposes the view lookup counter, mainly for tests.
func (m *Metrics) ViewRequests() *prometheus.CounterVec {
	return m.viewRequests
}

// UpstreamUp exposes the probe gauge, mainly for tests.
func (m *Metrics) UpstreamUp() prometheus.Gauge {
	return m.upstreamUp
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
