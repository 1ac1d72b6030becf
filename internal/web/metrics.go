package web

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "repopulse"

// Analytics request outcomes.
const (
	outcomeOK      = "ok"
	outcomeInvalid = "invalid"
	outcomeFailed  = "failed"
)

// Metrics holds the collectors of one server. Each server gets its own
// registry so tests can build several without registration conflicts.
type Metrics struct {
	registry  *prometheus.Registry
	requests  *prometheus.CounterVec
	latency   *prometheus.HistogramVec
	analytics *prometheus.CounterVec
	charts    *prometheus.CounterVec
}

// NewMetrics creates and registers the server collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests served, by method, route and status.",
		}, []string{"method", "route", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency, by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		analytics: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "analytics_requests_total",
			Help:      "Questions sent to the analytics endpoint, by outcome.",
		}, []string{"outcome"}),
		charts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "chart_fetches_total",
			Help:      "Daily series fetched for the page chart, by outcome.",
		}, []string{"outcome"}),
	}
	m.registry.MustRegister(
		m.requests,
		m.latency,
		m.analytics,
		m.charts,
		collectors.NewGoCollector(),
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) observeRequest(method, route string, status int, elapsed time.Duration) {
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.latency.WithLabelValues(route).Observe(elapsed.Seconds())
}

func (m *Metrics) observeAnalytics(outcome string) {
	m.analytics.WithLabelValues(outcome).Inc()
}

func (m *Metrics) observeChart(ok bool) {
	outcome := outcomeOK
	if !ok {
		outcome = outcomeFailed
	}
	m.charts.WithLabelValues(outcome).Inc()
}
