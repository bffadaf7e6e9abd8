// Package metrics exposes the service's prometheus collectors.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every collector. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry      *prometheus.Registry
	authOps       *prometheus.CounterVec
	notifications *prometheus.CounterVec
	httpRequests  *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
	tokensPurged  prometheus.Counter
}

// New registers the collectors on a fresh registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		authOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "identity",
			Name:      "auth_operations_total",
			Help:      "Credential and session operations by outcome.",
		}, []string{"operation", "outcome"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "identity",
			Name:      "notifications_total",
			Help:      "Outbound notifications by channel and outcome.",
		}, []string{"channel", "outcome"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "identity",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "identity",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		tokensPurged: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "identity",
			Name:      "verification_tokens_purged_total",
			Help:      "Stale verification tokens removed by cleanup.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.authOps,
		m.notifications,
		m.httpRequests,
		m.httpDuration,
		m.tokensPurged,
	)
	return m
}

// Handler serves the registry in the prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the underlying registry
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) AuthOutcome(operation, outcome string) {
	if m == nil {
		return
	}
	m.authOps.WithLabelValues(operation, outcome).Inc()
}

func (m *Metrics) Notification(channel, outcome string) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(channel, outcome).Inc()
}

func (m *Metrics) HTTPRequest(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func (m *Metrics) TokensPurged(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.tokensPurged.Add(float64(n))
}
