package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the server's Prometheus instruments on a private
// registry so tests can create independent instances.
type Metrics struct {
	registry *prometheus.Registry

	authFailures *prometheus.CounterVec
	toolCalls    *prometheus.CounterVec
	rpcDuration  *prometheus.HistogramVec
}

// NewMetrics creates and registers the server's instruments.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		authFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "trendgate_auth_failures_total",
			Help: "Rejected requests by authentication failure kind.",
		}, []string{"kind"}),
		toolCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "trendgate_tool_calls_total",
			Help: "Tool invocations by tool name and outcome.",
		}, []string{"tool", "outcome"}),
		rpcDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "trendgate_rpc_duration_seconds",
			Help:    "JSON-RPC request handling latency by method.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"}),
	}

	registry.MustRegister(m.authFailures, m.toolCalls, m.rpcDuration)
	return m
}

// Handler serves the registry in Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) observeAuthFailure(kind string) {
	m.authFailures.WithLabelValues(kind).Inc()
}

func (m *Metrics) observeToolCall(tool, outcome string) {
	m.toolCalls.WithLabelValues(tool, outcome).Inc()
}

func (m *Metrics) observeRPC(method string, seconds float64) {
	m.rpcDuration.WithLabelValues(method).Observe(seconds)
}
