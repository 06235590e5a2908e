// Package metrics exposes weave's runtime counters as a Prometheus
// registry, served on the support listener alongside the process's
// health endpoint. It follows skipper's metrics/prometheus.go in
// shape, scaled down to the handful of series weave actually has
// something to say about.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "weave"

// Metrics holds the collectors weave's proxy and tcpproxy packages
// report into.
type Metrics struct {
	RouteLookup    *prometheus.HistogramVec
	RouteNoMatch   *prometheus.CounterVec
	BackendLatency *prometheus.HistogramVec
	ResponseStatus *prometheus.CounterVec
	TCPConnections *prometheus.CounterVec

	registry *prometheus.Registry
	handler  http.Handler
}

// New builds a Metrics instance with a fresh registry, registering
// the process and Go runtime collectors alongside weave's own.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	reg.MustRegister(collectors.NewGoCollector())

	m := &Metrics{
		RouteLookup: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "route",
			Name:      "lookup_duration_seconds",
			Help:      "Duration of matching a request against the route table.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"listener"}),

		RouteNoMatch: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "route",
			Name:      "no_match_total",
			Help:      "Requests that matched no route on their listener.",
		}, []string{"listener"}),

		BackendLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "backend",
			Name:      "duration_seconds",
			Help:      "Duration of a proxied backend request.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"listener", "host"}),

		ResponseStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "response",
			Name:      "status_total",
			Help:      "Responses served, by listener and status code.",
		}, []string{"listener", "code"}),

		TCPConnections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tcp",
			Name:      "connections_total",
			Help:      "TCP connections spliced to an upstream, by listener and outcome.",
		}, []string{"listener", "outcome"}),

		registry: reg,
	}

	reg.MustRegister(m.RouteLookup, m.RouteNoMatch, m.BackendLatency, m.ResponseStatus, m.TCPConnections)
	m.handler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})

	return m
}

// Handler serves the registry in the Prometheus text exposition
// format, for mounting on the support listener.
func (m *Metrics) Handler() http.Handler {
	return m.handler
}

// ObserveRouteLookup records how long it took to find (or fail to
// find) a match on listener.
func (m *Metrics) ObserveRouteLookup(listener string, d time.Duration) {
	m.RouteLookup.WithLabelValues(listener).Observe(d.Seconds())
}

// ObserveBackendLatency records how long a proxied request to host
// took to come back, on a given listener.
func (m *Metrics) ObserveBackendLatency(listener, host string, d time.Duration) {
	m.BackendLatency.WithLabelValues(listener, host).Observe(d.Seconds())
}

// IncResponseStatus counts one response served with the given status
// code on a listener.
func (m *Metrics) IncResponseStatus(listener string, code int) {
	m.ResponseStatus.WithLabelValues(listener, strconv.Itoa(code)).Inc()
}

// IncRouteNoMatch counts a request that matched nothing on listener.
func (m *Metrics) IncRouteNoMatch(listener string) {
	m.RouteNoMatch.WithLabelValues(listener).Inc()
}

// IncTCPConnection counts one spliced TCP connection on listener,
// tagged with how it ended ("ok", "dial-error", "io-error").
func (m *Metrics) IncTCPConnection(listener, outcome string) {
	m.TCPConnections.WithLabelValues(listener, outcome).Inc()
}
