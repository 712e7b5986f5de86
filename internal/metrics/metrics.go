// Package metrics provides Prometheus metrics for the edge service.
package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Default histogram buckets for API latency.
var defaultBuckets = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}

// Metrics holds all Prometheus metric collectors for the service.
type Metrics struct {
	Registry *prometheus.Registry

	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	RequestsInFlight prometheus.Gauge

	UpstreamDuration  *prometheus.HistogramVec
	UpstreamResponses *prometheus.CounterVec

	GuardRedirects *prometheus.CounterVec
	DocumentBytes  *prometheus.CounterVec
}

// New creates a Metrics instance with a custom registry and all collectors registered.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		Registry: reg,

		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jobboard_edge_http_requests_total",
			Help: "Total inbound HTTP requests.",
		}, []string{"method", "status_code", "path_prefix"}),

		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "jobboard_edge_http_request_duration_seconds",
			Help:    "Inbound HTTP request latency in seconds.",
			Buckets: defaultBuckets,
		}, []string{"method", "status_code", "path_prefix"}),

		RequestsInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "jobboard_edge_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed.",
		}),

		UpstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "jobboard_edge_upstream_request_duration_seconds",
			Help:    "Upstream call latency in seconds.",
			Buckets: defaultBuckets,
		}, []string{"target", "method"}),

		UpstreamResponses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jobboard_edge_upstream_responses_total",
			Help: "Total upstream responses by target, method and status code.",
		}, []string{"target", "method", "status_code"}),

		GuardRedirects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jobboard_edge_guard_redirects_total",
			Help: "Role root paths redirected by the route guard.",
		}, []string{"role"}),

		DocumentBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jobboard_edge_document_bytes_total",
			Help: "Document bytes relayed to clients by proxy profile.",
		}, []string{"profile"}),
	}

	reg.MustRegister(
		m.RequestsTotal,
		m.RequestDuration,
		m.RequestsInFlight,
		m.UpstreamDuration,
		m.UpstreamResponses,
		m.GuardRedirects,
		m.DocumentBytes,
	)

	return m
}

// ObserveUpstream records one upstream call. An empty status means the call
// failed before a response arrived. A nil Metrics records nothing.
func (m *Metrics) ObserveUpstream(target, method, status string, seconds float64) {
	if m == nil {
		return
	}
	method = NormalizeMethod(method)
	m.UpstreamDuration.WithLabelValues(target, method).Observe(seconds)
	if status != "" {
		m.UpstreamResponses.WithLabelValues(target, method, status).Inc()
	}
}

// GuardRedirect counts a redirect issued for role.
func (m *Metrics) GuardRedirect(role string) {
	if m == nil {
		return
	}
	m.GuardRedirects.WithLabelValues(role).Inc()
}

// DocumentServed adds n relayed bytes to the profile's counter.
func (m *Metrics) DocumentServed(profile string, n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.DocumentBytes.WithLabelValues(profile).Add(float64(n))
}

// knownMethods lists the allowed HTTP method label values (bounded cardinality).
var knownMethods = map[string]bool{
	"GET": true, "POST": true, "PUT": true, "DELETE": true,
	"PATCH": true, "HEAD": true, "OPTIONS": true,
}

// NormalizeMethod returns a bounded HTTP method label for Prometheus metrics.
// Non-standard methods are mapped to "other" to prevent cardinality explosion.
func NormalizeMethod(method string) string {
	if knownMethods[method] {
		return method
	}
	return "other"
}

// knownPrefixes lists the allowed path label values (bounded cardinality).
// More specific prefixes come first. The scrape path is never labeled; the
// metrics middleware skips it.
var knownPrefixes = []string{
	"/api/pdf-proxy", "/api/proxy", "/api",
	"/state/not-interested", "/state/reference",
	"/healthz", "/status",
}

// NormalizePath returns a bounded path label for Prometheus metrics.
func NormalizePath(path string) string {
	for _, prefix := range knownPrefixes {
		if path == prefix || strings.HasPrefix(path, prefix+"/") || strings.HasPrefix(path, prefix+"?") {
			return prefix
		}
	}
	return "other"
}
