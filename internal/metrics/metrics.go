// Package metrics exposes the Prometheus series named in the external
// interface surface: HTTP request counters/latency plus the three
// business-level counters the dispatcher and session controller increment.
// Grounded on the Prometheus client usage in the retrieval pack's
// DukeRupert-freyja repo — client_golang counters/histograms registered
// against a package-level registry and served via promhttp.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total HTTP requests by method, path, and status code.",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	InvoiceOperationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "invoice_operations_total",
		Help: "Invoice lifecycle operations by kind and outcome.",
	}, []string{"operation", "status"})

	BusinessOperationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "business_operations_total",
		Help: "Dispatched business intents by kind and outcome.",
	}, []string{"operation", "status"})

	VoiceSessionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "voice_sessions_total",
		Help: "Voice sessions opened, by termination reason.",
	}, []string{"reason"})
)

// Registry holds every series above, registered once at startup and served by
// the /metrics handler.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(HTTPRequestsTotal, HTTPRequestDuration, InvoiceOperationsTotal, BusinessOperationsTotal, VoiceSessionsTotal)
	return reg
}
