// Package metrics provides Prometheus metrics collection for the prescriptions API.
// It exports HTTP request metrics plus domain metrics for the upstream model:
//   - http_request_total: Counter with method, path, and status labels
//   - http_request_duration_seconds: Histogram with method and path labels
//   - http_request_in_flight: Gauge for concurrent requests
//   - rate_limiter_buckets_total: Gauge of tracked client buckets
//   - prescription_normalization_total: Counter with outcome label
//   - upstream_generation_duration_seconds: Histogram with provider and status labels
//
// All metrics are registered with the Prometheus default registry during
// package initialization.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HTTPRequestTotals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_request_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "path"},
	)

	HTTPRequestInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_request_in_flight",
			Help: "Current in-flight requests",
		},
	)

	RateLimiterBucketsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "rate_limiter_buckets_total",
			Help: "Total number of rate limiter buckets (clients seen since the last sweep)",
		},
	)

	NormalizationOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prescription_normalization_total",
			Help: "Chat requests by normalization outcome",
		},
		[]string{"outcome"},
	)

	UpstreamGenerationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "upstream_generation_duration_seconds",
			Help:    "Latency of text-generation calls",
			Buckets: []float64{.25, .5, 1, 2.5, 5, 10, 20, 30, 60},
		},
		[]string{"provider", "status"},
	)
)

func init() {
	prometheus.MustRegister(HTTPRequestTotals)
	prometheus.MustRegister(HTTPRequestDuration)
	prometheus.MustRegister(HTTPRequestInFlight)
	prometheus.MustRegister(RateLimiterBucketsTotal)
	prometheus.MustRegister(NormalizationOutcomes)
	prometheus.MustRegister(UpstreamGenerationDuration)
}
