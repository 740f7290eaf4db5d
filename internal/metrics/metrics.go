// Package metrics holds the Prometheus collectors for the validation pipeline.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP request metrics
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ecohunt_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ecohunt_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	// Pipeline metrics
	SubmissionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ecohunt_submissions_total",
			Help: "Submissions written, by status",
		},
		[]string{"status"},
	)

	PointsAwarded = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ecohunt_points_awarded_total",
			Help: "Points passed to the increment procedure",
		},
	)

	IncrementFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ecohunt_increment_failures_total",
			Help: "Failed points-increment calls",
		},
	)

	AICallDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ecohunt_ai_call_duration_seconds",
			Help:    "AI gateway call latency in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
		},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(
		RequestsTotal,
		RequestDuration,
		SubmissionsTotal,
		PointsAwarded,
		IncrementFailures,
		AICallDuration,
	)
}

// Handler serves the default registry.
func Handler() http.Handler { return promhttp.Handler() }

// RecordRequest records one HTTP request.
func RecordRequest(method, status string, duration time.Duration) {
	RequestsTotal.WithLabelValues(method, status).Inc()
	RequestDuration.WithLabelValues(method).Observe(duration.Seconds())
}

// RecordAICall records one AI gateway call.
func RecordAICall(outcome string, duration time.Duration) {
	AICallDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}
