package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce          sync.Once
	requestsTotal         *prometheus.CounterVec
	latencySeconds        *prometheus.HistogramVec
	errorsTotal           *prometheus.CounterVec
	gradingLatencySeconds prometheus.Histogram
	submissionsGraded     prometheus.Counter
	accessChecksTotal     *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used across the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		requestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "quizdeck_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		latencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "quizdeck_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		errorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "quizdeck_errors_total",
			Help: "Total number of error responses returned by API endpoints.",
		}, []string{"method", "route", "status"})

		gradingLatencySeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "quizdeck_grading_latency_seconds",
			Help:    "Latency distribution for grading a submission against its snapshot.",
			Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1},
		})

		submissionsGraded = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "quizdeck_submissions_graded_total",
			Help: "Total number of submissions graded and stored.",
		})

		accessChecksTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "quizdeck_access_checks_total",
			Help: "Access code validation outcomes.",
		}, []string{"outcome"})

		prometheus.MustRegister(
			requestsTotal,
			latencySeconds,
			errorsTotal,
			gradingLatencySeconds,
			submissionsGraded,
			accessChecksTotal,
		)
	})
}

// Requests exposes the counter for API requests.
func Requests() *prometheus.CounterVec {
	RegisterMetrics()
	return requestsTotal
}

// Latency exposes the latency histogram for API requests.
func Latency() *prometheus.HistogramVec {
	RegisterMetrics()
	return latencySeconds
}

// Errors exposes the counter for API error responses.
func Errors() *prometheus.CounterVec {
	RegisterMetrics()
	return errorsTotal
}

// GradingLatency exposes the histogram for grading runs.
func GradingLatency() prometheus.Histogram {
	RegisterMetrics()
	return gradingLatencySeconds
}

// SubmissionsGraded exposes the counter for graded submissions.
func SubmissionsGraded() prometheus.Counter {
	RegisterMetrics()
	return submissionsGraded
}

// AccessChecks exposes the counter for access code validation outcomes.
func AccessChecks() *prometheus.CounterVec {
	RegisterMetrics()
	return accessChecksTotal
}
