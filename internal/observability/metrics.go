package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce            sync.Once
	apiRequestsTotal        *prometheus.CounterVec
	apiLatencySeconds       *prometheus.HistogramVec
	apiErrorsTotal          *prometheus.CounterVec
	sweepsTotal             *prometheus.CounterVec
	sweepDurationSeconds    prometheus.Histogram
	tasksRotatedTotal       *prometheus.CounterVec
	integrityChecksTotal    *prometheus.CounterVec
	integritySimilarity     prometheus.Histogram
	pointsAwardedTotal      *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used across the service.
func RegisterMetrics() {
	registerOnce.Do(func() {
		apiRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		apiLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "api_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		apiErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "api_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		sweepsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rotation_sweeps_total",
			Help: "Total number of rotation sweeps, by outcome.",
		}, []string{"outcome"})

		sweepDurationSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "rotation_sweep_duration_seconds",
			Help:    "Duration of rotation sweeps.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0},
		})

		tasksRotatedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tasks_rotated_total",
			Help: "Total number of tasks retired, by rotation reason.",
		}, []string{"reason"})

		integrityChecksTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "integrity_checks_total",
			Help: "Total number of plagiarism checks, by risk level.",
		}, []string{"risk"})

		integritySimilarity = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "integrity_similarity",
			Help:    "Distribution of best-match similarity across checks.",
			Buckets: []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0},
		})

		pointsAwardedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "points_awarded_total",
			Help: "Total points awarded, by skill area.",
		}, []string{"skill"})

		prometheus.MustRegister(
			apiRequestsTotal,
			apiLatencySeconds,
			apiErrorsTotal,
			sweepsTotal,
			sweepDurationSeconds,
			tasksRotatedTotal,
			integrityChecksTotal,
			integritySimilarity,
			pointsAwardedTotal,
		)
	})
}

// APIRequests exposes the counter for API requests.
func APIRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return apiRequestsTotal
}

// APILatency exposes the latency histogram for API requests.
func APILatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return apiLatencySeconds
}

// APIErrors exposes the counter for API error responses.
func APIErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return apiErrorsTotal
}

// Sweeps exposes the counter for rotation sweep outcomes.
func Sweeps() *prometheus.CounterVec {
	RegisterMetrics()
	return sweepsTotal
}

// SweepDuration exposes the rotation sweep duration histogram.
func SweepDuration() prometheus.Histogram {
	RegisterMetrics()
	return sweepDurationSeconds
}

// TasksRotated exposes the counter for retired tasks.
func TasksRotated() *prometheus.CounterVec {
	RegisterMetrics()
	return tasksRotatedTotal
}

// IntegrityChecks exposes the counter for plagiarism checks.
func IntegrityChecks() *prometheus.CounterVec {
	RegisterMetrics()
	return integrityChecksTotal
}

// IntegritySimilarity exposes the similarity distribution histogram.
func IntegritySimilarity() prometheus.Histogram {
	RegisterMetrics()
	return integritySimilarity
}

// PointsAwarded exposes the counter for awarded points.
func PointsAwarded() *prometheus.CounterVec {
	RegisterMetrics()
	return pointsAwardedTotal
}
