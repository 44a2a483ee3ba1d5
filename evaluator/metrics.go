package evaluator

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Evaluation metrics
	evaluationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "design_grader_evaluations_total",
			Help: "Total number of design evaluations",
		},
		[]string{"mode", "status", "model"},
	)

	evaluationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "design_grader_evaluation_duration_seconds",
			Help:    "Duration of design evaluations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"mode", "model"},
	)

	// Sample metrics
	samplesRequested = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "design_grader_samples_requested",
			Help:    "Number of independent samples requested per evaluation",
			Buckets: []float64{1, 2, 3, 5, 10, 20},
		},
		[]string{"mode"},
	)

	samplesReturned = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "design_grader_samples_returned_total",
			Help: "Total number of evaluation samples returned",
		},
		[]string{"mode"},
	)

	// Error metrics
	errorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "design_grader_errors_total",
			Help: "Total number of errors by type",
		},
		[]string{"error_type"},
	)

	// Circuit breaker metrics
	circuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "design_grader_circuit_breaker_state",
			Help: "Current state of circuit breaker (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	circuitBreakerTrips = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "design_grader_circuit_breaker_trips_total",
			Help: "Total number of circuit breaker trips",
		},
		[]string{"name"},
	)

	// Retry metrics
	retryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "design_grader_retry_total",
			Help: "Total number of retries by reason",
		},
		[]string{"reason"},
	)

	// Result distributions
	scoreDistribution = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "design_grader_score_distribution",
			Help:    "Distribution of absolute scores (1-10)",
			Buckets: []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10},
		},
	)

	preferenceOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "design_grader_preference_outcomes_total",
			Help: "Total number of relative evaluation outcomes by preference",
		},
		[]string{"preference"},
	)

	// Concurrent processing metrics
	concurrentEvaluations = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "design_grader_concurrent_evaluations",
			Help: "Number of evaluations currently in flight",
		},
	)
)

// MetricsRecorder provides methods to record metrics
type MetricsRecorder struct {
	enabled bool
}

// NewMetricsRecorder creates a new metrics recorder
func NewMetricsRecorder(enabled bool) *MetricsRecorder {
	return &MetricsRecorder{enabled: enabled}
}

// RecordEvaluation records a completed evaluation
func (m *MetricsRecorder) RecordEvaluation(mode, status, model string) {
	if !m.enabled {
		return
	}
	evaluationsTotal.WithLabelValues(mode, status, model).Inc()
}

// RecordEvaluationDuration records evaluation duration
func (m *MetricsRecorder) RecordEvaluationDuration(mode, model string, seconds float64) {
	if !m.enabled {
		return
	}
	evaluationDuration.WithLabelValues(mode, model).Observe(seconds)
}

// RecordSamplesRequested records how many samples an evaluation asked for
func (m *MetricsRecorder) RecordSamplesRequested(mode string, count int) {
	if !m.enabled {
		return
	}
	samplesRequested.WithLabelValues(mode).Observe(float64(count))
}

// RecordSamplesReturned records how many samples an evaluation produced
func (m *MetricsRecorder) RecordSamplesReturned(mode string, count int) {
	if !m.enabled {
		return
	}
	samplesReturned.WithLabelValues(mode).Add(float64(count))
}

// RecordError records an error
func (m *MetricsRecorder) RecordError(errorType string) {
	if !m.enabled {
		return
	}
	errorsTotal.WithLabelValues(errorType).Inc()
}

// RecordCircuitBreakerState records circuit breaker state
func (m *MetricsRecorder) RecordCircuitBreakerState(name string, state int) {
	if !m.enabled {
		return
	}
	circuitBreakerState.WithLabelValues(name).Set(float64(state))
}

// RecordCircuitBreakerTrip records a circuit breaker trip
func (m *MetricsRecorder) RecordCircuitBreakerTrip(name string) {
	if !m.enabled {
		return
	}
	circuitBreakerTrips.WithLabelValues(name).Inc()
}

// RecordRetry records a retry
func (m *MetricsRecorder) RecordRetry(reason string) {
	if !m.enabled {
		return
	}
	retryTotal.WithLabelValues(reason).Inc()
}

// RecordScore records an absolute score
func (m *MetricsRecorder) RecordScore(score int) {
	if !m.enabled {
		return
	}
	scoreDistribution.Observe(float64(score))
}

// RecordPreference records a relative evaluation outcome
func (m *MetricsRecorder) RecordPreference(preference Preference) {
	if !m.enabled {
		return
	}
	preferenceOutcomes.WithLabelValues(string(preference)).Inc()
}

// RecordConcurrentEvaluations updates the in-flight evaluation count
func (m *MetricsRecorder) RecordConcurrentEvaluations(delta float64) {
	if !m.enabled {
		return
	}
	concurrentEvaluations.Add(delta)
}

// GetMetricsHandler returns an HTTP handler for Prometheus metrics
func GetMetricsHandler() http.Handler {
	return promhttp.Handler()
}

// RegisterCustomMetrics allows registration of custom metrics
func RegisterCustomMetrics(collector prometheus.Collector) error {
	return prometheus.Register(collector)
}
