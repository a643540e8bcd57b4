// Package metrics provides centralized Prometheus metrics registry for the predictor.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "taixiu"

// Global registry instance
var (
	registry *prometheus.Registry
	once     sync.Once
)

// Counter metrics
var (
	PredictionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "predictions_total",
		Help:      "Total number of predictions served, by predicted outcome",
	}, []string{"outcome"})
	PredictionFailuresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "prediction_failures_total",
		Help:      "Total number of failed prediction calls, by failure kind",
	}, []string{"kind"})
	UnrecognizedOutcomesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "unrecognized_outcomes_total",
		Help:      "Latest sessions whose result label could not be normalized",
	})
	HistoryReadFailuresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "history_read_failures_total",
		Help:      "Persisted history reads that fell back to an empty history",
	}, []string{"backend"})
	HistoryWriteFailuresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "history_write_failures_total",
		Help:      "Failed durable history writes",
	}, []string{"backend"})
	CircuitBreakerTripsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "circuit_breaker_trips_total",
		Help:      "Total number of upstream circuit breaker trips",
	})
)

// Gauge metrics
var (
	HistoryLength = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "history_length",
		Help:      "Number of outcomes in the rolling history",
	})
	EstimatorValue = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "estimator_value",
		Help:      "Latest P(next=Tai) produced by each estimator",
	}, []string{"estimator"})
	ReportCacheHitRatio = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "report_cache_hit_ratio",
		Help:      "Hit ratio of the issued report cache",
	})
	StreamClients = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "stream_clients",
		Help:      "Connected websocket stream clients",
	})
)

// Histogram metrics
var (
	PredictionConfidence = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "prediction_confidence",
		Help:      "Distribution of ensemble confidence values",
		Buckets:   prometheus.LinearBuckets(0.4, 0.05, 13),
	})
	SourceFetchDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "source_fetch_duration_seconds",
		Help:      "Duration of upstream session fetches",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15},
	}, []string{"status"})
	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "Inbound HTTP request latency",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route", "status"})
)

// InitRegistry initializes the global Prometheus registry.
func InitRegistry() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()

		registry.MustRegister(collectors.NewGoCollector())
		registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

		// Register counter metrics
		registry.MustRegister(PredictionsTotal)
		registry.MustRegister(PredictionFailuresTotal)
		registry.MustRegister(UnrecognizedOutcomesTotal)
		registry.MustRegister(HistoryReadFailuresTotal)
		registry.MustRegister(HistoryWriteFailuresTotal)
		registry.MustRegister(CircuitBreakerTripsTotal)

		// Register gauge metrics
		registry.MustRegister(HistoryLength)
		registry.MustRegister(EstimatorValue)
		registry.MustRegister(ReportCacheHitRatio)
		registry.MustRegister(StreamClients)

		// Register histogram metrics
		registry.MustRegister(PredictionConfidence)
		registry.MustRegister(SourceFetchDuration)
		registry.MustRegister(HTTPRequestDuration)
	})
	return registry
}

// GetRegistry returns the global Prometheus registry.
func GetRegistry() *prometheus.Registry {
	return InitRegistry()
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.HandlerFor(GetRegistry(), promhttp.HandlerOpts{})
}

// RecordPrediction records a served prediction.
func RecordPrediction(outcome string, confidence float64) {
	PredictionsTotal.WithLabelValues(outcome).Inc()
	PredictionConfidence.Observe(confidence)
}

// RecordPredictionFailure records a failed prediction call.
func RecordPredictionFailure(kind string) {
	PredictionFailuresTotal.WithLabelValues(kind).Inc()
}

// RecordUnrecognizedOutcome records a latest session that could not be normalized.
func RecordUnrecognizedOutcome() {
	UnrecognizedOutcomesTotal.Inc()
}

// RecordHistoryReadFailure records a recovered read failure.
func RecordHistoryReadFailure(backend string) {
	HistoryReadFailuresTotal.WithLabelValues(backend).Inc()
}

// RecordHistoryWriteFailure records a failed durable write.
func RecordHistoryWriteFailure(backend string) {
	HistoryWriteFailuresTotal.WithLabelValues(backend).Inc()
}

// RecordCircuitBreakerTrip records a circuit breaker trip event.
func RecordCircuitBreakerTrip() {
	CircuitBreakerTripsTotal.Inc()
}

// RecordSourceFetch records the duration of an upstream fetch.
func RecordSourceFetch(status string, durationSeconds float64) {
	SourceFetchDuration.WithLabelValues(status).Observe(durationSeconds)
}

// RecordHTTPRequest records inbound request latency.
func RecordHTTPRequest(route, status string, durationSeconds float64) {
	HTTPRequestDuration.WithLabelValues(route, status).Observe(durationSeconds)
}

// UpdateHistoryLength updates the history length gauge.
func UpdateHistoryLength(n int) {
	HistoryLength.Set(float64(n))
}

// UpdateEstimator updates the gauge of a single estimator.
func UpdateEstimator(name string, value float64) {
	EstimatorValue.WithLabelValues(name).Set(value)
}

// UpdateReportCacheHitRatio updates the cache hit ratio gauge.
func UpdateReportCacheHitRatio(ratio float64) {
	ReportCacheHitRatio.Set(ratio)
}

// UpdateStreamClients updates the connected stream clients gauge.
func UpdateStreamClients(n int) {
	StreamClients.Set(float64(n))
}
