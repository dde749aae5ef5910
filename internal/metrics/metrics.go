// Package metrics provides Prometheus metrics collection for the sentiment service.
// It defines the prediction, training, cache and HTTP metrics exposed via the
// /metrics endpoint for monitoring and alerting.
package metrics

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the sentiment service.
type Metrics struct {
	// Prediction metrics
	PredictionsTotal     prometheus.Counter   // Total number of texts classified
	PredictionFailures   prometheus.Counter   // Predictions rejected because no model is loaded
	PredictionLatency    prometheus.Histogram // Latency of one vectorised prediction pass
	PredictionConfidence prometheus.Histogram // Distribution of prediction confidences

	// Training metrics
	TrainingRuns     prometheus.Counter   // Successful training runs
	TrainingFailures prometheus.Counter   // Rejected or failed training runs
	TrainingDuration prometheus.Histogram // Training wall time in seconds
	TrainingAccuracy prometheus.Gauge     // Training-set accuracy of the current model
	TrainingSamples  prometheus.Gauge     // Sample count of the current model

	// Model state
	ModelTrained prometheus.Gauge     // 1 when a model is loaded
	ModelAge     prometheus.GaugeFunc // Seconds since the current model was trained

	// Prediction cache
	CacheHits   prometheus.Counter
	CacheMisses prometheus.Counter

	// HTTP and stream metrics
	HTTPRequests      *prometheus.CounterVec   // Requests by method, route and status
	HTTPDuration      *prometheus.HistogramVec // Request latency by method and route
	StreamConnections prometheus.Gauge         // Open websocket prediction streams

	// System metrics
	ErrorsTotal *prometheus.CounterVec // Errors returned to clients by error code

	gatherer  prometheus.Gatherer
	trainedAt atomic.Int64
}

// New creates and registers all Prometheus metrics using the default registry.
// This is the standard way to create metrics for production use.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates metrics with a custom registry (useful for testing).
// When the registerer is also a Gatherer (a *prometheus.Registry) Handler
// exposes it; otherwise Handler exposes the default gatherer.
func NewWithRegistry(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)

	m := &Metrics{gatherer: prometheus.DefaultGatherer}
	if g, ok := registerer.(prometheus.Gatherer); ok {
		m.gatherer = g
	}

	m.PredictionsTotal = factory.NewCounter(prometheus.CounterOpts{
		Name: "sentiment_predictions_total",
		Help: "Total number of texts classified",
	})
	m.PredictionFailures = factory.NewCounter(prometheus.CounterOpts{
		Name: "sentiment_prediction_failures_total",
		Help: "Total number of predictions rejected because no model is loaded",
	})
	m.PredictionLatency = factory.NewHistogram(prometheus.HistogramOpts{
		Name:    "sentiment_prediction_latency_seconds",
		Help:    "Latency of one vectorised prediction pass in seconds",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
	})
	m.PredictionConfidence = factory.NewHistogram(prometheus.HistogramOpts{
		Name:    "sentiment_prediction_confidence",
		Help:    "Distribution of prediction confidence scores",
		Buckets: prometheus.LinearBuckets(0.5, 0.05, 11),
	})
	m.TrainingRuns = factory.NewCounter(prometheus.CounterOpts{
		Name: "sentiment_training_runs_total",
		Help: "Total number of successful training runs",
	})
	m.TrainingFailures = factory.NewCounter(prometheus.CounterOpts{
		Name: "sentiment_training_failures_total",
		Help: "Total number of rejected or failed training runs",
	})
	m.TrainingDuration = factory.NewHistogram(prometheus.HistogramOpts{
		Name:    "sentiment_training_duration_seconds",
		Help:    "Duration of training runs in seconds",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 15),
	})
	m.TrainingAccuracy = factory.NewGauge(prometheus.GaugeOpts{
		Name: "sentiment_training_accuracy",
		Help: "Training-set accuracy of the current model",
	})
	m.TrainingSamples = factory.NewGauge(prometheus.GaugeOpts{
		Name: "sentiment_training_samples",
		Help: "Number of samples the current model was trained on",
	})
	m.ModelTrained = factory.NewGauge(prometheus.GaugeOpts{
		Name: "sentiment_model_trained",
		Help: "1 when a trained model is loaded, 0 otherwise",
	})
	m.ModelAge = factory.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "sentiment_model_age_seconds",
		Help: "Seconds since the current model was trained, 0 when untrained",
	}, m.modelAgeSeconds)
	m.CacheHits = factory.NewCounter(prometheus.CounterOpts{
		Name: "sentiment_cache_hits_total",
		Help: "Total number of prediction cache hits",
	})
	m.CacheMisses = factory.NewCounter(prometheus.CounterOpts{
		Name: "sentiment_cache_misses_total",
		Help: "Total number of prediction cache misses",
	})
	m.HTTPRequests = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "sentiment_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "route", "status"})
	m.HTTPDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sentiment_http_request_duration_seconds",
		Help:    "HTTP request latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})
	m.StreamConnections = factory.NewGauge(prometheus.GaugeOpts{
		Name: "sentiment_stream_connections",
		Help: "Number of open websocket prediction streams",
	})
	m.ErrorsTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "sentiment_errors_total",
		Help: "Total number of errors returned to clients",
	}, []string{"code"})

	return m
}

// Handler serves the metrics in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func (m *Metrics) setTrainedAt(t time.Time) {
	if t.IsZero() {
		m.trainedAt.Store(0)
		return
	}
	m.trainedAt.Store(t.UnixNano())
}

func (m *Metrics) modelAgeSeconds() float64 {
	ts := m.trainedAt.Load()
	if ts == 0 {
		return 0
	}
	return time.Since(time.Unix(0, ts)).Seconds()
}
