package metrics

import (
	"strconv"
	"time"
)

// MetricsWrapper adapts Metrics to the narrow interfaces used by the pipeline,
// the analyzer and the HTTP layer.
type MetricsWrapper struct {
	m *Metrics
}

func NewWrapper(m *Metrics) *MetricsWrapper {
	return &MetricsWrapper{m: m}
}

// Metrics returns the wrapped collectors.
func (w *MetricsWrapper) Metrics() *Metrics {
	return w.m
}

func (w *MetricsWrapper) PredictionsAdd(n int) {
	w.m.PredictionsTotal.Add(float64(n))
}

func (w *MetricsWrapper) PredictionFailuresInc() {
	w.m.PredictionFailures.Inc()
}

func (w *MetricsWrapper) PredictionLatencyObserve(seconds float64) {
	w.m.PredictionLatency.Observe(seconds)
}

func (w *MetricsWrapper) PredictionConfidenceObserve(confidence float64) {
	w.m.PredictionConfidence.Observe(confidence)
}

func (w *MetricsWrapper) TrainingObserve(seconds, accuracy float64, samples int) {
	w.m.TrainingRuns.Inc()
	w.m.TrainingDuration.Observe(seconds)
	w.m.TrainingAccuracy.Set(accuracy)
	w.m.TrainingSamples.Set(float64(samples))
}

func (w *MetricsWrapper) TrainingFailuresInc() {
	w.m.TrainingFailures.Inc()
}

func (w *MetricsWrapper) ModelStateSet(trained bool, trainedAt time.Time) {
	if trained {
		w.m.ModelTrained.Set(1)
		w.m.setTrainedAt(trainedAt)
		return
	}
	w.m.ModelTrained.Set(0)
	w.m.setTrainedAt(time.Time{})
}

func (w *MetricsWrapper) CacheHitInc() {
	w.m.CacheHits.Inc()
}

func (w *MetricsWrapper) CacheMissInc() {
	w.m.CacheMisses.Inc()
}

// RequestObserve records one HTTP request.
func (w *MetricsWrapper) RequestObserve(method, route string, status int, seconds float64) {
	w.m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	w.m.HTTPDuration.WithLabelValues(method, route).Observe(seconds)
}

func (w *MetricsWrapper) ErrorInc(code string) {
	w.m.ErrorsTotal.WithLabelValues(code).Inc()
}

func (w *MetricsWrapper) StreamOpened() {
	w.m.StreamConnections.Inc()
}

func (w *MetricsWrapper) StreamClosed() {
	w.m.StreamConnections.Dec()
}
