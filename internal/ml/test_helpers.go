package ml

import (
	"sync"
	"time"
)

// MockMetrics implements MetricsInterface for testing
type MockMetrics struct {
	mu               sync.Mutex
	predictions      int
	failures         int
	latencySum       float64
	confidences      []float64
	trainings        int
	trainingFailures int
	lastAccuracy     float64
	lastSamples      int
	trained          bool
	trainedAt        time.Time
}

func (m *MockMetrics) PredictionsAdd(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.predictions += n
}

func (m *MockMetrics) PredictionFailuresInc() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures++
}

func (m *MockMetrics) PredictionLatencyObserve(v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.latencySum += v
}

func (m *MockMetrics) PredictionConfidenceObserve(v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.confidences = append(m.confidences, v)
}

func (m *MockMetrics) TrainingObserve(_ float64, accuracy float64, samples int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trainings++
	m.lastAccuracy = accuracy
	m.lastSamples = samples
}

func (m *MockMetrics) TrainingFailuresInc() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trainingFailures++
}

func (m *MockMetrics) ModelStateSet(trained bool, trainedAt time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trained = trained
	m.trainedAt = trainedAt
}
