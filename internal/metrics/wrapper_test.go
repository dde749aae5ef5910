package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func newTestWrapper(t *testing.T) (*Metrics, *MetricsWrapper) {
	t.Helper()
	metrics := NewWithRegistry(prometheus.NewRegistry())
	return metrics, NewWrapper(metrics)
}

func TestNewWrapper(t *testing.T) {
	metrics, wrapper := newTestWrapper(t)

	if wrapper == nil {
		t.Fatal("NewWrapper returned nil")
	}
	if wrapper.Metrics() != metrics {
		t.Error("Wrapper does not contain correct metrics instance")
	}
}

func TestMetricsWrapper_PredictionMethods(t *testing.T) {
	metrics, wrapper := newTestWrapper(t)

	wrapper.PredictionsAdd(3)
	wrapper.PredictionsAdd(2)
	if got := testutil.ToFloat64(metrics.PredictionsTotal); got != 5 {
		t.Errorf("Expected 5 predictions, got %f", got)
	}

	wrapper.PredictionFailuresInc()
	if got := testutil.ToFloat64(metrics.PredictionFailures); got != 1 {
		t.Errorf("Expected 1 prediction failure, got %f", got)
	}

	wrapper.PredictionLatencyObserve(0.002)
	wrapper.PredictionConfidenceObserve(0.91)
	wrapper.PredictionConfidenceObserve(0.55)
	if got := testutil.CollectAndCount(metrics.PredictionConfidence); got != 1 {
		t.Errorf("Expected one confidence histogram series, got %d", got)
	}
}

func TestMetricsWrapper_TrainingObserve(t *testing.T) {
	metrics, wrapper := newTestWrapper(t)

	wrapper.TrainingObserve(1.5, 0.875, 120)
	if got := testutil.ToFloat64(metrics.TrainingRuns); got != 1 {
		t.Errorf("Expected 1 training run, got %f", got)
	}
	if got := testutil.ToFloat64(metrics.TrainingAccuracy); got != 0.875 {
		t.Errorf("Expected accuracy 0.875, got %f", got)
	}
	if got := testutil.ToFloat64(metrics.TrainingSamples); got != 120 {
		t.Errorf("Expected 120 samples, got %f", got)
	}

	wrapper.TrainingFailuresInc()
	if got := testutil.ToFloat64(metrics.TrainingFailures); got != 1 {
		t.Errorf("Expected 1 training failure, got %f", got)
	}
}

func TestMetricsWrapper_ModelState(t *testing.T) {
	metrics, wrapper := newTestWrapper(t)

	if got := testutil.ToFloat64(metrics.ModelAge); got != 0 {
		t.Errorf("Expected model age 0 before training, got %f", got)
	}

	wrapper.ModelStateSet(true, time.Now().Add(-time.Hour))
	if got := testutil.ToFloat64(metrics.ModelTrained); got != 1 {
		t.Errorf("Expected model trained gauge 1, got %f", got)
	}
	if age := testutil.ToFloat64(metrics.ModelAge); age < 3599 || age > 3700 {
		t.Errorf("Expected model age around 3600s, got %f", age)
	}

	wrapper.ModelStateSet(false, time.Time{})
	if got := testutil.ToFloat64(metrics.ModelTrained); got != 0 {
		t.Errorf("Expected model trained gauge 0, got %f", got)
	}
	if got := testutil.ToFloat64(metrics.ModelAge); got != 0 {
		t.Errorf("Expected model age 0 after reset, got %f", got)
	}
}

func TestMetricsWrapper_CacheAndErrors(t *testing.T) {
	metrics, wrapper := newTestWrapper(t)

	wrapper.CacheHitInc()
	wrapper.CacheHitInc()
	wrapper.CacheMissInc()
	if got := testutil.ToFloat64(metrics.CacheHits); got != 2 {
		t.Errorf("Expected 2 cache hits, got %f", got)
	}
	if got := testutil.ToFloat64(metrics.CacheMisses); got != 1 {
		t.Errorf("Expected 1 cache miss, got %f", got)
	}

	wrapper.ErrorInc("MODEL_NOT_TRAINED")
	wrapper.ErrorInc("MODEL_NOT_TRAINED")
	if got := testutil.ToFloat64(metrics.ErrorsTotal.WithLabelValues("MODEL_NOT_TRAINED")); got != 2 {
		t.Errorf("Expected 2 MODEL_NOT_TRAINED errors, got %f", got)
	}
}

func TestMetricsWrapper_RequestObserve(t *testing.T) {
	metrics, wrapper := newTestWrapper(t)

	wrapper.RequestObserve("POST", "/predict", 200, 0.01)
	wrapper.RequestObserve("POST", "/predict", 200, 0.02)
	wrapper.RequestObserve("POST", "/predict", 503, 0.001)

	if got := testutil.ToFloat64(metrics.HTTPRequests.WithLabelValues("POST", "/predict", "200")); got != 2 {
		t.Errorf("Expected 2 successful requests, got %f", got)
	}
	if got := testutil.ToFloat64(metrics.HTTPRequests.WithLabelValues("POST", "/predict", "503")); got != 1 {
		t.Errorf("Expected 1 unavailable request, got %f", got)
	}
}

func TestMetricsWrapper_StreamConnections(t *testing.T) {
	metrics, wrapper := newTestWrapper(t)

	wrapper.StreamOpened()
	wrapper.StreamOpened()
	wrapper.StreamClosed()
	if got := testutil.ToFloat64(metrics.StreamConnections); got != 1 {
		t.Errorf("Expected 1 open stream, got %f", got)
	}
}

func TestMetrics_Handler(t *testing.T) {
	metrics, wrapper := newTestWrapper(t)
	wrapper.PredictionsAdd(7)

	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	if err != nil {
		t.Fatal(err)
	}
	if rec.Code != 200 {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}
	if !strings.Contains(string(body), "sentiment_predictions_total 7") {
		t.Errorf("Expected exposition to contain predictions counter, got:\n%s", body)
	}
}

func TestMetricsWrapper_ConcurrentAccess(t *testing.T) {
	metrics, wrapper := newTestWrapper(t)

	done := make(chan bool, 10)
	for i := 0; i < 10; i++ {
		go func() {
			for j := 0; j < 100; j++ {
				wrapper.PredictionsAdd(1)
				wrapper.PredictionLatencyObserve(0.01)
				wrapper.CacheMissInc()
			}
			done <- true
		}()
	}

	for i := 0; i < 10; i++ {
		<-done
	}

	expected := 1000.0
	if got := testutil.ToFloat64(metrics.PredictionsTotal); got != expected {
		t.Errorf("Expected %f predictions after concurrent access, got %f", expected, got)
	}
	if got := testutil.ToFloat64(metrics.CacheMisses); got != expected {
		t.Errorf("Expected %f cache misses after concurrent access, got %f", expected, got)
	}
}

func TestMetricsWrapper_NilGuard(t *testing.T) {
	wrapper := &MetricsWrapper{m: nil}

	// NewWrapper never produces a nil Metrics; direct construction panics
	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected panic when accessing nil metrics")
		}
	}()

	wrapper.PredictionsAdd(1)
}

func BenchmarkMetricsWrapper_PredictionsAdd(b *testing.B) {
	wrapper := NewWrapper(NewWithRegistry(prometheus.NewRegistry()))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		wrapper.PredictionsAdd(1)
	}
}

func BenchmarkMetricsWrapper_RequestObserve(b *testing.B) {
	wrapper := NewWrapper(NewWithRegistry(prometheus.NewRegistry()))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		wrapper.RequestObserve("POST", "/predict", 200, 0.01)
	}
}
