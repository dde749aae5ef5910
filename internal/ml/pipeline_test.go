package ml

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	scenarioTexts = []string{
		"I love this product", "This is terrible", "Amazing quality", "Worst purchase ever",
		"Great value", "Awful experience", "Best ever", "Really bad", "So happy", "Very sad",
	}
	scenarioLabels = []string{
		"positive", "negative", "positive", "negative", "positive",
		"negative", "positive", "negative", "positive", "negative",
	}
)

func newTestPipeline(t *testing.T, metrics MetricsInterface) *Pipeline {
	t.Helper()
	p, err := NewPipeline(DefaultPipelineConfig(), metrics)
	require.NoError(t, err)
	return p
}

func trainedPipeline(t *testing.T) *Pipeline {
	t.Helper()
	p := newTestPipeline(t, nil)
	_, err := p.Train(scenarioTexts, scenarioLabels)
	require.NoError(t, err)
	return p
}

func TestPipeline_TrainAndPredictScenario(t *testing.T) {
	metrics := &MockMetrics{}
	p := newTestPipeline(t, metrics)

	accuracy, err := p.Train(scenarioTexts, scenarioLabels)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, accuracy, 0.0)
	assert.LessOrEqual(t, accuracy, 1.0)
	assert.True(t, p.Trained())
	assert.Equal(t, StatusTrained, p.Info().Status)

	pred, err := p.Predict("I love this")
	require.NoError(t, err)
	assert.Equal(t, SentimentPositive, pred.Sentiment)
	assert.Greater(t, pred.Confidence, 0.5)
	assert.LessOrEqual(t, pred.Confidence, 1.0)

	assert.Equal(t, 1, metrics.trainings)
	assert.Equal(t, 10, metrics.lastSamples)
	assert.True(t, metrics.trained)
	assert.Equal(t, 1, metrics.predictions)
}

func TestPipeline_UntrainedFails(t *testing.T) {
	metrics := &MockMetrics{}
	p := newTestPipeline(t, metrics)

	_, err := p.Predict("anything")
	assert.ErrorIs(t, err, ErrNotTrained)

	_, err = p.PredictBatch([]string{"a", "b"})
	assert.ErrorIs(t, err, ErrNotTrained)

	_, err = p.Evaluate([]string{"good"}, []string{"positive"})
	assert.ErrorIs(t, err, ErrNotTrained)

	assert.ErrorIs(t, p.Save(t.TempDir()+"/model.bin"), ErrNotTrained)

	info := p.Info()
	assert.Equal(t, ModelType, info.ModelType)
	assert.Equal(t, StatusUntrained, info.Status)
	assert.Nil(t, info.TrainingAccuracy)
	assert.Equal(t, 2, metrics.failures)
	assert.False(t, p.Trained())
}

func TestPipeline_PredictBatchOrderAndEmpty(t *testing.T) {
	p := trainedPipeline(t)

	empty, err := p.PredictBatch([]string{})
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	texts := []string{"Amazing quality", "Really bad", "So happy", "Very sad", "unseen words only"}
	batch, err := p.PredictBatch(texts)
	require.NoError(t, err)
	require.Len(t, batch, len(texts))

	for i, text := range texts {
		single, err := p.Predict(text)
		require.NoError(t, err)
		assert.Equal(t, single, batch[i], "index %d", i)
		assert.GreaterOrEqual(t, batch[i].Confidence, 0.5)
	}
}

func TestPipeline_EvaluateOnTrainingSetMatchesTrainingAccuracy(t *testing.T) {
	p := newTestPipeline(t, nil)
	accuracy, err := p.Train(scenarioTexts, scenarioLabels)
	require.NoError(t, err)

	eval, err := p.Evaluate(scenarioTexts, scenarioLabels)
	require.NoError(t, err)
	assert.Equal(t, accuracy, eval.Accuracy)
	assert.Equal(t, len(scenarioTexts), eval.Samples)

	disjoint, err := p.Evaluate([]string{"love it", "hate it", "bad product"}, []string{"positive", "negative", "negative"})
	require.NoError(t, err)
	for _, v := range []float64{disjoint.Accuracy, disjoint.Precision, disjoint.Recall, disjoint.F1Score} {
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 1.0)
	}
}

func TestPipeline_EvaluateValidation(t *testing.T) {
	p := trainedPipeline(t)

	_, err := p.Evaluate(nil, nil)
	assert.ErrorIs(t, err, ErrTrainingData)

	_, err = p.Evaluate([]string{"a"}, []string{"positive", "negative"})
	assert.ErrorIs(t, err, ErrTrainingData)
}

func TestPipeline_TrainFailuresKeepPreviousModel(t *testing.T) {
	metrics := &MockMetrics{}
	p := newTestPipeline(t, metrics)
	_, err := p.Train(scenarioTexts, scenarioLabels)
	require.NoError(t, err)

	before, err := p.PredictBatch(scenarioTexts)
	require.NoError(t, err)
	gen := p.Generation()

	tests := []struct {
		name   string
		texts  []string
		labels []string
	}{
		{"empty", nil, nil},
		{"length mismatch", []string{"good", "bad"}, []string{"positive"}},
		{"single class", []string{"good stuff", "nice stuff"}, []string{"positive", "positive"}},
		{"empty vocabulary", []string{"a", "b"}, []string{"positive", "negative"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.Train(tt.texts, tt.labels)
			assert.ErrorIs(t, err, ErrTrainingData)

			after, err := p.PredictBatch(scenarioTexts)
			require.NoError(t, err)
			assert.Equal(t, before, after)
			assert.Equal(t, gen, p.Generation())
		})
	}
	assert.Equal(t, len(tests), metrics.trainingFailures)
}

func TestPipeline_StrictLabelPolicy(t *testing.T) {
	cfg := DefaultPipelineConfig()
	cfg.LabelPolicy = LabelPolicyStrict
	p, err := NewPipeline(cfg, nil)
	require.NoError(t, err)

	labels := append([]string(nil), scenarioLabels...)
	labels[3] = "neutral"
	_, err = p.Train(scenarioTexts, labels)
	assert.ErrorIs(t, err, ErrTrainingData)
	assert.False(t, p.Trained())

	lenient := newTestPipeline(t, nil)
	_, err = lenient.Train(scenarioTexts, labels)
	assert.NoError(t, err)
}

func TestPipeline_RetrainReplacesModel(t *testing.T) {
	p := trainedPipeline(t)
	gen := p.Generation()
	vocabBefore := p.Info().VocabularySize

	_, err := p.Train([]string{"sunny day", "rainy day"}, []string{"positive", "negative"})
	require.NoError(t, err)

	assert.Greater(t, p.Generation(), gen)
	info := p.Info()
	assert.NotEqual(t, vocabBefore, info.VocabularySize)
	assert.Equal(t, 2, info.TrainingSamples)
}

func TestPipeline_Reset(t *testing.T) {
	metrics := &MockMetrics{}
	p := newTestPipeline(t, metrics)
	_, err := p.Train(scenarioTexts, scenarioLabels)
	require.NoError(t, err)

	p.Reset()
	assert.False(t, p.Trained())
	assert.False(t, metrics.trained)
	_, err = p.Predict("love")
	assert.ErrorIs(t, err, ErrNotTrained)
}

func TestPipeline_InfoWhenTrained(t *testing.T) {
	p := trainedPipeline(t)
	info := p.Info()

	require.NotNil(t, info.TrainingAccuracy)
	require.NotNil(t, info.TrainedAt)
	assert.Equal(t, ModelType, info.ModelType)
	assert.Equal(t, 10, info.TrainingSamples)
	assert.Positive(t, info.VocabularySize)
	assert.Equal(t, round4(*info.TrainingAccuracy), *info.TrainingAccuracy)
}

func TestNewPipeline_InvalidConfig(t *testing.T) {
	cfg := DefaultPipelineConfig()
	cfg.Vectorizer.MaxFeatures = 0
	_, err := NewPipeline(cfg, nil)
	assert.Error(t, err)

	cfg = DefaultPipelineConfig()
	cfg.LabelPolicy = "random"
	_, err = NewPipeline(cfg, nil)
	assert.Error(t, err)
}

func TestPipeline_ConcurrentTrainAndPredict(t *testing.T) {
	p := trainedPipeline(t)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := p.Train(scenarioTexts, scenarioLabels)
			assert.NoError(t, err)
		}()
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				pred, err := p.Predict(fmt.Sprintf("love quality %d", i*j))
				assert.NoError(t, err)
				assert.Contains(t, []string{SentimentPositive, SentimentNegative}, pred.Sentiment)
			}
		}(i)
	}
	wg.Wait()
	assert.True(t, p.Trained())
}
