package ml

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPipeline_SaveLoadRoundTrip(t *testing.T) {
	p := trainedPipeline(t)
	path := filepath.Join(t.TempDir(), "nested", "sentiment.model")
	require.NoError(t, p.Save(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, artifactMagic, string(data[:len(artifactMagic)]))

	metrics := &MockMetrics{}
	restored := newTestPipeline(t, metrics)
	require.NoError(t, restored.Load(path))
	assert.True(t, restored.Trained())
	assert.True(t, metrics.trained)

	inputs := append([]string{"I love this", "terrible product", "", "zzz unknown"}, scenarioTexts...)
	want, err := p.PredictBatch(inputs)
	require.NoError(t, err)
	got, err := restored.PredictBatch(inputs)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	original, loaded := p.Info(), restored.Info()
	assert.Equal(t, *original.TrainingAccuracy, *loaded.TrainingAccuracy)
	assert.Equal(t, original.VocabularySize, loaded.VocabularySize)
	assert.Equal(t, original.TrainingSamples, loaded.TrainingSamples)
	assert.True(t, original.TrainedAt.Equal(*loaded.TrainedAt))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files must not be left behind")
}

func TestPipeline_LoadReplacesState(t *testing.T) {
	first := trainedPipeline(t)
	path := filepath.Join(t.TempDir(), "model.bin")
	require.NoError(t, first.Save(path))

	other := newTestPipeline(t, nil)
	_, err := other.Train([]string{"sunny day", "rainy day"}, []string{"positive", "negative"})
	require.NoError(t, err)
	gen := other.Generation()

	require.NoError(t, other.Load(path))
	assert.Greater(t, other.Generation(), gen)
	assert.Equal(t, first.Info().VocabularySize, other.Info().VocabularySize)
}

func TestPipeline_LoadKeepsArtifactLabelPolicy(t *testing.T) {
	cfg := DefaultPipelineConfig()
	cfg.LabelPolicy = LabelPolicyStrict
	strict, err := NewPipeline(cfg, nil)
	require.NoError(t, err)
	_, err = strict.Train(scenarioTexts, scenarioLabels)
	require.NoError(t, err)
	assert.Equal(t, "strict", strict.Info().LabelPolicy)

	path := filepath.Join(t.TempDir(), "strict.model")
	require.NoError(t, strict.Save(path))

	lenient := newTestPipeline(t, nil)
	require.NoError(t, lenient.Load(path))
	assert.Equal(t, "strict", lenient.Info().LabelPolicy)

	// retraining follows the configured policy
	_, err = lenient.Train(scenarioTexts, scenarioLabels)
	require.NoError(t, err)
	assert.Equal(t, "lenient", lenient.Info().LabelPolicy)
}

func TestPipeline_LoadUnknownLabelPolicy(t *testing.T) {
	s := snapshotOf(trainedPipeline(t).current())
	s.LabelPolicy = "fuzzy"
	data, err := encodeSnapshot(s)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "fuzzy.model")
	require.NoError(t, os.WriteFile(path, data, 0o600))

	p := newTestPipeline(t, nil)
	assert.ErrorIs(t, p.Load(path), ErrDeserialization)
	assert.False(t, p.Trained())
}

func TestPipeline_LoadMissingFile(t *testing.T) {
	p := newTestPipeline(t, nil)
	err := p.Load(filepath.Join(t.TempDir(), "missing.model"))
	assert.ErrorIs(t, err, fs.ErrNotExist)
	assert.NotErrorIs(t, err, ErrDeserialization)
	assert.False(t, p.Trained())
}

func TestPipeline_LoadCorruptArtifacts(t *testing.T) {
	good := trainedPipeline(t)
	dir := t.TempDir()
	goodPath := filepath.Join(dir, "good.model")
	require.NoError(t, good.Save(goodPath))
	valid, err := os.ReadFile(goodPath)
	require.NoError(t, err)

	truncated := append([]byte(nil), valid[:len(valid)/2]...)
	wrongFormat := append([]byte(nil), valid...)
	wrongFormat[len(artifactMagic)] = 99

	encodedUntrained, err := encodeSnapshot(snapshot{ModelType: ModelType})
	require.NoError(t, err)
	encodedWrongType, err := encodeSnapshot(snapshot{ModelType: "Naive Bayes", Trained: true})
	require.NoError(t, err)

	mismatched := snapshotOf(good.current())
	mismatched.Classifier.Weights = mismatched.Classifier.Weights[:1]
	encodedMismatch, err := encodeSnapshot(mismatched)
	require.NoError(t, err)

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"plain text", []byte("hello world")},
		{"bad magic", append([]byte("XXXXXXX"), valid[len(artifactMagic):]...)},
		{"wrong format", wrongFormat},
		{"truncated", truncated},
		{"bad payload", append([]byte(artifactMagic), artifactFormat, 1, 2, 3)},
		{"untrained", encodedUntrained},
		{"wrong model type", encodedWrongType},
		{"dimension mismatch", encodedMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, "corrupt.model")
			require.NoError(t, os.WriteFile(path, tt.data, 0o600))

			p := trainedPipeline(t)
			before := p.Generation()
			err := p.Load(path)
			assert.ErrorIs(t, err, ErrDeserialization)
			assert.True(t, p.Trained(), "failed load must keep the previous model")
			assert.Equal(t, before, p.Generation())
		})
	}
}

func TestWriteFileAtomic_Overwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "artifact")
	require.NoError(t, writeFileAtomic(path, []byte("one")))
	require.NoError(t, writeFileAtomic(path, []byte("two")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "two", string(data))
}
