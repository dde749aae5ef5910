package features

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
)

func newTestVectorizer(t *testing.T, cfg VectorizerConfig) *Vectorizer {
	t.Helper()
	v, err := NewVectorizer(cfg)
	require.NoError(t, err)
	return v
}

func TestVectorizer_FitBuildsSortedVocabulary(t *testing.T) {
	v := newTestVectorizer(t, DefaultVectorizerConfig())
	require.NoError(t, v.Fit([]string{"good movie", "bad movie"}))

	assert.Equal(t, map[string]int{
		"bad":        0,
		"bad movie":  1,
		"good":       2,
		"good movie": 3,
		"movie":      4,
	}, v.Vocabulary())
	assert.Equal(t, 5, v.Dim())
	assert.True(t, v.Fitted())

	idf := v.IDF()
	rare := math.Log(3.0/2.0) + 1
	assert.InDelta(t, rare, idf[0], 1e-12)
	assert.InDelta(t, 1.0, idf[4], 1e-12)
}

func TestVectorizer_TransformNormalisesRows(t *testing.T) {
	v := newTestVectorizer(t, DefaultVectorizerConfig())
	rows, err := v.FitTransform([]string{"good movie", "bad movie", "good good movie"})
	require.NoError(t, err)
	require.Len(t, rows, 3)

	for i, row := range rows {
		assert.InDelta(t, 1.0, floats.Norm(row.Values, 2), 1e-12, "row %d", i)
		assert.IsIncreasing(t, row.Indices, "row %d", i)
	}

	vocab := v.Vocabulary()
	assert.Equal(t, []int{vocab["good"], vocab["good movie"], vocab["movie"]}, rows[0].Indices)
}

func TestVectorizer_OutOfVocabularyRowIsZero(t *testing.T) {
	v := newTestVectorizer(t, DefaultVectorizerConfig())
	require.NoError(t, v.Fit([]string{"great product", "awful service"}))

	rows := v.Transform([]string{"completely unknown words", "", "great unknown"})
	require.Len(t, rows, 3)
	assert.Zero(t, rows[0].NNZ())
	assert.Zero(t, rows[1].NNZ())
	assert.Equal(t, 1, rows[2].NNZ())
	assert.InDelta(t, 1.0, rows[2].Values[0], 1e-12)
	assert.Zero(t, rows[0].Dot(make([]float64, v.Dim())))
}

func TestVectorizer_MaxFeaturesKeepsMostFrequent(t *testing.T) {
	v := newTestVectorizer(t, VectorizerConfig{MaxFeatures: 2, NGramMin: 1, NGramMax: 1})
	require.NoError(t, v.Fit([]string{"aa bb", "aa cc", "aa bb"}))
	assert.Equal(t, map[string]int{"aa": 0, "bb": 1}, v.Vocabulary())
}

func TestVectorizer_MaxFeaturesTiesAreLexicographic(t *testing.T) {
	v := newTestVectorizer(t, VectorizerConfig{MaxFeatures: 2, NGramMin: 1, NGramMax: 1})
	require.NoError(t, v.Fit([]string{"zz yy", "xx"}))
	assert.Equal(t, map[string]int{"xx": 0, "yy": 1}, v.Vocabulary())
}

func TestVectorizer_EmptyVocabulary(t *testing.T) {
	v := newTestVectorizer(t, DefaultVectorizerConfig())
	assert.ErrorIs(t, v.Fit(nil), ErrEmptyVocabulary)
	assert.ErrorIs(t, v.Fit([]string{"", "a b c"}), ErrEmptyVocabulary)
	assert.False(t, v.Fitted())
}

func TestVectorizer_BigramsOnly(t *testing.T) {
	v := newTestVectorizer(t, VectorizerConfig{MaxFeatures: 10, NGramMin: 2, NGramMax: 2})
	require.NoError(t, v.Fit([]string{"not good at all"}))
	assert.Equal(t, map[string]int{"at all": 0, "good at": 1, "not good": 2}, v.Vocabulary())
}

func TestVectorizerConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     VectorizerConfig
		wantErr bool
	}{
		{"default", DefaultVectorizerConfig(), false},
		{"zero features", VectorizerConfig{MaxFeatures: 0, NGramMin: 1, NGramMax: 1}, true},
		{"zero ngram", VectorizerConfig{MaxFeatures: 5, NGramMin: 0, NGramMax: 1}, true},
		{"inverted range", VectorizerConfig{MaxFeatures: 5, NGramMin: 3, NGramMax: 2}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewVectorizer(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestVectorizer_StateRoundTrip(t *testing.T) {
	corpus := []string{"love product", "hate product", "great value money", "worst purchase"}
	v := newTestVectorizer(t, DefaultVectorizerConfig())
	require.NoError(t, v.Fit(corpus))

	restored, err := VectorizerFromState(v.State())
	require.NoError(t, err)
	assert.Equal(t, v.Vocabulary(), restored.Vocabulary())
	assert.Equal(t, v.Transform(corpus), restored.Transform(corpus))
	assert.Equal(t, v.Config(), restored.Config())
}

func TestVectorizerFromState_Rejects(t *testing.T) {
	cfg := DefaultVectorizerConfig()
	tests := []struct {
		name  string
		state VectorizerState
	}{
		{"empty", VectorizerState{Config: cfg}},
		{"length mismatch", VectorizerState{Config: cfg, Terms: []string{"aa", "bb"}, IDF: []float64{1}}},
		{"unsorted", VectorizerState{Config: cfg, Terms: []string{"bb", "aa"}, IDF: []float64{1, 1}}},
		{"duplicate", VectorizerState{Config: cfg, Terms: []string{"aa", "aa"}, IDF: []float64{1, 1}}},
		{"nan idf", VectorizerState{Config: cfg, Terms: []string{"aa"}, IDF: []float64{math.NaN()}}},
		{"too many terms", VectorizerState{
			Config: VectorizerConfig{MaxFeatures: 1, NGramMin: 1, NGramMax: 1},
			Terms:  []string{"aa", "bb"},
			IDF:    []float64{1, 1},
		}},
		{"bad config", VectorizerState{Terms: []string{"aa"}, IDF: []float64{1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := VectorizerFromState(tt.state)
			assert.Error(t, err)
		})
	}
}

func TestSparseVector_Dot(t *testing.T) {
	v := SparseVector{Indices: []int{0, 2, 5}, Values: []float64{1, 2, 3}}
	assert.InDelta(t, 1*0.5+2*2, v.Dot([]float64{0.5, 9, 2}), 1e-12)
	assert.Zero(t, SparseVector{}.Dot([]float64{1, 2}))
}
