package ml

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapLabels_Lenient(t *testing.T) {
	y, err := MapLabels([]string{"positive", " POSITIVE ", "Negative", "neutral", ""}, LabelPolicyLenient)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 1, 0, 0, 0}, y)
}

func TestMapLabels_Strict(t *testing.T) {
	y, err := MapLabels([]string{"Positive", "negative"}, LabelPolicyStrict)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 0}, y)

	_, err = MapLabels([]string{"positive", "meh"}, LabelPolicyStrict)
	assert.ErrorIs(t, err, ErrTrainingData)
	assert.Contains(t, err.Error(), "meh")
}

func TestParseLabelPolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    LabelPolicy
		wantErr bool
	}{
		{"", LabelPolicyLenient, false},
		{"lenient", LabelPolicyLenient, false},
		{" Strict ", LabelPolicyStrict, false},
		{"fuzzy", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLabelPolicy(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestScore(t *testing.T) {
	truth := []int{1, 1, 1, 0, 0, 0}
	pred := []int{1, 1, 0, 1, 0, 0}
	e := Score(truth, pred)

	assert.Equal(t, ConfusionMatrix{TruePositive: 2, FalsePositive: 1, TrueNegative: 2, FalseNegative: 1}, e.Confusion)
	assert.InDelta(t, 4.0/6.0, e.Accuracy, 1e-12)
	assert.InDelta(t, 2.0/3.0, e.Precision, 1e-12)
	assert.InDelta(t, 2.0/3.0, e.Recall, 1e-12)
	assert.InDelta(t, 2.0/3.0, e.F1Score, 1e-12)
	assert.Equal(t, 6, e.Samples)
}

func TestScore_ZeroDenominators(t *testing.T) {
	e := Score([]int{0, 0}, []int{0, 0})
	assert.Equal(t, 1.0, e.Accuracy)
	assert.Zero(t, e.Precision)
	assert.Zero(t, e.Recall)
	assert.Zero(t, e.F1Score)

	assert.Zero(t, Score(nil, nil).Accuracy)
}

func TestRound4(t *testing.T) {
	assert.Equal(t, 0.8765, round4(0.87654))
	assert.Equal(t, 0.5, round4(0.5))
	assert.Equal(t, 1.0, round4(0.99996))
}
