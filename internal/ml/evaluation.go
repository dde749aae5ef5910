package ml

import "math"

// ConfusionMatrix counts binary outcomes with positive = 1.
type ConfusionMatrix struct {
	TruePositive  int `json:"true_positive"`
	FalsePositive int `json:"false_positive"`
	TrueNegative  int `json:"true_negative"`
	FalseNegative int `json:"false_negative"`
}

// Evaluation holds binary classification metrics. Ratios with a zero
// denominator are reported as 0.
type Evaluation struct {
	Accuracy  float64         `json:"accuracy"`
	Precision float64         `json:"precision"`
	Recall    float64         `json:"recall"`
	F1Score   float64         `json:"f1_score"`
	Samples   int             `json:"samples"`
	Confusion ConfusionMatrix `json:"confusion_matrix"`
}

// Score compares predictions against the truth. Both slices must have the same
// length.
func Score(truth, predicted []int) Evaluation {
	var cm ConfusionMatrix
	for i := range truth {
		switch {
		case truth[i] == 1 && predicted[i] == 1:
			cm.TruePositive++
		case truth[i] == 0 && predicted[i] == 1:
			cm.FalsePositive++
		case truth[i] == 1:
			cm.FalseNegative++
		default:
			cm.TrueNegative++
		}
	}

	return Evaluation{
		Accuracy:  ratio(cm.TruePositive+cm.TrueNegative, len(truth)),
		Precision: ratio(cm.TruePositive, cm.TruePositive+cm.FalsePositive),
		Recall:    ratio(cm.TruePositive, cm.TruePositive+cm.FalseNegative),
		F1Score:   ratio(2*cm.TruePositive, 2*cm.TruePositive+cm.FalsePositive+cm.FalseNegative),
		Samples:   len(truth),
		Confusion: cm,
	}
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}

// round4 rounds to four decimal places.
func round4(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}
