package ml

import (
	"fmt"
	"strings"
)

// Label strings accepted on input.
const (
	LabelPositive = "positive"
	LabelNegative = "negative"
)

// Sentiment strings returned by predictions.
const (
	SentimentPositive = "Positive"
	SentimentNegative = "Negative"
)

// LabelPolicy decides how labels other than positive/negative are treated.
type LabelPolicy string

const (
	// LabelPolicyLenient maps every label that is not "positive" to the
	// negative class.
	LabelPolicyLenient LabelPolicy = "lenient"
	// LabelPolicyStrict rejects labels that are neither "positive" nor
	// "negative".
	LabelPolicyStrict LabelPolicy = "strict"
)

// ParseLabelPolicy parses a policy name. The empty string selects lenient.
func ParseLabelPolicy(s string) (LabelPolicy, error) {
	switch LabelPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", LabelPolicyLenient:
		return LabelPolicyLenient, nil
	case LabelPolicyStrict:
		return LabelPolicyStrict, nil
	default:
		return "", fmt.Errorf("unknown label policy %q (expected %q or %q)", s, LabelPolicyLenient, LabelPolicyStrict)
	}
}

// MapLabels converts labels to class indices (positive = 1, negative = 0).
// Matching ignores case and surrounding whitespace.
func MapLabels(labels []string, policy LabelPolicy) ([]int, error) {
	out := make([]int, len(labels))
	for i, label := range labels {
		switch strings.ToLower(strings.TrimSpace(label)) {
		case LabelPositive:
			out[i] = 1
		case LabelNegative:
			out[i] = 0
		default:
			if policy == LabelPolicyStrict {
				return nil, fmt.Errorf("%w: label %d (%q) is neither %q nor %q",
					ErrTrainingData, i, label, LabelPositive, LabelNegative)
			}
			out[i] = 0
		}
	}
	return out, nil
}

func sentimentFor(class int) string {
	if class == 1 {
		return SentimentPositive
	}
	return SentimentNegative
}
