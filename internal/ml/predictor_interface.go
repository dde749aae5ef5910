// Package ml provides the sentiment classification pipeline: TF-IDF feature
// extraction feeding an L2-regularised logistic regression, together with
// training, evaluation and artifact persistence.
//
// A Pipeline starts untrained and becomes trained through Train or Load.
// Trained models are immutable; retraining builds a new model and swaps it in,
// so concurrent readers always observe either the old or the new model.
package ml

import "time"

// Predictor is the read side of a trained pipeline.
type Predictor interface {
	// Predict classifies a single cleaned text.
	Predict(text string) (Prediction, error)

	// PredictBatch classifies texts in one vectorised pass, preserving order.
	PredictBatch(texts []string) ([]Prediction, error)

	// Trained reports whether a model is loaded.
	Trained() bool
}

// MetricsInterface defines metrics methods needed by the pipeline
type MetricsInterface interface {
	PredictionsAdd(n int)
	PredictionFailuresInc()
	PredictionLatencyObserve(seconds float64)
	PredictionConfidenceObserve(confidence float64)
	TrainingObserve(seconds, accuracy float64, samples int)
	TrainingFailuresInc()
	ModelStateSet(trained bool, trainedAt time.Time)
}
