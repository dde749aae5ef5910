package ml

import "errors"

var (
	// ErrNotTrained is returned by operations that need a trained model.
	ErrNotTrained = errors.New("model is not trained")
	// ErrTrainingData marks training or evaluation input that cannot be used:
	// empty or mismatched inputs, unknown labels under the strict policy, a
	// single-class label set or an empty vocabulary.
	ErrTrainingData = errors.New("invalid training data")
	// ErrDeserialization marks a corrupt or incompatible model artifact.
	ErrDeserialization = errors.New("model artifact could not be decoded")
)
