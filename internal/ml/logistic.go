package ml

import (
	"errors"
	"fmt"
	"math"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/optimize"

	"sentiment-service/internal/features"
)

// LogisticConfig holds the classifier hyperparameters.
type LogisticConfig struct {
	// C is the inverse regularisation strength.
	C         float64 `json:"c"`
	MaxIter   int     `json:"max_iter"`
	Tolerance float64 `json:"tolerance"`
}

// DefaultLogisticConfig returns C=1, 1000 iterations and a 1e-4 gradient
// threshold.
func DefaultLogisticConfig() LogisticConfig {
	return LogisticConfig{C: 1.0, MaxIter: 1000, Tolerance: 1e-4}
}

// Validate checks the hyperparameter ranges.
func (c LogisticConfig) Validate() error {
	if c.C <= 0 || math.IsNaN(c.C) || math.IsInf(c.C, 0) {
		return fmt.Errorf("regularization C must be a positive finite number, got %v", c.C)
	}
	if c.MaxIter <= 0 {
		return fmt.Errorf("max iterations must be positive, got %d", c.MaxIter)
	}
	if c.Tolerance <= 0 || math.IsNaN(c.Tolerance) {
		return fmt.Errorf("tolerance must be positive, got %v", c.Tolerance)
	}
	return nil
}

// LogisticRegression is a binary linear classifier with a logistic link. The
// objective is the mean log-loss plus ||w||^2 / (2*C*n); the intercept is not
// penalised.
type LogisticRegression struct {
	cfg        LogisticConfig
	weights    []float64
	intercept  float64
	iterations int
	status     optimize.Status
}

// NewLogisticRegression creates an unfitted classifier.
func NewLogisticRegression(cfg LogisticConfig) (*LogisticRegression, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &LogisticRegression{cfg: cfg}, nil
}

// Fit trains on X with labels y in {0,1}. dim is the feature dimensionality.
// Both classes must be present. Optimisation starts from zero weights, so
// fitting is deterministic.
func (m *LogisticRegression) Fit(X []features.SparseVector, y []int, dim int) error {
	if len(X) == 0 {
		return fmt.Errorf("%w: no samples", ErrTrainingData)
	}
	if len(X) != len(y) {
		return fmt.Errorf("%w: %d samples but %d labels", ErrTrainingData, len(X), len(y))
	}
	if dim <= 0 {
		return fmt.Errorf("%w: feature dimension must be positive", ErrTrainingData)
	}

	positives := 0
	for i, label := range y {
		if label != 0 && label != 1 {
			return fmt.Errorf("%w: label %d is %d, want 0 or 1", ErrTrainingData, i, label)
		}
		positives += label
	}
	if positives == 0 || positives == len(y) {
		return fmt.Errorf("%w: labels contain a single class", ErrTrainingData)
	}

	n := float64(len(X))
	alpha := 1 / (m.cfg.C * n)

	problem := optimize.Problem{
		Func: func(theta []float64) float64 {
			w, b := theta[:dim], theta[dim]
			var loss float64
			for i, row := range X {
				margin := row.Dot(w) + b
				if y[i] == 0 {
					margin = -margin
				}
				loss += softplus(-margin)
			}
			return loss/n + 0.5*alpha*floats.Dot(w, w)
		},
		Grad: func(grad, theta []float64) {
			w, b := theta[:dim], theta[dim]
			for j := range grad {
				grad[j] = 0
			}
			for i, row := range X {
				residual := (sigmoid(row.Dot(w)+b) - float64(y[i])) / n
				for k, idx := range row.Indices {
					grad[idx] += residual * row.Values[k]
				}
				grad[dim] += residual
			}
			floats.AddScaled(grad[:dim], alpha, w)
		},
	}

	settings := &optimize.Settings{
		MajorIterations:   m.cfg.MaxIter,
		GradientThreshold: m.cfg.Tolerance,
	}

	result, err := optimize.Minimize(problem, make([]float64, dim+1), settings, &optimize.LBFGS{})
	if result == nil {
		return fmt.Errorf("logistic regression solver: %w", err)
	}
	if err != nil {
		log.Warn().Err(err).Str("status", result.Status.String()).Msg("Logistic regression solver stopped early, keeping best iterate")
	}

	theta := result.X
	for _, v := range theta {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errors.New("logistic regression solver diverged")
		}
	}
	if result.Status == optimize.IterationLimit {
		log.Warn().
			Int("max_iter", m.cfg.MaxIter).
			Msg("Logistic regression did not converge within the iteration limit")
	}

	m.weights = append([]float64(nil), theta[:dim]...)
	m.intercept = theta[dim]
	m.iterations = result.Stats.MajorIterations
	m.status = result.Status
	return nil
}

// Dim is the number of features the classifier was fitted on.
func (m *LogisticRegression) Dim() int { return len(m.weights) }

// Iterations is the number of solver iterations used by the last Fit.
func (m *LogisticRegression) Iterations() int { return m.iterations }

// DecisionFunction returns w.x + b for every row.
func (m *LogisticRegression) DecisionFunction(X []features.SparseVector) []float64 {
	out := make([]float64, len(X))
	for i, row := range X {
		out[i] = row.Dot(m.weights) + m.intercept
	}
	return out
}

// PredictProba returns [P(negative), P(positive)] per row.
func (m *LogisticRegression) PredictProba(X []features.SparseVector) [][2]float64 {
	out := make([][2]float64, len(X))
	for i, z := range m.DecisionFunction(X) {
		p := sigmoid(z)
		out[i] = [2]float64{1 - p, p}
	}
	return out
}

// Predict returns 1 where the decision value is positive, else 0.
func (m *LogisticRegression) Predict(X []features.SparseVector) []int {
	out := make([]int, len(X))
	for i, z := range m.DecisionFunction(X) {
		out[i] = classFor(z)
	}
	return out
}

// ClassifierState is the serialisable form of a fitted LogisticRegression.
type ClassifierState struct {
	Config    LogisticConfig `json:"config"`
	Weights   []float64      `json:"weights"`
	Intercept float64        `json:"intercept"`
}

// State exports the fitted parameters.
func (m *LogisticRegression) State() ClassifierState {
	return ClassifierState{
		Config:    m.cfg,
		Weights:   append([]float64(nil), m.weights...),
		Intercept: m.intercept,
	}
}

// LogisticRegressionFromState rebuilds a fitted classifier.
func LogisticRegressionFromState(state ClassifierState) (*LogisticRegression, error) {
	if err := state.Config.Validate(); err != nil {
		return nil, err
	}
	if len(state.Weights) == 0 {
		return nil, errors.New("classifier has no weights")
	}
	for _, v := range append([]float64{state.Intercept}, state.Weights...) {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, errors.New("classifier has non-finite weights")
		}
	}
	return &LogisticRegression{
		cfg:       state.Config,
		weights:   append([]float64(nil), state.Weights...),
		intercept: state.Intercept,
	}, nil
}

func classFor(decision float64) int {
	if decision > 0 {
		return 1
	}
	return 0
}

func sigmoid(x float64) float64 {
	if x >= 0 {
		z := math.Exp(-x)
		return 1 / (1 + z)
	}
	z := math.Exp(x)
	return z / (1 + z)
}

// softplus computes log(1 + e^x) without overflow.
func softplus(x float64) float64 {
	if x > 0 {
		return x + math.Log1p(math.Exp(-x))
	}
	return math.Log1p(math.Exp(x))
}
