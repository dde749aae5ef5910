package ml

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"sentiment-service/internal/features"
)

// ModelType names the pipeline in model info responses and artifacts.
const ModelType = "Logistic Regression with TF-IDF"

// Pipeline states reported by Info.
const (
	StatusTrained   = "Trained"
	StatusUntrained = "Untrained"
)

// PipelineConfig configures feature extraction, the classifier and label
// handling.
type PipelineConfig struct {
	Vectorizer  features.VectorizerConfig
	Classifier  LogisticConfig
	LabelPolicy LabelPolicy
}

// DefaultPipelineConfig returns the default configuration.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		Vectorizer:  features.DefaultVectorizerConfig(),
		Classifier:  DefaultLogisticConfig(),
		LabelPolicy: LabelPolicyLenient,
	}
}

// Validate checks every nested configuration.
func (c PipelineConfig) Validate() error {
	if err := c.Vectorizer.Validate(); err != nil {
		return fmt.Errorf("vectorizer: %w", err)
	}
	if err := c.Classifier.Validate(); err != nil {
		return fmt.Errorf("classifier: %w", err)
	}
	if _, err := ParseLabelPolicy(string(c.LabelPolicy)); err != nil {
		return err
	}
	return nil
}

// Prediction is the outcome for one text.
type Prediction struct {
	Sentiment  string  `json:"sentiment"`
	Confidence float64 `json:"confidence"`
}

// ModelInfo describes the current pipeline state.
type ModelInfo struct {
	ModelType        string     `json:"model_type"`
	Status           string     `json:"status"`
	TrainingAccuracy *float64   `json:"training_accuracy,omitempty"`
	VocabularySize   int        `json:"vocabulary_size,omitempty"`
	TrainingSamples  int        `json:"training_samples,omitempty"`
	TrainedAt        *time.Time `json:"trained_at,omitempty"`
	LabelPolicy      string     `json:"label_policy,omitempty"`
}

var _ Predictor = (*Pipeline)(nil)

// trainedModel is never mutated after construction.
type trainedModel struct {
	vectorizer *features.Vectorizer
	classifier *LogisticRegression
	accuracy   float64
	samples    int
	trainedAt  time.Time
	policy     LabelPolicy // label policy the model was trained under
}

func (m *trainedModel) predict(texts []string) []Prediction {
	X := m.vectorizer.Transform(texts)
	out := make([]Prediction, len(X))
	for i, z := range m.classifier.DecisionFunction(X) {
		class := classFor(z)
		p := sigmoid(z)
		if class == 0 {
			p = 1 - p
		}
		out[i] = Prediction{Sentiment: sentimentFor(class), Confidence: round4(p)}
	}
	return out
}

func (m *trainedModel) classes(texts []string) []int {
	return m.classifier.Predict(m.vectorizer.Transform(texts))
}

// Pipeline composes the vectorizer and classifier and owns the trained state.
// Train, Load, Reset and Save are serialised; predictions run concurrently and
// only block while a new model is being swapped in.
type Pipeline struct {
	cfg     PipelineConfig
	metrics MetricsInterface

	writeMu sync.Mutex

	mu         sync.RWMutex
	model      *trainedModel
	generation uint64
}

// NewPipeline creates an untrained pipeline. metrics may be nil.
func NewPipeline(cfg PipelineConfig, metrics MetricsInterface) (*Pipeline, error) {
	if cfg.LabelPolicy == "" {
		cfg.LabelPolicy = LabelPolicyLenient
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	p := &Pipeline{cfg: cfg, metrics: metrics}
	if metrics != nil {
		metrics.ModelStateSet(false, time.Time{})
	}
	return p, nil
}

// Config returns the pipeline configuration.
func (p *Pipeline) Config() PipelineConfig { return p.cfg }

// Train fits a new model on cleaned texts and labels and returns its accuracy
// on the training set itself. On failure the previous model stays in place.
func (p *Pipeline) Train(texts, labels []string) (float64, error) {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	start := time.Now()
	model, err := p.fit(texts, labels)
	if err != nil {
		if p.metrics != nil {
			p.metrics.TrainingFailuresInc()
		}
		log.Warn().Err(err).Int("samples", len(texts)).Msg("Training failed, keeping previous model")
		return 0, err
	}

	p.swap(model)
	elapsed := time.Since(start)
	if p.metrics != nil {
		p.metrics.TrainingObserve(elapsed.Seconds(), model.accuracy, model.samples)
	}

	log.Info().
		Int("samples", model.samples).
		Int("vocabulary", model.vectorizer.Dim()).
		Int("iterations", model.classifier.Iterations()).
		Float64("accuracy", model.accuracy).
		Dur("duration", elapsed).
		Msg("Model training complete")

	return model.accuracy, nil
}

func (p *Pipeline) fit(texts, labels []string) (*trainedModel, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("%w: no training samples", ErrTrainingData)
	}
	if len(texts) != len(labels) {
		return nil, fmt.Errorf("%w: %d texts but %d labels", ErrTrainingData, len(texts), len(labels))
	}

	y, err := MapLabels(labels, p.cfg.LabelPolicy)
	if err != nil {
		return nil, err
	}

	vectorizer, err := features.NewVectorizer(p.cfg.Vectorizer)
	if err != nil {
		return nil, err
	}
	X, err := vectorizer.FitTransform(texts)
	if err != nil {
		if errors.Is(err, features.ErrEmptyVocabulary) {
			return nil, fmt.Errorf("%w: %v", ErrTrainingData, err)
		}
		return nil, err
	}

	classifier, err := NewLogisticRegression(p.cfg.Classifier)
	if err != nil {
		return nil, err
	}
	if err := classifier.Fit(X, y, vectorizer.Dim()); err != nil {
		return nil, err
	}

	return &trainedModel{
		vectorizer: vectorizer,
		classifier: classifier,
		accuracy:   Score(y, classifier.Predict(X)).Accuracy,
		samples:    len(texts),
		trainedAt:  time.Now().UTC(),
		policy:     p.cfg.LabelPolicy,
	}, nil
}

// Predict classifies one cleaned text.
func (p *Pipeline) Predict(text string) (Prediction, error) {
	preds, err := p.PredictBatch([]string{text})
	if err != nil {
		return Prediction{}, err
	}
	return preds[0], nil
}

// PredictBatch classifies cleaned texts in a single pass. The result has the
// same length and order as texts.
func (p *Pipeline) PredictBatch(texts []string) ([]Prediction, error) {
	model := p.current()
	if model == nil {
		if p.metrics != nil {
			p.metrics.PredictionFailuresInc()
		}
		return nil, ErrNotTrained
	}
	if len(texts) == 0 {
		return []Prediction{}, nil
	}

	start := time.Now()
	preds := model.predict(texts)

	if p.metrics != nil {
		p.metrics.PredictionLatencyObserve(time.Since(start).Seconds())
		p.metrics.PredictionsAdd(len(preds))
		for _, pred := range preds {
			p.metrics.PredictionConfidenceObserve(pred.Confidence)
		}
	}
	return preds, nil
}

// Evaluate scores the current model against labelled cleaned texts.
func (p *Pipeline) Evaluate(texts, labels []string) (Evaluation, error) {
	model := p.current()
	if model == nil {
		return Evaluation{}, ErrNotTrained
	}
	if len(texts) == 0 {
		return Evaluation{}, fmt.Errorf("%w: no evaluation samples", ErrTrainingData)
	}
	if len(texts) != len(labels) {
		return Evaluation{}, fmt.Errorf("%w: %d texts but %d labels", ErrTrainingData, len(texts), len(labels))
	}

	y, err := MapLabels(labels, p.cfg.LabelPolicy)
	if err != nil {
		return Evaluation{}, err
	}
	return Score(y, model.classes(texts)), nil
}

// Info describes the current state.
func (p *Pipeline) Info() ModelInfo {
	model := p.current()
	if model == nil {
		return ModelInfo{ModelType: ModelType, Status: StatusUntrained}
	}
	accuracy := round4(model.accuracy)
	trainedAt := model.trainedAt
	return ModelInfo{
		ModelType:        ModelType,
		Status:           StatusTrained,
		TrainingAccuracy: &accuracy,
		VocabularySize:   model.vectorizer.Dim(),
		TrainingSamples:  model.samples,
		TrainedAt:        &trainedAt,
		LabelPolicy:      string(model.policy),
	}
}

// Trained reports whether a model is loaded.
func (p *Pipeline) Trained() bool { return p.current() != nil }

// Generation increases on every successful Train, Load and Reset.
func (p *Pipeline) Generation() uint64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.generation
}

// Reset discards the current model.
func (p *Pipeline) Reset() {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	p.swap(nil)
	log.Info().Msg("Model reset to untrained state")
}

// Save writes the current model to path.
func (p *Pipeline) Save(path string) error {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	model := p.current()
	if model == nil {
		return ErrNotTrained
	}

	data, err := encodeSnapshot(snapshotOf(model))
	if err != nil {
		return fmt.Errorf("encode model: %w", err)
	}
	if err := writeFileAtomic(path, data); err != nil {
		return fmt.Errorf("write model artifact: %w", err)
	}

	log.Info().Str("path", path).Int("bytes", len(data)).Msg("Model saved")
	return nil
}

// Load replaces the current model with the artifact at path. A missing file
// yields an error wrapping fs.ErrNotExist; a corrupt or incompatible artifact
// yields ErrDeserialization. The previous model is kept on any failure.
func (p *Pipeline) Load(path string) error {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	model, err := readArtifact(path)
	if err != nil {
		return err
	}

	if model.policy != p.cfg.LabelPolicy {
		log.Warn().
			Str("path", path).
			Str("artifact_policy", string(model.policy)).
			Str("configured_policy", string(p.cfg.LabelPolicy)).
			Msg("Loaded model was trained under a different label policy; retraining will use the configured one")
	}

	p.swap(model)
	log.Info().
		Str("path", path).
		Int("vocabulary", model.vectorizer.Dim()).
		Float64("training_accuracy", model.accuracy).
		Msg("Model loaded")
	return nil
}

func (p *Pipeline) current() *trainedModel {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.model
}

func (p *Pipeline) swap(model *trainedModel) {
	p.mu.Lock()
	p.model = model
	p.generation++
	p.mu.Unlock()

	if p.metrics != nil {
		if model == nil {
			p.metrics.ModelStateSet(false, time.Time{})
		} else {
			p.metrics.ModelStateSet(true, model.trainedAt)
		}
	}
}
