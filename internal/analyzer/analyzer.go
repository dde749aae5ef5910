// Package analyzer is the service layer between the transports (HTTP,
// websocket, CLI) and the classification pipeline. It cleans raw text,
// validates requests, caches predictions and records training runs.
package analyzer

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"sentiment-service/internal/common"
	"sentiment-service/internal/ml"
	"sentiment-service/internal/preprocess"
	"sentiment-service/internal/storage"
)

// RunRecorder persists run records. *storage.Store implements it.
type RunRecorder interface {
	Record(record storage.RunRecord) (storage.RunRecord, error)
	Latest(kind storage.RunKind, n int) ([]storage.RunRecord, error)
}

// CacheMetrics counts prediction cache lookups.
type CacheMetrics interface {
	CacheHitInc()
	CacheMissInc()
}

// Config holds the analyzer's request limits and persistence behaviour.
type Config struct {
	ModelPath          string
	AutoSave           bool
	CacheSize          int
	MaxBatchSize       int
	MinTrainingSamples int
}

// DefaultConfig mirrors the service defaults.
func DefaultConfig() Config {
	return Config{
		ModelPath:          common.DefaultModelPath,
		AutoSave:           common.DefaultAutoSave,
		CacheSize:          common.DefaultCacheSize,
		MaxBatchSize:       common.DefaultMaxBatchSize,
		MinTrainingSamples: common.DefaultMinTrainingSamples,
	}
}

// Result is a prediction together with the text it was made for.
type Result struct {
	Text        string  `json:"text"`
	CleanedText string  `json:"cleaned_text"`
	Sentiment   string  `json:"sentiment"`
	Confidence  float64 `json:"confidence"`
}

// TrainOptions tunes a single training request.
type TrainOptions struct {
	// Holdout is the fraction of samples kept out of training and scored
	// afterwards. Zero trains on everything.
	Holdout float64
	// Seed drives the holdout shuffle.
	Seed int64
	// Source is stored with the run record (a file name, "api", ...).
	Source string
}

// TrainResult summarises a completed training request.
type TrainResult struct {
	Samples          int            `json:"samples_trained"`
	TrainingAccuracy float64        `json:"training_accuracy"`
	Validation       *ml.Evaluation `json:"validation,omitempty"`
	Saved            bool           `json:"saved"`
	ModelInfo        ml.ModelInfo   `json:"model_info"`
}

// Analyzer wires a Normalizer to a Pipeline. It is safe for concurrent use.
type Analyzer struct {
	cfg        Config
	normalizer *preprocess.Normalizer
	pipeline   *ml.Pipeline
	cache      *lru.Cache // nil when caching is disabled
	recorder   RunRecorder
	metrics    CacheMetrics
}

// New creates an Analyzer. recorder and metrics may be nil.
func New(cfg Config, normalizer *preprocess.Normalizer, pipeline *ml.Pipeline, recorder RunRecorder, metrics CacheMetrics) (*Analyzer, error) {
	if normalizer == nil || pipeline == nil {
		return nil, errors.New("analyzer requires a normalizer and a pipeline")
	}
	if cfg.MaxBatchSize <= 0 {
		return nil, fmt.Errorf("max batch size must be positive, got %d", cfg.MaxBatchSize)
	}
	if cfg.MinTrainingSamples < 1 {
		cfg.MinTrainingSamples = 1
	}

	a := &Analyzer{
		cfg:        cfg,
		normalizer: normalizer,
		pipeline:   pipeline,
		recorder:   recorder,
		metrics:    metrics,
	}
	if cfg.CacheSize > 0 {
		cache, err := lru.New(cfg.CacheSize)
		if err != nil {
			return nil, fmt.Errorf("create prediction cache: %w", err)
		}
		a.cache = cache
	}
	return a, nil
}

// Config returns the analyzer configuration.
func (a *Analyzer) Config() Config { return a.cfg }

// Predict cleans and classifies one text. Blank text is rejected.
func (a *Analyzer) Predict(text string) (Result, error) {
	if strings.TrimSpace(text) == "" {
		return Result{}, invalidf(common.ErrMsgTextEmpty)
	}
	results, err := a.predict([]string{text})
	if err != nil {
		return Result{}, err
	}
	return results[0], nil
}

// PredictBatch cleans and classifies texts in order. The batch must hold
// between one and MaxBatchSize texts.
func (a *Analyzer) PredictBatch(texts []string) ([]Result, error) {
	if len(texts) == 0 {
		return nil, invalidf(common.ErrMsgTextsEmpty)
	}
	if len(texts) > a.cfg.MaxBatchSize {
		return nil, invalidf(common.ErrMsgBatchTooLarge, a.cfg.MaxBatchSize)
	}
	return a.predict(texts)
}

func (a *Analyzer) predict(texts []string) ([]Result, error) {
	cleaned := a.normalizer.NormalizeBatch(texts)
	results := make([]Result, len(texts))
	for i := range texts {
		results[i] = Result{Text: texts[i], CleanedText: cleaned[i]}
	}

	generation := a.pipeline.Generation()
	var missing []int
	for i, c := range cleaned {
		if pred, ok := a.lookup(generation, c); ok {
			results[i].Sentiment = pred.Sentiment
			results[i].Confidence = pred.Confidence
			continue
		}
		missing = append(missing, i)
	}
	if len(missing) == 0 {
		return results, nil
	}

	preds, err := a.pipeline.PredictBatch(lo.Map(missing, func(i int, _ int) string {
		return cleaned[i]
	}))
	if err != nil {
		return nil, err
	}
	for j, i := range missing {
		results[i].Sentiment = preds[j].Sentiment
		results[i].Confidence = preds[j].Confidence
		a.store(generation, cleaned[i], preds[j])
	}
	return results, nil
}

func cacheKey(generation uint64, cleaned string) string {
	return fmt.Sprintf("%d:%s", generation, cleaned)
}

func (a *Analyzer) lookup(generation uint64, cleaned string) (ml.Prediction, bool) {
	if a.cache == nil {
		return ml.Prediction{}, false
	}
	if v, ok := a.cache.Get(cacheKey(generation, cleaned)); ok {
		if a.metrics != nil {
			a.metrics.CacheHitInc()
		}
		return v.(ml.Prediction), true
	}
	if a.metrics != nil {
		a.metrics.CacheMissInc()
	}
	return ml.Prediction{}, false
}

func (a *Analyzer) store(generation uint64, cleaned string, pred ml.Prediction) {
	if a.cache != nil {
		a.cache.Add(cacheKey(generation, cleaned), pred)
	}
}

func (a *Analyzer) purge() {
	if a.cache != nil {
		a.cache.Purge()
	}
}

// Train cleans the texts, fits a new model and, with AutoSave on, writes it
// to ModelPath. A failed save is logged; the trained model stays active.
func (a *Analyzer) Train(texts, labels []string, opts TrainOptions) (TrainResult, error) {
	if len(texts) != len(labels) {
		return TrainResult{}, invalidf(common.ErrMsgLengthMismatch)
	}
	if len(texts) < a.cfg.MinTrainingSamples {
		return TrainResult{}, invalidf(common.ErrMsgTooFewSamples, a.cfg.MinTrainingSamples)
	}
	if opts.Holdout < 0 || opts.Holdout >= 1 {
		return TrainResult{}, invalidf("Holdout fraction must be in [0, 1)")
	}
	// reject bad labels before anything is split off or trained
	if _, err := ml.MapLabels(labels, a.pipeline.Config().LabelPolicy); err != nil {
		return TrainResult{}, err
	}

	cleaned := a.normalizer.NormalizeBatch(texts)
	trainTexts, trainLabels, holdTexts, holdLabels := splitHoldout(cleaned, labels, opts.Holdout, opts.Seed)

	start := time.Now()
	accuracy, err := a.pipeline.Train(trainTexts, trainLabels)
	if err != nil {
		return TrainResult{}, err
	}
	a.purge()

	result := TrainResult{
		Samples:          len(trainTexts),
		TrainingAccuracy: accuracy,
	}

	if len(holdTexts) > 0 {
		eval, err := a.pipeline.Evaluate(holdTexts, holdLabels)
		if err != nil {
			return TrainResult{}, fmt.Errorf("score holdout: %w", err)
		}
		result.Validation = &eval
		log.Info().
			Int("holdout", len(holdTexts)).
			Float64("accuracy", eval.Accuracy).
			Float64("f1", eval.F1Score).
			Msg("Holdout evaluation complete")
	}
	elapsed := time.Since(start)

	if a.cfg.AutoSave {
		if err := a.pipeline.Save(a.cfg.ModelPath); err != nil {
			log.Error().Err(err).Str("path", a.cfg.ModelPath).Msg("Failed to save trained model")
		} else {
			result.Saved = true
		}
	}

	result.ModelInfo = a.pipeline.Info()

	record := storage.RunRecord{
		Kind:           storage.RunTrain,
		Samples:        result.Samples,
		Accuracy:       accuracy,
		VocabularySize: result.ModelInfo.VocabularySize,
		DurationMs:     float64(elapsed.Microseconds()) / 1000,
		Source:         opts.Source,
	}
	if result.Validation != nil {
		record.Precision = result.Validation.Precision
		record.Recall = result.Validation.Recall
		record.F1Score = result.Validation.F1Score
	}
	a.record(record)

	return result, nil
}

// splitHoldout shuffles with seed and keeps the last fraction of samples
// aside. At least one sample always stays in the training set.
func splitHoldout(texts, labels []string, fraction float64, seed int64) (trainTexts, trainLabels, holdTexts, holdLabels []string) {
	n := int(float64(len(texts)) * fraction)
	if n <= 0 {
		return texts, labels, nil, nil
	}
	if n >= len(texts) {
		n = len(texts) - 1
	}

	perm := rand.New(rand.NewSource(seed)).Perm(len(texts))
	cut := len(texts) - n
	for k, i := range perm {
		if k < cut {
			trainTexts = append(trainTexts, texts[i])
			trainLabels = append(trainLabels, labels[i])
		} else {
			holdTexts = append(holdTexts, texts[i])
			holdLabels = append(holdLabels, labels[i])
		}
	}
	return trainTexts, trainLabels, holdTexts, holdLabels
}

// Evaluate cleans the texts and scores the current model against labels.
func (a *Analyzer) Evaluate(texts, labels []string) (ml.Evaluation, error) {
	if len(texts) == 0 {
		return ml.Evaluation{}, invalidf(common.ErrMsgTextsEmpty)
	}
	if len(texts) != len(labels) {
		return ml.Evaluation{}, invalidf(common.ErrMsgLengthMismatch)
	}

	start := time.Now()
	eval, err := a.pipeline.Evaluate(a.normalizer.NormalizeBatch(texts), labels)
	if err != nil {
		return ml.Evaluation{}, err
	}

	a.record(storage.RunRecord{
		Kind:       storage.RunEvaluate,
		Samples:    eval.Samples,
		Accuracy:   eval.Accuracy,
		Precision:  eval.Precision,
		Recall:     eval.Recall,
		F1Score:    eval.F1Score,
		DurationMs: float64(time.Since(start).Microseconds()) / 1000,
	})
	return eval, nil
}

// Info describes the current model.
func (a *Analyzer) Info() ml.ModelInfo { return a.pipeline.Info() }

// Trained reports whether a model is loaded.
func (a *Analyzer) Trained() bool { return a.pipeline.Trained() }

// Save writes the model to path, or to ModelPath when path is empty, and
// returns the path written.
func (a *Analyzer) Save(path string) (string, error) {
	if path == "" {
		path = a.cfg.ModelPath
	}
	if err := a.pipeline.Save(path); err != nil {
		return "", err
	}
	return path, nil
}

// Load replaces the model with the artifact at path, or at ModelPath when
// path is empty.
func (a *Analyzer) Load(path string) (ml.ModelInfo, error) {
	if path == "" {
		path = a.cfg.ModelPath
	}

	start := time.Now()
	if err := a.pipeline.Load(path); err != nil {
		return ml.ModelInfo{}, err
	}
	a.purge()

	info := a.pipeline.Info()
	record := storage.RunRecord{
		Kind:           storage.RunLoad,
		Samples:        info.TrainingSamples,
		VocabularySize: info.VocabularySize,
		DurationMs:     float64(time.Since(start).Microseconds()) / 1000,
		Source:         path,
	}
	if info.TrainingAccuracy != nil {
		record.Accuracy = *info.TrainingAccuracy
	}
	a.record(record)

	return info, nil
}

// History returns up to limit recent runs of kind, newest first.
func (a *Analyzer) History(kind storage.RunKind, limit int) ([]storage.RunRecord, error) {
	if a.recorder == nil {
		return nil, ErrHistoryDisabled
	}
	if limit <= 0 {
		return nil, invalidf("Limit must be positive")
	}
	return a.recorder.Latest(kind, limit)
}

// record stores a run record. Failures are logged and otherwise ignored.
func (a *Analyzer) record(record storage.RunRecord) {
	if a.recorder == nil {
		return
	}
	if _, err := a.recorder.Record(record); err != nil {
		log.Warn().Err(err).Str("kind", string(record.Kind)).Msg("Failed to record run")
	}
}
