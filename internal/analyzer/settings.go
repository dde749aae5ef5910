package analyzer

import (
	"fmt"

	"sentiment-service/internal/cfg"
	"sentiment-service/internal/features"
	"sentiment-service/internal/ml"
	"sentiment-service/internal/preprocess"
)

// PipelineConfigFrom maps service settings onto the pipeline configuration.
func PipelineConfigFrom(s cfg.Settings) (ml.PipelineConfig, error) {
	policy, err := ml.ParseLabelPolicy(s.LabelPolicy)
	if err != nil {
		return ml.PipelineConfig{}, err
	}
	return ml.PipelineConfig{
		Vectorizer: features.VectorizerConfig{
			MaxFeatures: s.MaxFeatures,
			NGramMin:    s.NGramMin,
			NGramMax:    s.NGramMax,
		},
		Classifier: ml.LogisticConfig{
			C:         s.RegularizationC,
			MaxIter:   s.MaxIter,
			Tolerance: s.Tolerance,
		},
		LabelPolicy: policy,
	}, nil
}

// ConfigFrom extracts the analyzer settings.
func ConfigFrom(s cfg.Settings) Config {
	return Config{
		ModelPath:          s.ModelPath,
		AutoSave:           s.AutoSave,
		CacheSize:          s.CacheSize,
		MaxBatchSize:       s.MaxBatchSize,
		MinTrainingSamples: s.MinTrainingSamples,
	}
}

// NewFromSettings builds the normalizer, pipeline and analyzer described by s.
// pipelineMetrics, recorder and cacheMetrics may be nil.
func NewFromSettings(s cfg.Settings, pipelineMetrics ml.MetricsInterface, recorder RunRecorder, cacheMetrics CacheMetrics) (*Analyzer, error) {
	normalizer, err := preprocess.NewNamed(s.Lemmatizer)
	if err != nil {
		return nil, err
	}

	pipelineCfg, err := PipelineConfigFrom(s)
	if err != nil {
		return nil, err
	}
	pipeline, err := ml.NewPipeline(pipelineCfg, pipelineMetrics)
	if err != nil {
		return nil, fmt.Errorf("create pipeline: %w", err)
	}

	return New(ConfigFrom(s), normalizer, pipeline, recorder, cacheMetrics)
}
