package api

import (
	"sentiment-service/internal/analyzer"
	"sentiment-service/internal/ml"
	"sentiment-service/internal/storage"
)

// PredictRequest is the body of POST /predict.
type PredictRequest struct {
	Text *string `json:"text" binding:"required,notblank"`
}

// PredictBatchRequest is the body of POST /predict_batch.
type PredictBatchRequest struct {
	Texts []string `json:"texts" binding:"required,min=1"`
}

// LabelledRequest is the body of POST /train and POST /model/evaluate.
type LabelledRequest struct {
	Texts  []string `json:"texts" binding:"required"`
	Labels []string `json:"labels" binding:"required"`
	// Holdout and Seed only apply to training.
	Holdout float64 `json:"holdout,omitempty" binding:"gte=0,lt=1"`
	Seed    int64   `json:"seed,omitempty"`
}

// BatchItem is one entry of a batch prediction response.
type BatchItem struct {
	Index int `json:"index"`
	analyzer.Result
}

// PredictBatchResponse is returned by POST /predict_batch.
type PredictBatchResponse struct {
	Results        []BatchItem `json:"results"`
	TotalProcessed int         `json:"total_processed"`
}

// TrainResponse is returned by POST /train.
type TrainResponse struct {
	Message          string         `json:"message"`
	SamplesTrained   int            `json:"samples_trained"`
	TrainingAccuracy float64        `json:"training_accuracy"`
	Validation       *ml.Evaluation `json:"validation,omitempty"`
	Saved            bool           `json:"saved"`
	ModelInfo        ml.ModelInfo   `json:"model_info"`
}

// HistoryResponse is returned by GET /model/history.
type HistoryResponse struct {
	Kind string              `json:"kind"`
	Runs []storage.RunRecord `json:"runs"`
}

// SaveResponse is returned by POST /model/save.
type SaveResponse struct {
	Message string `json:"message"`
	Path    string `json:"path"`
}

// ReloadResponse is returned by POST /model/reload.
type ReloadResponse struct {
	Message   string       `json:"message"`
	ModelInfo ml.ModelInfo `json:"model_info"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status       string `json:"status"`
	ModelTrained bool   `json:"model_trained"`
	Version      string `json:"version"`
}

// BannerResponse is returned by GET /.
type BannerResponse struct {
	Message   string            `json:"message"`
	Version   string            `json:"version"`
	Endpoints map[string]string `json:"endpoints"`
}

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}
