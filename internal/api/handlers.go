// Package api exposes the sentiment analyzer over HTTP and websockets.
package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"

	"sentiment-service/internal/analyzer"
	"sentiment-service/internal/common"
	"sentiment-service/internal/ml"
	"sentiment-service/internal/storage"
)

// Service is the analyzer surface the handlers depend on.
type Service interface {
	Predict(text string) (analyzer.Result, error)
	PredictBatch(texts []string) ([]analyzer.Result, error)
	Train(texts, labels []string, opts analyzer.TrainOptions) (analyzer.TrainResult, error)
	Evaluate(texts, labels []string) (ml.Evaluation, error)
	Info() ml.ModelInfo
	Trained() bool
	Save(path string) (string, error)
	Load(path string) (ml.ModelInfo, error)
	History(kind storage.RunKind, limit int) ([]storage.RunRecord, error)
}

// HTTPMetrics receives request and stream telemetry.
type HTTPMetrics interface {
	RequestObserve(method, route string, status int, seconds float64)
	ErrorInc(code string)
	StreamOpened()
	StreamClosed()
}

// History pagination.
const (
	DefaultHistoryLimit = 20
	MaxHistoryLimit     = 500
)

// Handler serves the REST endpoints.
type Handler struct {
	service Service
}

// NewHandler creates a Handler.
func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// Root handles GET /
func (h *Handler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, BannerResponse{
		Message: "Sentiment Analysis API",
		Version: common.Version,
		Endpoints: map[string]string{
			"predict":        "POST /predict",
			"predict_batch":  "POST /predict_batch",
			"train":          "POST /train",
			"evaluate":       "POST /model/evaluate",
			"model_info":     "GET /model/info",
			"model_history":  "GET /model/history",
			"model_save":     "POST /model/save",
			"model_reload":   "POST /model/reload",
			"health":         "GET /health",
			"metrics":        "GET /metrics",
			"predict_stream": "GET /ws/predict",
		},
	})
}

// Predict handles POST /predict
func (h *Handler) Predict(c *gin.Context) {
	var req PredictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleInvalidRequest(c, bindingMessage(err, common.ErrMsgTextRequired))
		return
	}

	result, err := h.service.Predict(*req.Text)
	if err != nil {
		HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// PredictBatch handles POST /predict_batch
func (h *Handler) PredictBatch(c *gin.Context) {
	var req PredictBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleInvalidRequest(c, bindingMessage(err, common.ErrMsgTextsRequired))
		return
	}

	results, err := h.service.PredictBatch(req.Texts)
	if err != nil {
		HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, PredictBatchResponse{
		Results: lo.Map(results, func(r analyzer.Result, i int) BatchItem {
			return BatchItem{Index: i, Result: r}
		}),
		TotalProcessed: len(results),
	})
}

// Train handles POST /train
func (h *Handler) Train(c *gin.Context) {
	var req LabelledRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleInvalidRequest(c, labelledBindingMessage(err))
		return
	}

	result, err := h.service.Train(req.Texts, req.Labels, analyzer.TrainOptions{
		Holdout: req.Holdout,
		Seed:    req.Seed,
		Source:  "api",
	})
	if err != nil {
		HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, TrainResponse{
		Message:          "Model trained successfully",
		SamplesTrained:   result.Samples,
		TrainingAccuracy: result.TrainingAccuracy,
		Validation:       result.Validation,
		Saved:            result.Saved,
		ModelInfo:        result.ModelInfo,
	})
}

// Evaluate handles POST /model/evaluate
func (h *Handler) Evaluate(c *gin.Context) {
	var req LabelledRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleInvalidRequest(c, labelledBindingMessage(err))
		return
	}

	eval, err := h.service.Evaluate(req.Texts, req.Labels)
	if err != nil {
		HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, eval)
}

func labelledBindingMessage(err error) string {
	msg := bindingMessage(err, common.ErrMsgTrainingFields)
	if msg == common.ErrMsgTextsRequired {
		return common.ErrMsgTrainingFields
	}
	return msg
}

// ModelInfo handles GET /model/info
func (h *Handler) ModelInfo(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.Info())
}

// History handles GET /model/history?kind=train&limit=20
func (h *Handler) History(c *gin.Context) {
	kind, err := storage.ParseRunKind(c.DefaultQuery("kind", string(storage.RunTrain)))
	if err != nil {
		HandleInvalidRequest(c, "kind must be one of train, evaluate, load")
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(DefaultHistoryLimit)))
	if err != nil || limit < 1 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}

	runs, err := h.service.History(kind, limit)
	if err != nil {
		HandleError(c, err)
		return
	}
	if runs == nil {
		runs = []storage.RunRecord{}
	}
	c.JSON(http.StatusOK, HistoryResponse{Kind: string(kind), Runs: runs})
}

// Save handles POST /model/save
func (h *Handler) Save(c *gin.Context) {
	path, err := h.service.Save("")
	if err != nil {
		HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, SaveResponse{Message: "Model saved successfully", Path: path})
}

// Reload handles POST /model/reload
func (h *Handler) Reload(c *gin.Context) {
	info, err := h.service.Load("")
	if err != nil {
		HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, ReloadResponse{Message: "Model reloaded successfully", ModelInfo: info})
}

// Health handles GET /health
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:       "healthy",
		ModelTrained: h.service.Trained(),
		Version:      common.Version,
	})
}

// NotFound handles unmatched routes.
func (h *Handler) NotFound(c *gin.Context) {
	respondError(c, http.StatusNotFound, CodeNotFound, "Endpoint not found")
}
