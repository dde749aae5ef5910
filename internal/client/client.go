// Package client is a Go client for the sentiment HTTP API.
package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"sentiment-service/internal/analyzer"
	"sentiment-service/internal/api"
	"sentiment-service/internal/ml"
	"sentiment-service/internal/storage"
)

// DefaultTimeout bounds every request unless NewClient is given another one.
// Training on large sets can take minutes.
const DefaultTimeout = 5 * time.Minute

// APIError is a non-2xx response from the service.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	RequestID  string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("sentiment api: status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("sentiment api: %s (%d): %s", e.Code, e.StatusCode, e.Message)
}

// IsNotTrained reports whether err is the service's untrained-model response.
func IsNotTrained(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == api.CodeModelNotTrained
}

// Client talks to one sentiment service.
type Client struct {
	base string
	rest *resty.Client
}

// NewClient creates a client for the service at base, e.g.
// "http://localhost:5000".
func NewClient(base string, timeout time.Duration) *Client {
	r := resty.New()
	if timeout > 0 {
		r.SetTimeout(timeout)
	} else {
		r.SetTimeout(DefaultTimeout)
	}
	base = strings.TrimRight(base, "/")
	r.SetBaseURL(base)
	r.SetHeader("Content-Type", "application/json")
	return &Client{base: base, rest: r}
}

// BaseURL returns the service address.
func (c *Client) BaseURL() string { return c.base }

func (c *Client) do(ctx context.Context, method, path string, body, result any) error {
	req := c.rest.R().
		SetContext(ctx).
		SetError(&api.ErrorBody{})
	if body != nil {
		req.SetBody(body)
	}
	if result != nil {
		req.SetResult(result)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	if resp.IsError() {
		apiErr := &APIError{StatusCode: resp.StatusCode(), Message: resp.String()}
		if body, ok := resp.Error().(*api.ErrorBody); ok && body.Code != "" {
			apiErr.Code = body.Code
			apiErr.Message = body.Error
			apiErr.RequestID = body.RequestID
		}
		return apiErr
	}
	return nil
}

// Predict classifies one text.
func (c *Client) Predict(ctx context.Context, text string) (analyzer.Result, error) {
	var result analyzer.Result
	err := c.do(ctx, http.MethodPost, "/predict", api.PredictRequest{Text: &text}, &result)
	return result, err
}

// PredictBatch classifies texts in order.
func (c *Client) PredictBatch(ctx context.Context, texts []string) ([]analyzer.Result, error) {
	var resp api.PredictBatchResponse
	if err := c.do(ctx, http.MethodPost, "/predict_batch", api.PredictBatchRequest{Texts: texts}, &resp); err != nil {
		return nil, err
	}

	results := make([]analyzer.Result, len(resp.Results))
	for _, item := range resp.Results {
		if item.Index < 0 || item.Index >= len(results) {
			return nil, fmt.Errorf("batch response index %d out of range", item.Index)
		}
		results[item.Index] = item.Result
	}
	return results, nil
}

// Train replaces the service's model.
func (c *Client) Train(ctx context.Context, texts, labels []string, holdout float64, seed int64) (api.TrainResponse, error) {
	var resp api.TrainResponse
	err := c.do(ctx, http.MethodPost, "/train", api.LabelledRequest{
		Texts:   texts,
		Labels:  labels,
		Holdout: holdout,
		Seed:    seed,
	}, &resp)
	return resp, err
}

// Evaluate scores the service's model on labelled texts.
func (c *Client) Evaluate(ctx context.Context, texts, labels []string) (ml.Evaluation, error) {
	var eval ml.Evaluation
	err := c.do(ctx, http.MethodPost, "/model/evaluate", api.LabelledRequest{Texts: texts, Labels: labels}, &eval)
	return eval, err
}

// Info fetches the model description.
func (c *Client) Info(ctx context.Context) (ml.ModelInfo, error) {
	var info ml.ModelInfo
	err := c.do(ctx, http.MethodGet, "/model/info", nil, &info)
	return info, err
}

// History fetches up to limit recent runs of kind.
func (c *Client) History(ctx context.Context, kind storage.RunKind, limit int) ([]storage.RunRecord, error) {
	path := "/model/history?kind=" + string(kind) + "&limit=" + strconv.Itoa(limit)
	var resp api.HistoryResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Runs, nil
}

// Save asks the service to persist its model.
func (c *Client) Save(ctx context.Context) (api.SaveResponse, error) {
	var resp api.SaveResponse
	err := c.do(ctx, http.MethodPost, "/model/save", nil, &resp)
	return resp, err
}

// Reload asks the service to reload its model from disk.
func (c *Client) Reload(ctx context.Context) (api.ReloadResponse, error) {
	var resp api.ReloadResponse
	err := c.do(ctx, http.MethodPost, "/model/reload", nil, &resp)
	return resp, err
}

// Health fetches the health status.
func (c *Client) Health(ctx context.Context) (api.HealthResponse, error) {
	var resp api.HealthResponse
	err := c.do(ctx, http.MethodGet, "/health", nil, &resp)
	return resp, err
}
