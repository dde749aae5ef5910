package api

import (
	"errors"
	"io/fs"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"sentiment-service/internal/analyzer"
	"sentiment-service/internal/common"
	"sentiment-service/internal/ml"
)

// Error codes returned in ErrorBody.Code.
const (
	CodeInvalidRequest      = "INVALID_REQUEST"
	CodeInvalidTrainingData = "INVALID_TRAINING_DATA"
	CodeModelNotTrained     = "MODEL_NOT_TRAINED"
	CodeModelNotFound       = "MODEL_NOT_FOUND"
	CodeModelLoadFailed     = "MODEL_LOAD_FAILED"
	CodeHistoryDisabled     = "HISTORY_DISABLED"
	CodeNotFound            = "NOT_FOUND"
	CodeInternal            = "INTERNAL_ERROR"
)

// contextKeyErrorCode holds the code of an error response for the metrics
// middleware.
const contextKeyErrorCode = "error_code"

// ErrorResponse is the HTTP rendition of an error.
type ErrorResponse struct {
	StatusCode int
	Code       string
	Message    string
}

// MapError maps service errors to HTTP error responses. Unknown errors become
// a generic 500 so internal details never reach the caller.
func MapError(err error) ErrorResponse {
	var validation *analyzer.ValidationError
	switch {
	case errors.As(err, &validation):
		return ErrorResponse{
			StatusCode: http.StatusBadRequest,
			Code:       CodeInvalidRequest,
			Message:    validation.Message,
		}
	case errors.Is(err, analyzer.ErrInvalidInput):
		return ErrorResponse{
			StatusCode: http.StatusBadRequest,
			Code:       CodeInvalidRequest,
			Message:    "invalid request",
		}
	case errors.Is(err, ml.ErrTrainingData):
		return ErrorResponse{
			StatusCode: http.StatusBadRequest,
			Code:       CodeInvalidTrainingData,
			Message:    err.Error(),
		}
	case errors.Is(err, ml.ErrNotTrained):
		return ErrorResponse{
			StatusCode: http.StatusServiceUnavailable,
			Code:       CodeModelNotTrained,
			Message:    common.ErrMsgModelNotTrained,
		}
	case errors.Is(err, fs.ErrNotExist):
		return ErrorResponse{
			StatusCode: http.StatusNotFound,
			Code:       CodeModelNotFound,
			Message:    common.ErrMsgModelArtifactAbsent,
		}
	case errors.Is(err, ml.ErrDeserialization):
		return ErrorResponse{
			StatusCode: http.StatusInternalServerError,
			Code:       CodeModelLoadFailed,
			Message:    "Model artifact could not be loaded",
		}
	case errors.Is(err, analyzer.ErrHistoryDisabled):
		return ErrorResponse{
			StatusCode: http.StatusNotFound,
			Code:       CodeHistoryDisabled,
			Message:    "Run history is not enabled",
		}
	default:
		return ErrorResponse{
			StatusCode: http.StatusInternalServerError,
			Code:       CodeInternal,
			Message:    common.ErrMsgInternal,
		}
	}
}

// HandleError maps err and writes the error response. 5xx causes are logged
// with the request id.
func HandleError(c *gin.Context, err error) {
	resp := MapError(err)
	if resp.StatusCode >= http.StatusInternalServerError {
		log.Error().
			Err(err).
			Str("request_id", c.GetString(contextKeyRequestID)).
			Str("path", c.Request.URL.Path).
			Msg("Request failed")
	}
	respondError(c, resp.StatusCode, resp.Code, resp.Message)
}

// HandleInvalidRequest writes a 400 with message.
func HandleInvalidRequest(c *gin.Context, message string) {
	respondError(c, http.StatusBadRequest, CodeInvalidRequest, message)
}

func respondError(c *gin.Context, status int, code, message string) {
	c.Set(contextKeyErrorCode, code)
	c.AbortWithStatusJSON(status, ErrorBody{
		Error:     message,
		Code:      code,
		RequestID: c.GetString(contextKeyRequestID),
	})
}
