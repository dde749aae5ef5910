package analyzer

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput marks a request the analyzer refuses before touching
	// the model.
	ErrInvalidInput = errors.New("invalid input")
	// ErrHistoryDisabled is returned by History when no run log is configured.
	ErrHistoryDisabled = errors.New("run history is not enabled")
)

// ValidationError carries a message that is safe to show to API callers.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Is makes errors.Is(err, ErrInvalidInput) hold for every ValidationError.
func (e *ValidationError) Is(target error) bool { return target == ErrInvalidInput }

func invalidf(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}
