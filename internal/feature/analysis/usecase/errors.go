// Package usecase implements the business logic for the analysis feature.
package usecase

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrValidation is returned when the caller omitted a required profile field.
	ErrValidation = errors.New("validation failed")

	// ErrConfiguration is returned when the model provider credential is missing or rejected.
	ErrConfiguration = errors.New("model provider is not configured")

	// ErrRateLimited is returned when the provider throttled the request. Callers may retry later.
	ErrRateLimited = errors.New("model provider rate limit exceeded")

	// ErrQuotaExceeded is returned when the provider account has no quota or billing left.
	ErrQuotaExceeded = errors.New("model provider quota exceeded")

	// ErrUpstreamProtocol is returned when the provider replied without any usable message.
	ErrUpstreamProtocol = errors.New("model provider returned a malformed response")

	// ErrUpstream is returned for any other provider failure.
	ErrUpstream = errors.New("model provider request failed")

	// ErrStructuredGeneration is returned when a business plan could not be recovered from the model output.
	ErrStructuredGeneration = errors.New("failed to generate structured business plan")

	// ErrPlanNotFound is returned when no business plan exists for the requested id.
	ErrPlanNotFound = errors.New("business plan not found")
)

// Pipeline stages attached to errors by the orchestrator.
const (
	StageModel         = "model"
	StageNormalization = "normalization"
	StageStorage       = "storage"
	StageRender        = "render"
)

// ValidationError lists the required profile fields that were missing.
type ValidationError struct {
	MissingFields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing required fields: %s", strings.Join(e.MissingFields, ", "))
}

// Is reports ErrValidation so callers can match on the sentinel.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// ModelError is returned by model client adapters.
// Kind is one of the provider sentinels above; Err is the provider's own error, if any.
type ModelError struct {
	Kind     error
	Provider string
	Message  string
	Err      error
}

func (e *ModelError) Error() string {
	msg := e.Kind.Error()
	if e.Provider != "" {
		msg = e.Provider + ": " + msg
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

// Unwrap exposes both the kind sentinel and the provider error.
func (e *ModelError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// StageError tags an error with the pipeline stage it originated from.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return e.Stage + ": " + e.Err.Error()
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// StageOf returns the pipeline stage recorded on err, or "" if none.
func StageOf(err error) string {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage
	}
	return ""
}

func withStage(stage string, err error) error {
	if err == nil {
		return nil
	}
	return &StageError{Stage: stage, Err: err}
}
