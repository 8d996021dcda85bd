package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrInvalidRequest signals a malformed conversation turn.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrLLMProviderError signals a language model provider failure.
	ErrLLMProviderError = errors.New("llm provider error")
	// ErrImageUnavailable signals that an image locator could not be resolved.
	ErrImageUnavailable = errors.New("image unavailable")
	// ErrEmptyAnswer signals that the responder returned no text.
	ErrEmptyAnswer = errors.New("empty answer")
)

// ConfigurationError reports a filter value of an unsupported shape.
// It fails the single plan step it belongs to, never the request.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: field %q: %s", e.Field, e.Reason)
}

// AdapterFailure reports a network, timeout or not-found failure of one search modality.
type AdapterFailure struct {
	Tool string
	Err  error
}

func (e *AdapterFailure) Error() string {
	return fmt.Sprintf("%s adapter failure: %v", e.Tool, e.Err)
}

func (e *AdapterFailure) Unwrap() error { return e.Err }

// PlannerFormatError reports planner output that is not a JSON array of plan steps.
type PlannerFormatError struct {
	Raw string
	Err error
}

func (e *PlannerFormatError) Error() string {
	return fmt.Sprintf("planner format error: %v", e.Err)
}

func (e *PlannerFormatError) Unwrap() error { return e.Err }

// FatalPipelineError is the terminal failure of a request at a stage without fallback.
type FatalPipelineError struct {
	Stage string
	Err   error
}

func (e *FatalPipelineError) Error() string {
	return fmt.Sprintf("pipeline failed at %s: %v", e.Stage, e.Err)
}

func (e *FatalPipelineError) Unwrap() error { return e.Err }

// NewAdapterFailure wraps err as an AdapterFailure for the given tool.
func NewAdapterFailure(tool string, err error) error {
	return &AdapterFailure{Tool: tool, Err: err}
}
