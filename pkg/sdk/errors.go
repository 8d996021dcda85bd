package factlens

import "github.com/kailas-cloud/factlens/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrNotFound               = domain.ErrNotFound
	ErrInvalidRequest         = domain.ErrInvalidRequest
	ErrEmbeddingProviderError = domain.ErrEmbeddingProviderError
	ErrLLMProviderError       = domain.ErrLLMProviderError
	ErrImageUnavailable       = domain.ErrImageUnavailable
	ErrEmptyAnswer            = domain.ErrEmptyAnswer
)

// FatalError reports the pipeline stage that failed a turn. Use errors.As() to check.
type FatalError = domain.FatalPipelineError
