package factlens

import "context"

// Embedder converts text to vector embeddings in the knowledge base text space.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// ImageEmbedder vectorizes an image into the knowledge base visual space.
// Optional: without it image plan steps return no results.
type ImageEmbedder interface {
	EmbedImage(ctx context.Context, img Image) (EmbeddingResult, error)
}

// Completer sends one system+user exchange to a language model.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// EmbeddingResult carries the embedding vector and token counts.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// Image is an image re-encoded as opaque RGB.
type Image struct {
	MIMEType string
	Data     []byte
	Width    int
	Height   int
}

// CompletionRequest is a single model call. Zero MaxTokens or Temperature
// leaves the model default.
type CompletionRequest struct {
	System      string
	User        string
	MaxTokens   int
	Temperature float32
}
