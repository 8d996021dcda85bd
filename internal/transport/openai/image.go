package openai

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/kailas-cloud/factlens/internal/domain"
)

// ImageEmbedder sends images as base64 data URLs to an OpenAI-compatible
// multimodal embeddings endpoint (CLIP-style models served behind /embeddings).
type ImageEmbedder struct {
	inner *Embedder
}

// NewImageEmbedder creates an image embedding provider.
func NewImageEmbedder(cfg *Config) *ImageEmbedder {
	return &ImageEmbedder{inner: NewEmbedder(cfg)}
}

// EmbedImage implements domain.ImageEmbedder.
func (e *ImageEmbedder) EmbedImage(ctx context.Context, img domain.EncodedImage) (domain.EmbeddingResult, error) {
	if len(img.Data) == 0 {
		return domain.EmbeddingResult{}, fmt.Errorf("empty image: %w", domain.ErrImageUnavailable)
	}
	return e.inner.create(ctx, []string{dataURL(img)})
}

// HealthCheck verifies API availability.
func (e *ImageEmbedder) HealthCheck(ctx context.Context) error {
	return e.inner.HealthCheck(ctx)
}

func dataURL(img domain.EncodedImage) string {
	mime := img.MIMEType
	if mime == "" {
		mime = "image/jpeg"
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(img.Data)
}
