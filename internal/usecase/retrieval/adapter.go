package retrieval

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/factlens/internal/domain"
	"github.com/kailas-cloud/factlens/internal/domain/search/filter"
	"github.com/kailas-cloud/factlens/internal/domain/search/hit"
	"github.com/kailas-cloud/factlens/internal/logger"
)

// DenseAdapter embeds the query text and searches the text vector space.
// The embedder is expected to apply query-side framing (see domain.InstructionEmbedder).
type DenseAdapter struct {
	embedder domain.Embedder
	store    TextSpaceSearcher
}

// NewDenseAdapter creates a dense text adapter.
func NewDenseAdapter(embedder domain.Embedder, store TextSpaceSearcher) *DenseAdapter {
	return &DenseAdapter{embedder: embedder, store: store}
}

// Search implements Adapter.
func (a *DenseAdapter) Search(
	ctx context.Context, query string, filters filter.Expression, limit int,
) ([]hit.Scored, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("empty query: %w", domain.ErrInvalidRequest)
	}
	emb, err := a.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	hits, err := a.store.SearchDenseText(ctx, emb.Embedding, filters, limit)
	if err != nil {
		return nil, fmt.Errorf("dense search: %w", err)
	}
	return hits, nil
}

// SparseAdapter runs a BM25 query over the text content; the store's
// tokenizer acts as the sparse encoder.
type SparseAdapter struct {
	store LexicalSearcher
}

// NewSparseAdapter creates a sparse lexical adapter.
func NewSparseAdapter(store LexicalSearcher) *SparseAdapter {
	return &SparseAdapter{store: store}
}

// Search implements Adapter.
func (a *SparseAdapter) Search(
	ctx context.Context, query string, filters filter.Expression, limit int,
) ([]hit.Scored, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("empty query: %w", domain.ErrInvalidRequest)
	}
	hits, err := a.store.SearchSparse(ctx, query, filters, limit)
	if err != nil {
		return nil, fmt.Errorf("sparse search: %w", err)
	}
	return hits, nil
}

// ImageAdapter resolves an image locator, embeds it and searches the image space.
// Any failure degrades to an empty result: no visual evidence, never an aborted step.
type ImageAdapter struct {
	resolver ImageResolver
	embedder domain.ImageEmbedder
	store    ImageSpaceSearcher
}

// NewImageAdapter creates an image adapter.
func NewImageAdapter(resolver ImageResolver, embedder domain.ImageEmbedder, store ImageSpaceSearcher) *ImageAdapter {
	return &ImageAdapter{resolver: resolver, embedder: embedder, store: store}
}

// Search implements Adapter. The returned error is always nil.
func (a *ImageAdapter) Search(
	ctx context.Context, locator string, filters filter.Expression, limit int,
) ([]hit.Scored, error) {
	hits, err := a.search(ctx, locator, filters, limit)
	if err != nil {
		logger.FromContext(ctx).Warn("Image search degraded to no results",
			zap.String("locator", locator),
			zap.Error(err),
		)
		return []hit.Scored{}, nil
	}
	return hits, nil
}

func (a *ImageAdapter) search(
	ctx context.Context, locator string, filters filter.Expression, limit int,
) ([]hit.Scored, error) {
	img, err := a.resolver.Resolve(ctx, locator)
	if err != nil {
		return nil, fmt.Errorf("resolve image: %w", err)
	}
	emb, err := a.embedder.EmbedImage(ctx, img)
	if err != nil {
		return nil, fmt.Errorf("embed image: %w", err)
	}
	hits, err := a.store.SearchDenseImage(ctx, emb.Embedding, filters, limit)
	if err != nil {
		return nil, fmt.Errorf("image search: %w", err)
	}
	return hits, nil
}
