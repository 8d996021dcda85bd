package search

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/kailas-cloud/factlens/internal/db"
	"github.com/kailas-cloud/factlens/internal/domain/search/filter"
	"github.com/kailas-cloud/factlens/internal/domain/search/hit"
)

// Field names of the knowledge base record layout.
const (
	PayloadField     = "__payload"
	TextContentField = "text_content"
	DenseTextField   = "dense_text"
	DenseImageField  = "dense_image"
)

// store is the consumer interface for search operations (ISP).
type store interface {
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	SearchBM25(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error)
}

// Layout locates the knowledge base inside the store.
type Layout struct {
	IndexName string // e.g. factlens:kb:idx
	KeyPrefix string // e.g. factlens:kb:
}

// Repo runs single-space queries against the knowledge base.
// Every vector space indexes the same records, so one record id is shared across spaces.
type Repo struct {
	store  store
	layout Layout
}

// New creates a search repository.
func New(s store, layout Layout) *Repo {
	return &Repo{store: s, layout: layout}
}

// SearchDenseText runs a nearest-neighbor query in the text embedding space.
func (r *Repo) SearchDenseText(
	ctx context.Context, vector []float32, filters filter.Expression, limit int,
) ([]hit.Scored, error) {
	return r.searchKNN(ctx, DenseTextField, vector, filters, limit)
}

// SearchDenseImage runs a nearest-neighbor query in the image embedding space.
func (r *Repo) SearchDenseImage(
	ctx context.Context, vector []float32, filters filter.Expression, limit int,
) ([]hit.Scored, error) {
	return r.searchKNN(ctx, DenseImageField, vector, filters, limit)
}

// SearchSparse runs a BM25 term-weighted query over the record text.
func (r *Repo) SearchSparse(
	ctx context.Context, query string, filters filter.Expression, limit int,
) ([]hit.Scored, error) {
	q := &db.TextQuery{
		IndexName:    r.layout.IndexName,
		TextField:    TextContentField,
		Query:        query,
		Filters:      filters,
		TopK:         limit,
		ReturnFields: []string{PayloadField, TextContentField},
	}

	sr, err := r.store.SearchBM25(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("search bm25 %s: %w", r.layout.IndexName, err)
	}
	return r.toHits(sr), nil
}

func (r *Repo) searchKNN(
	ctx context.Context, field string, vector []float32, filters filter.Expression, limit int,
) ([]hit.Scored, error) {
	q := &db.KNNQuery{
		IndexName:    r.layout.IndexName,
		VectorField:  field,
		Filters:      filters,
		Vector:       vector,
		K:            limit,
		ReturnFields: []string{PayloadField, TextContentField},
	}

	sr, err := r.store.SearchKNN(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("search knn %s/%s: %w", r.layout.IndexName, field, err)
	}
	return r.toHits(sr), nil
}

// toHits keeps store order, which is descending similarity.
func (r *Repo) toHits(sr *db.SearchResult) []hit.Scored {
	if sr == nil || len(sr.Entries) == 0 {
		return nil
	}

	hits := make([]hit.Scored, 0, len(sr.Entries))
	for _, entry := range sr.Entries {
		hits = append(hits, hit.Scored{
			ID:      strings.TrimPrefix(entry.Key, r.layout.KeyPrefix),
			Score:   entry.Score,
			Payload: parsePayload(entry.Fields),
		})
	}
	return hits
}

// parsePayload prefers the full JSON payload and falls back to flat hash fields.
func parsePayload(fields map[string]string) map[string]any {
	if raw, ok := fields[PayloadField]; ok && raw != "" {
		var payload map[string]any
		if err := json.Unmarshal([]byte(raw), &payload); err == nil {
			return payload
		}
	}

	payload := make(map[string]any, len(fields))
	for k, v := range fields {
		switch k {
		case PayloadField, DenseTextField, DenseImageField:
			continue
		}
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			payload[k] = f
		} else {
			payload[k] = v
		}
	}
	return payload
}
