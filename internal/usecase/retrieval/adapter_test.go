package retrieval

import (
	"context"
	"errors"
	"testing"

	"github.com/kailas-cloud/factlens/internal/domain"
	"github.com/kailas-cloud/factlens/internal/domain/search/filter"
	"github.com/kailas-cloud/factlens/internal/domain/search/hit"
)

// --- Mocks ---

type mockEmbedder struct {
	embedFn func(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	return m.embedFn(ctx, text)
}

type mockImageEmbedder struct {
	embedFn func(ctx context.Context, img domain.EncodedImage) (domain.EmbeddingResult, error)
}

func (m *mockImageEmbedder) EmbedImage(ctx context.Context, img domain.EncodedImage) (domain.EmbeddingResult, error) {
	return m.embedFn(ctx, img)
}

type mockSpaces struct {
	denseTextFn  func(ctx context.Context, vector []float32, f filter.Expression, limit int) ([]hit.Scored, error)
	denseImageFn func(ctx context.Context, vector []float32, f filter.Expression, limit int) ([]hit.Scored, error)
	sparseFn     func(ctx context.Context, query string, f filter.Expression, limit int) ([]hit.Scored, error)
}

func (m *mockSpaces) SearchDenseText(
	ctx context.Context, vector []float32, f filter.Expression, limit int,
) ([]hit.Scored, error) {
	return m.denseTextFn(ctx, vector, f, limit)
}

func (m *mockSpaces) SearchDenseImage(
	ctx context.Context, vector []float32, f filter.Expression, limit int,
) ([]hit.Scored, error) {
	return m.denseImageFn(ctx, vector, f, limit)
}

func (m *mockSpaces) SearchSparse(
	ctx context.Context, query string, f filter.Expression, limit int,
) ([]hit.Scored, error) {
	return m.sparseFn(ctx, query, f, limit)
}

type mockResolver struct {
	resolveFn func(ctx context.Context, locator string) (domain.EncodedImage, error)
}

func (m *mockResolver) Resolve(ctx context.Context, locator string) (domain.EncodedImage, error) {
	return m.resolveFn(ctx, locator)
}

// --- Tests ---

func TestDenseAdapter_EmbedsThenSearches(t *testing.T) {
	var gotText string
	emb := &mockEmbedder{embedFn: func(_ context.Context, text string) (domain.EmbeddingResult, error) {
		gotText = text
		return domain.EmbeddingResult{Embedding: []float32{0.1, 0.2}}, nil
	}}
	spaces := &mockSpaces{denseTextFn: func(_ context.Context, v []float32, _ filter.Expression, limit int) ([]hit.Scored, error) {
		if len(v) != 2 || limit != 10 {
			t.Errorf("unexpected search args: %v %d", v, limit)
		}
		return []hit.Scored{{ID: "a", Score: 0.9}}, nil
	}}

	a := NewDenseAdapter(domain.NewInstructionEmbedder(emb, "query: "), spaces)
	hits, err := a.Search(context.Background(), "VVPAT unit price cost", filter.Expression{}, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotText != "query: VVPAT unit price cost" {
		t.Errorf("expected query framing, got %q", gotText)
	}
	if len(hits) != 1 || hits[0].ID != "a" {
		t.Errorf("unexpected hits: %v", hits)
	}
}

func TestDenseAdapter_EmbedError(t *testing.T) {
	emb := &mockEmbedder{embedFn: func(context.Context, string) (domain.EmbeddingResult, error) {
		return domain.EmbeddingResult{}, domain.ErrEmbeddingProviderError
	}}
	a := NewDenseAdapter(emb, &mockSpaces{})

	_, err := a.Search(context.Background(), "q", filter.Expression{}, 5)
	if !errors.Is(err, domain.ErrEmbeddingProviderError) {
		t.Fatalf("expected ErrEmbeddingProviderError, got %v", err)
	}
}

func TestDenseAdapter_EmptyQuery(t *testing.T) {
	a := NewDenseAdapter(&mockEmbedder{}, &mockSpaces{})

	_, err := a.Search(context.Background(), "  ", filter.Expression{}, 5)
	if !errors.Is(err, domain.ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
}

func TestSparseAdapter_PassesQueryAndFilter(t *testing.T) {
	expr, err := filter.Compile(map[string]any{"category": "Polling Process"})
	if err != nil {
		t.Fatal(err)
	}
	spaces := &mockSpaces{sparseFn: func(_ context.Context, q string, f filter.Expression, limit int) ([]hit.Scored, error) {
		if q != "Form 17C protocol" {
			t.Errorf("query: got %q", q)
		}
		if len(f.Must()) != 1 || f.Must()[0].Key() != "category" {
			t.Errorf("filter not forwarded: %v", f.Must())
		}
		return []hit.Scored{{ID: "f17c", Score: 3.2}}, nil
	}}

	hits, err := NewSparseAdapter(spaces).Search(context.Background(), "Form 17C protocol", expr, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("expected 1 hit, got %d", len(hits))
	}
}

func TestSparseAdapter_StoreError(t *testing.T) {
	spaces := &mockSpaces{sparseFn: func(context.Context, string, filter.Expression, int) ([]hit.Scored, error) {
		return nil, errors.New("connection reset")
	}}

	_, err := NewSparseAdapter(spaces).Search(context.Background(), "q", filter.Expression{}, 5)
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestImageAdapter_Success(t *testing.T) {
	res := &mockResolver{resolveFn: func(_ context.Context, loc string) (domain.EncodedImage, error) {
		if loc != "photo.jpg" {
			t.Errorf("locator: got %q", loc)
		}
		return domain.EncodedImage{MIMEType: "image/jpeg", Data: []byte{1, 2, 3}}, nil
	}}
	emb := &mockImageEmbedder{embedFn: func(_ context.Context, img domain.EncodedImage) (domain.EmbeddingResult, error) {
		return domain.EmbeddingResult{Embedding: []float32{0.5}}, nil
	}}
	spaces := &mockSpaces{denseImageFn: func(context.Context, []float32, filter.Expression, int) ([]hit.Scored, error) {
		return []hit.Scored{{ID: "evm-photo", Score: 0.8}}, nil
	}}

	hits, err := NewImageAdapter(res, emb, spaces).Search(context.Background(), "photo.jpg", filter.Expression{}, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hits) != 1 || hits[0].ID != "evm-photo" {
		t.Errorf("unexpected hits: %v", hits)
	}
}

func TestImageAdapter_FailuresDegradeToEmpty(t *testing.T) {
	okResolver := &mockResolver{resolveFn: func(context.Context, string) (domain.EncodedImage, error) {
		return domain.EncodedImage{Data: []byte{1}}, nil
	}}
	okEmbedder := &mockImageEmbedder{embedFn: func(context.Context, domain.EncodedImage) (domain.EmbeddingResult, error) {
		return domain.EmbeddingResult{Embedding: []float32{1}}, nil
	}}

	tests := []struct {
		name     string
		resolver *mockResolver
		embedder *mockImageEmbedder
		spaces   *mockSpaces
	}{
		{
			name: "unresolvable locator",
			resolver: &mockResolver{resolveFn: func(context.Context, string) (domain.EncodedImage, error) {
				return domain.EncodedImage{}, domain.ErrImageUnavailable
			}},
			embedder: okEmbedder,
			spaces:   &mockSpaces{},
		},
		{
			name:     "encoder failure",
			resolver: okResolver,
			embedder: &mockImageEmbedder{embedFn: func(context.Context, domain.EncodedImage) (domain.EmbeddingResult, error) {
				return domain.EmbeddingResult{}, domain.ErrEmbeddingProviderError
			}},
			spaces: &mockSpaces{},
		},
		{
			name:     "store failure",
			resolver: okResolver,
			embedder: okEmbedder,
			spaces: &mockSpaces{denseImageFn: func(context.Context, []float32, filter.Expression, int) ([]hit.Scored, error) {
				return nil, errors.New("timeout")
			}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hits, err := NewImageAdapter(tt.resolver, tt.embedder, tt.spaces).
				Search(context.Background(), "missing.png", filter.Expression{}, 5)
			if err != nil {
				t.Fatalf("expected failure to be absorbed, got %v", err)
			}
			if hits == nil || len(hits) != 0 {
				t.Errorf("expected empty non-nil hits, got %v", hits)
			}
		})
	}
}
