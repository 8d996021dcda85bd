package retrieval

import (
	"context"

	"github.com/kailas-cloud/factlens/internal/domain"
	"github.com/kailas-cloud/factlens/internal/domain/search/filter"
	"github.com/kailas-cloud/factlens/internal/domain/search/hit"
)

// Adapter runs one similarity query against one vector space.
type Adapter interface {
	Search(ctx context.Context, query string, filters filter.Expression, limit int) ([]hit.Scored, error)
}

// TextSpaceSearcher queries the text embedding space.
type TextSpaceSearcher interface {
	SearchDenseText(ctx context.Context, vector []float32, filters filter.Expression, limit int) ([]hit.Scored, error)
}

// ImageSpaceSearcher queries the image embedding space.
type ImageSpaceSearcher interface {
	SearchDenseImage(ctx context.Context, vector []float32, filters filter.Expression, limit int) ([]hit.Scored, error)
}

// LexicalSearcher queries the sparse lexical space.
type LexicalSearcher interface {
	SearchSparse(ctx context.Context, query string, filters filter.Expression, limit int) ([]hit.Scored, error)
}

// ImageResolver loads an image locator into encoder-ready bytes.
type ImageResolver interface {
	Resolve(ctx context.Context, locator string) (domain.EncodedImage, error)
}
