package profile

import (
	"context"

	"github.com/kailas-cloud/factlens/internal/domain/profile"
)

// Store reads and replaces profile records.
type Store interface {
	Get(ctx context.Context, key string) (profile.Profile, error)
	Upsert(ctx context.Context, key string, p profile.Profile, summaryVector []float32) error
}
