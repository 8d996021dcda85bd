package memory

import (
	"context"

	"github.com/kailas-cloud/factlens/internal/domain/profile"
)

// ProfileReader performs point reads of stored profiles by record key.
type ProfileReader interface {
	Get(ctx context.Context, key string) (profile.Profile, error)
}
