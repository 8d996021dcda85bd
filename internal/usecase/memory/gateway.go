package memory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kailas-cloud/factlens/internal/domain"
	"github.com/kailas-cloud/factlens/internal/domain/profile"
)

// Gateway resolves a user id to its long-term profile. It never writes.
type Gateway struct {
	profiles ProfileReader
	timeout  time.Duration
}

// New creates a memory gateway. A zero timeout leaves the deadline to ctx.
func New(profiles ProfileReader, timeout time.Duration) *Gateway {
	return &Gateway{profiles: profiles, timeout: timeout}
}

// Lookup returns the stored profile of userID, or the default profile
// when none exists yet. Store failures are returned to the caller.
func (g *Gateway) Lookup(ctx context.Context, userID string) (profile.Profile, error) {
	if userID == "" {
		return profile.Profile{}, fmt.Errorf("user id is required: %w", domain.ErrInvalidRequest)
	}

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	key := profile.Key(userID)
	p, err := g.profiles.Get(ctx, key)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return profile.Default(userID), nil
		}
		return profile.Profile{}, fmt.Errorf("lookup profile of %q: %w", userID, err)
	}

	if p.UserID == "" {
		p.UserID = userID
	}
	if p.Persona == "" {
		p.Persona = profile.DefaultPersona
	}
	return p, nil
}
