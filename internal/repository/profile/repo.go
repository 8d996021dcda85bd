package profile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/kailas-cloud/factlens/internal/db"
	"github.com/kailas-cloud/factlens/internal/domain"
	"github.com/kailas-cloud/factlens/internal/domain/profile"
)

// store is the consumer interface for profile records (ISP).
type store interface {
	JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error)
	JSONSet(ctx context.Context, key, path string, data []byte) error
}

// record is the stored document: the profile payload plus its summary embedding.
type record struct {
	profile.Profile
	SummaryVector []float32 `json:"summary_vector,omitempty"`
}

// Repo reads and writes user profiles stored as JSON documents.
type Repo struct {
	store     store
	keyPrefix string
}

// New creates a profile repository. keyPrefix is e.g. "factlens:profile:".
func New(s store, keyPrefix string) *Repo {
	return &Repo{store: s, keyPrefix: keyPrefix}
}

// Get performs a point lookup by record key. Missing records yield domain.ErrNotFound.
func (r *Repo) Get(ctx context.Context, key string) (profile.Profile, error) {
	data, err := r.store.JSONGet(ctx, r.keyPrefix+key)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return profile.Profile{}, domain.ErrNotFound
		}
		return profile.Profile{}, fmt.Errorf("get profile %s: %w", key, err)
	}

	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return profile.Profile{}, fmt.Errorf("decode profile %s: %w", key, err)
	}
	if rec.ContentPreferences == nil {
		rec.ContentPreferences = map[string]bool{}
	}
	return rec.Profile, nil
}

// Upsert replaces the record at key with p and its summary vector.
func (r *Repo) Upsert(ctx context.Context, key string, p profile.Profile, summaryVector []float32) error {
	data, err := json.Marshal(record{Profile: p, SummaryVector: summaryVector})
	if err != nil {
		return fmt.Errorf("encode profile %s: %w", key, err)
	}
	if err := r.store.JSONSet(ctx, r.keyPrefix+key, "$", data); err != nil {
		return fmt.Errorf("upsert profile %s: %w", key, err)
	}
	return nil
}
