package redis

import (
	"context"
	"time"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/factlens/internal/db"
)

// Embedding cache entries use plain strings; profiles are JSON documents.

// Get retrieves a cached value by key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.do(ctx, s.b().Get().Key(key).Build()).AsBytes()
	if err != nil {
		return nil, keyError(db.OpGet, err)
	}
	return data, nil
}

// Set stores a value without expiry.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	return s.exec(ctx, db.OpSet, s.b().Set().Key(key).Value(rueidis.BinaryString(value)).Build())
}

// SetWithTTL stores a value that expires after ttl.
func (s *Store) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.exec(ctx, db.OpSet, s.b().Set().Key(key).Value(rueidis.BinaryString(value)).Ex(ttl).Build())
}

// JSONSet writes a JSON document, or the value at path inside it.
func (s *Store) JSONSet(ctx context.Context, key, path string, data []byte) error {
	return s.exec(ctx, db.OpJSONSet, s.b().Arbitrary("JSON.SET").Keys(key).Args(path, string(data)).Build())
}

// JSONGet reads a JSON document. With no paths the whole document is returned.
func (s *Store) JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error) {
	raw, err := s.do(ctx, s.b().Arbitrary("JSON.GET").Keys(key).Args(paths...).Build()).ToString()
	if err != nil {
		return nil, keyError(db.OpJSONGet, err)
	}
	if raw == "" {
		return nil, db.ErrKeyNotFound
	}
	return []byte(raw), nil
}

func (s *Store) exec(ctx context.Context, op string, cmd rueidis.Completed) error {
	if err := s.do(ctx, cmd).Error(); err != nil {
		return &db.Error{Op: op, Err: err}
	}
	return nil
}

// keyError maps a nil reply to db.ErrKeyNotFound.
func keyError(op string, err error) error {
	if rueidis.IsRedisNil(err) {
		return db.ErrKeyNotFound
	}
	return &db.Error{Op: op, Err: err}
}
