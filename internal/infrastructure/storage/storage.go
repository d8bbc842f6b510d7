// Package storage persists small client state (the session token and the
// serialized cart) between invocations.
package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/takeout/client/internal/domain/shared"
)

// Well-known keys
const (
	KeyToken = "token"
	KeyCart  = "cart"
)

// ErrNotFound is returned by Get when the key is absent
var ErrNotFound = shared.NewDomainError("STORAGE_NOT_FOUND", "key not found in storage")

// Store is a string key/value store
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// GetJSON loads key and decodes it into v
func GetJSON(ctx context.Context, s Store, key string, v any) error {
	raw, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return fmt.Errorf("decoding %s: %w", key, err)
	}
	return nil
}

// SetJSON encodes v and stores it under key
func SetJSON(ctx context.Context, s Store, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}
	return s.Set(ctx, key, string(data))
}
