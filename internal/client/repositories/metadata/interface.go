package metadata

import (
	"context"
)

// Repository is a flat key-value store. Get returns (nil, nil) for an
// absent key; Delete of an absent key succeeds.
type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) (map[string][]byte, error)
	Clear(ctx context.Context) error
}

// Store writes and removes several keys all-or-nothing. Removing absent
// keys is not an error.
type Store interface {
	Repository
	SetKeys(ctx context.Context, values map[string][]byte) error
	DeleteKeys(ctx context.Context, keys ...string) error
}
