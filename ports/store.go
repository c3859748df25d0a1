package ports

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Store.Get for missing or expired keys.
var ErrNotFound = errors.New("key not found")

// Store is a TTL key-value store. It backs three concerns: pending ceremony
// state, the single-slot in-flight guard, and revoked session token IDs.
type Store interface {
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// SetNX sets the key only if it does not already exist and reports
	// whether it was set.
	SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error)

	Get(ctx context.Context, key string) (string, error)

	Delete(ctx context.Context, key string) error
}
