package shared

import (
	"context"
	"time"
)

// IdempotencyStore remembers request keys that were already accepted
type IdempotencyStore interface {
	// MarkProcessed records key with a TTL.
	// Returns true if the key was newly recorded, false if it was already present.
	MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// IsProcessed checks whether key is currently recorded
	IsProcessed(ctx context.Context, key string) (bool, error)

	// Forget removes key so the request can be retried
	Forget(ctx context.Context, key string) error

	// Close closes the store and releases resources
	Close() error
}
