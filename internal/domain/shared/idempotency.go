package shared

import (
	"context"
	"time"
)

// DefaultIdempotencyTTL is how long a processed request key is remembered
// when no TTL is configured.
const DefaultIdempotencyTTL = 24 * time.Hour

// IdempotencyStore remembers request keys that already produced a committed
// effect, so a client retrying the same mutation does not apply it twice.
type IdempotencyStore interface {
	// MarkProcessed records key until ttl elapses. It reports false when the
	// key was already recorded and has not expired.
	MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error)
	IsProcessed(ctx context.Context, key string) (bool, error)
	Close() error
}
