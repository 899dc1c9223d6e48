package shared

import (
	"context"
	"time"
)

// IdempotencyStore records which event keys have been handled. MarkProcessed
// must be atomic: of several concurrent callers with the same key, exactly
// one gets true until ttl elapses.
type IdempotencyStore interface {
	MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error)
	IsProcessed(ctx context.Context, key string) (bool, error)
	Close() error
}

// Deduplicated events supply their own key. PostPublished uses the post
// name so that repeated publications of one post collapse.
type Deduplicated interface {
	DedupKey() string
}

// IdempotencyConfig controls IdempotentHandler; disabled means every event
// is handled.
type IdempotencyConfig struct {
	TTL     time.Duration
	Enabled bool
}

func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{TTL: 10 * time.Minute, Enabled: true}
}
