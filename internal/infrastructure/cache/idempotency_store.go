package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/halo-extras/backend/internal/domain/shared"
)

var (
	_ shared.IdempotencyStore = (*RedisIdempotencyStore)(nil)
	_ shared.IdempotencyStore = (*InMemoryIdempotencyStore)(nil)
)

// RedisIdempotencyStore shares handled-event keys between instances. The
// client belongs to the Factory, so Close does nothing.
type RedisIdempotencyStore struct {
	client *redis.Client
	prefix string
}

func NewRedisIdempotencyStore(client *redis.Client, keyPrefix string) *RedisIdempotencyStore {
	return &RedisIdempotencyStore{client: client, prefix: keyPrefix + "events:seen:"}
}

// MarkProcessed uses SET NX so exactly one caller wins a key per TTL
func (s *RedisIdempotencyStore) MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	won, err := s.client.SetNX(ctx, s.prefix+key, time.Now().Unix(), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("mark event %s: %w", key, err)
	}
	return won, nil
}

func (s *RedisIdempotencyStore) IsProcessed(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Exists(ctx, s.prefix+key).Result()
	if err != nil {
		return false, fmt.Errorf("look up event %s: %w", key, err)
	}
	return n == 1, nil
}

func (s *RedisIdempotencyStore) Close() error { return nil }

// idempotencySweepEvery bounds how often MarkProcessed scans for expired keys
const idempotencySweepEvery = time.Minute

// InMemoryIdempotencyStore is used when Redis is not the cache backend.
// Expired keys are dropped on write, at most once per idempotencySweepEvery.
type InMemoryIdempotencyStore struct {
	mu        sync.Mutex
	expiry    map[string]time.Time
	lastSweep time.Time
	now       func() time.Time
}

func NewInMemoryIdempotencyStore() *InMemoryIdempotencyStore {
	return &InMemoryIdempotencyStore{expiry: make(map[string]time.Time), now: time.Now}
}

func (s *InMemoryIdempotencyStore) MarkProcessed(_ context.Context, key string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if now.Sub(s.lastSweep) >= idempotencySweepEvery {
		s.sweep(now)
	}
	if exp, ok := s.expiry[key]; ok && now.Before(exp) {
		return false, nil
	}
	s.expiry[key] = now.Add(ttl)
	return true, nil
}

func (s *InMemoryIdempotencyStore) IsProcessed(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	exp, ok := s.expiry[key]
	return ok && s.now().Before(exp), nil
}

// sweep must be called with mu held
func (s *InMemoryIdempotencyStore) sweep(now time.Time) {
	for k, exp := range s.expiry {
		if !now.Before(exp) {
			delete(s.expiry, k)
		}
	}
	s.lastSweep = now
}

// Close drops every key
func (s *InMemoryIdempotencyStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.expiry)
	return nil
}

// Size counts stored keys, expired ones included until the next sweep
func (s *InMemoryIdempotencyStore) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.expiry)
}
