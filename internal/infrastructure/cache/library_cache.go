package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/halo-extras/backend/internal/domain/shared"
	"github.com/halo-extras/backend/internal/domain/steam"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const steamLibraryKey = "steam:library"

// RedisLibraryCache keeps the Steam library as a JSON string in Redis.
// Entries do not expire; freshness is decided from Library.LastUpdated.
type RedisLibraryCache struct {
	client *redis.Client
	key    string
	logger *zap.Logger
}

// NewRedisLibraryCache creates a library cache on an existing Redis client
func NewRedisLibraryCache(client *redis.Client, keyPrefix string, logger *zap.Logger) *RedisLibraryCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisLibraryCache{
		client: client,
		key:    keyPrefix + steamLibraryKey,
		logger: logger,
	}
}

// Get returns the cached library
func (c *RedisLibraryCache) Get(ctx context.Context) (*steam.Library, error) {
	data, err := c.client.Get(ctx, c.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get steam library from cache: %w", err)
	}

	var lib steam.Library
	if err := json.Unmarshal(data, &lib); err != nil {
		c.logger.Warn("dropping corrupted steam library cache entry", zap.Error(err))
		_ = c.client.Del(ctx, c.key)
		return nil, shared.ErrNotFound
	}
	return &lib, nil
}

// Save stores the library
func (c *RedisLibraryCache) Save(ctx context.Context, lib *steam.Library) error {
	data, err := json.Marshal(lib)
	if err != nil {
		return fmt.Errorf("encode steam library: %w", err)
	}
	if err := c.client.Set(ctx, c.key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to store steam library: %w", err)
	}
	return nil
}

// Clear removes the cached library
func (c *RedisLibraryCache) Clear(ctx context.Context) error {
	return c.client.Del(ctx, c.key).Err()
}

// Exists reports whether a library is cached
func (c *RedisLibraryCache) Exists(ctx context.Context) (bool, error) {
	n, err := c.client.Exists(ctx, c.key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// InMemoryLibraryCache keeps the library in process memory
type InMemoryLibraryCache struct {
	mu  sync.RWMutex
	lib *steam.Library
}

// NewInMemoryLibraryCache creates an empty in-memory library cache
func NewInMemoryLibraryCache() *InMemoryLibraryCache {
	return &InMemoryLibraryCache{}
}

// Get returns a copy of the cached library
func (c *InMemoryLibraryCache) Get(ctx context.Context) (*steam.Library, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.lib == nil {
		return nil, shared.ErrNotFound
	}
	return cloneLibrary(c.lib), nil
}

// Save stores a copy of the library
func (c *InMemoryLibraryCache) Save(ctx context.Context, lib *steam.Library) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lib = cloneLibrary(lib)
	return nil
}

// Clear removes the cached library
func (c *InMemoryLibraryCache) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lib = nil
	return nil
}

// Exists reports whether a library is cached
func (c *InMemoryLibraryCache) Exists(ctx context.Context) (bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lib != nil, nil
}

func cloneLibrary(lib *steam.Library) *steam.Library {
	out := *lib
	out.Games = append([]steam.Game(nil), lib.Games...)
	return &out
}

var (
	_ steam.LibraryCache = (*RedisLibraryCache)(nil)
	_ steam.LibraryCache = (*InMemoryLibraryCache)(nil)
)
