package cache

import (
	"context"
	"fmt"
	"sync"

	"github.com/halo-extras/backend/internal/domain/shared"
	"github.com/halo-extras/backend/internal/domain/steam"
	"github.com/halo-extras/backend/internal/infrastructure/auth"
	"github.com/halo-extras/backend/internal/infrastructure/config"
	"github.com/halo-extras/backend/internal/infrastructure/persistence"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Factory builds the cache-backed stores selected by configuration.
// A single Redis client is shared by everything the factory creates.
type Factory struct {
	cacheConfig           config.CacheConfig
	redisConfig           config.RedisConfig
	db                    *gorm.DB
	logger                *zap.Logger
	allowInMemoryFallback bool

	mu       sync.Mutex
	client   *redis.Client
	redisErr error
}

// FactoryOption is a functional option for configuring the factory
type FactoryOption func(*Factory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) FactoryOption {
	return func(f *Factory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether an unreachable Redis degrades to
// in-memory stores. Default is true
func WithInMemoryFallback(allow bool) FactoryOption {
	return func(f *Factory) {
		f.allowInMemoryFallback = allow
	}
}

// WithRedisClient injects an existing client instead of dialing one
func WithRedisClient(client *redis.Client) FactoryOption {
	return func(f *Factory) {
		f.client = client
	}
}

// NewFactory creates a new factory. db backs the database cache backend.
func NewFactory(cacheCfg config.CacheConfig, redisCfg config.RedisConfig, db *gorm.DB, opts ...FactoryOption) *Factory {
	f := &Factory{
		cacheConfig:           cacheCfg,
		redisConfig:           redisCfg,
		db:                    db,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *Factory) redisClient() (*redis.Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.client != nil {
		return f.client, nil
	}
	if f.redisErr != nil {
		return nil, f.redisErr
	}

	client, err := NewRedisClient(context.Background(), f.redisConfig)
	if err != nil {
		f.redisErr = err
		return nil, err
	}
	f.client = client
	return client, nil
}

// LibraryCache creates the Steam library cache for the configured backend
func (f *Factory) LibraryCache() (steam.LibraryCache, error) {
	switch f.cacheConfig.Backend {
	case config.CacheBackendMemory:
		return NewInMemoryLibraryCache(), nil
	case config.CacheBackendRedis:
		client, err := f.redisClient()
		if err == nil {
			f.logger.Info("using Redis steam library cache")
			return NewRedisLibraryCache(client, f.cacheConfig.KeyPrefix, f.logger), nil
		}
		if !f.allowInMemoryFallback {
			return nil, fmt.Errorf("redis required for steam library cache but unavailable: %w", err)
		}
		f.logger.Warn("Redis unavailable, falling back to in-memory steam library cache", zap.Error(err))
		return NewInMemoryLibraryCache(), nil
	default:
		if f.db == nil {
			return nil, fmt.Errorf("database cache backend selected but no database is configured")
		}
		return persistence.NewGormLibraryCache(f.db), nil
	}
}

// IdempotencyStore creates the deduplication store for event handlers.
// Redis is used only when it is the configured cache backend.
func (f *Factory) IdempotencyStore() (shared.IdempotencyStore, error) {
	if f.cacheConfig.Backend != config.CacheBackendRedis {
		return NewInMemoryIdempotencyStore(), nil
	}

	client, err := f.redisClient()
	if err == nil {
		return NewRedisIdempotencyStore(client, f.cacheConfig.KeyPrefix), nil
	}
	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("redis required for idempotency but unavailable: %w", err)
	}
	f.logger.Warn("Redis unavailable, falling back to in-memory idempotency store. "+
		"Duplicate events may be processed across instances.",
		zap.Error(err),
	)
	return NewInMemoryIdempotencyStore(), nil
}

// Revocations creates the revoked JWT store. Redis is used only when it
// is the configured cache backend and reachable.
func (f *Factory) Revocations() auth.RevocationStore {
	if client := f.RedisClient(); client != nil {
		return auth.NewRedisRevocationStore(client, f.cacheConfig.KeyPrefix)
	}
	return auth.NewMemoryRevocationStore()
}

// RedisClient returns the shared client when Redis is the configured
// backend, or nil when it is not or cannot be reached.
func (f *Factory) RedisClient() *redis.Client {
	if f.cacheConfig.Backend != config.CacheBackendRedis {
		return nil
	}
	client, err := f.redisClient()
	if err != nil {
		f.logger.Warn("Redis unavailable", zap.Error(err))
		return nil
	}
	return client
}

// Close releases the shared Redis client if the factory opened one
func (f *Factory) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.client == nil {
		return nil
	}
	err := f.client.Close()
	f.client = nil
	return err
}
