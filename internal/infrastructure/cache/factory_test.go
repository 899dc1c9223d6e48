package cache

import (
	"testing"

	"github.com/halo-extras/backend/internal/infrastructure/auth"
	"github.com/halo-extras/backend/internal/infrastructure/config"
	"github.com/halo-extras/backend/internal/infrastructure/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// unreachableRedis points at a port nothing listens on
var unreachableRedis = config.RedisConfig{Host: "127.0.0.1", Port: 1}

func TestFactory_LibraryCache(t *testing.T) {
	t.Run("memory backend", func(t *testing.T) {
		f := NewFactory(config.CacheConfig{Backend: config.CacheBackendMemory}, unreachableRedis, nil)
		c, err := f.LibraryCache()
		require.NoError(t, err)
		assert.IsType(t, &InMemoryLibraryCache{}, c)
	})

	t.Run("database backend", func(t *testing.T) {
		f := NewFactory(config.CacheConfig{Backend: config.CacheBackendDatabase}, unreachableRedis, &gorm.DB{})
		c, err := f.LibraryCache()
		require.NoError(t, err)
		assert.IsType(t, &persistence.GormLibraryCache{}, c)
	})

	t.Run("database backend without database", func(t *testing.T) {
		f := NewFactory(config.CacheConfig{Backend: config.CacheBackendDatabase}, unreachableRedis, nil)
		_, err := f.LibraryCache()
		assert.Error(t, err)
	})

	t.Run("redis backend uses the injected client", func(t *testing.T) {
		_, client := newMiniredisClient(t)
		f := NewFactory(config.CacheConfig{Backend: config.CacheBackendRedis}, unreachableRedis, nil, WithRedisClient(client))

		c, err := f.LibraryCache()
		require.NoError(t, err)
		assert.IsType(t, &RedisLibraryCache{}, c)

		store, err := f.IdempotencyStore()
		require.NoError(t, err)
		assert.IsType(t, &RedisIdempotencyStore{}, store)
	})

	t.Run("redis backend falls back to memory", func(t *testing.T) {
		f := NewFactory(config.CacheConfig{Backend: config.CacheBackendRedis}, unreachableRedis, nil)
		c, err := f.LibraryCache()
		require.NoError(t, err)
		assert.IsType(t, &InMemoryLibraryCache{}, c)

		store, err := f.IdempotencyStore()
		require.NoError(t, err)
		defer store.Close()
		assert.IsType(t, &InMemoryIdempotencyStore{}, store)
	})

	t.Run("redis backend without fallback fails", func(t *testing.T) {
		f := NewFactory(config.CacheConfig{Backend: config.CacheBackendRedis}, unreachableRedis, nil, WithInMemoryFallback(false))
		_, err := f.LibraryCache()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "redis required")
	})
}

func TestFactory_IdempotencyStoreForNonRedisBackend(t *testing.T) {
	f := NewFactory(config.CacheConfig{Backend: config.CacheBackendDatabase}, unreachableRedis, nil)
	store, err := f.IdempotencyStore()
	require.NoError(t, err)
	defer store.Close()
	assert.IsType(t, &InMemoryIdempotencyStore{}, store)
	assert.NoError(t, f.Close())
}

func TestFactory_Revocations(t *testing.T) {
	t.Run("memory when redis is not the backend", func(t *testing.T) {
		f := NewFactory(config.CacheConfig{Backend: config.CacheBackendDatabase}, unreachableRedis, nil)
		assert.Nil(t, f.RedisClient())
		assert.IsType(t, &auth.MemoryRevocationStore{}, f.Revocations())
	})

	t.Run("redis when configured", func(t *testing.T) {
		_, client := newMiniredisClient(t)
		f := NewFactory(config.CacheConfig{Backend: config.CacheBackendRedis, KeyPrefix: "halo:"}, unreachableRedis, nil, WithRedisClient(client))
		assert.Same(t, client, f.RedisClient())
		assert.IsType(t, &auth.RedisRevocationStore{}, f.Revocations())
	})

	t.Run("memory when redis is unreachable", func(t *testing.T) {
		f := NewFactory(config.CacheConfig{Backend: config.CacheBackendRedis}, unreachableRedis, nil)
		assert.Nil(t, f.RedisClient())
		assert.IsType(t, &auth.MemoryRevocationStore{}, f.Revocations())
	})
}
