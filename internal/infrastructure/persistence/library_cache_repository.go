package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/halo-extras/backend/internal/domain/shared"
	"github.com/halo-extras/backend/internal/domain/steam"
	"github.com/halo-extras/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SteamLibraryKey is the cache_entries key holding the Steam library
const SteamLibraryKey = "steam-game-data"

// GormLibraryCache stores the Steam library as one cache_entries row
type GormLibraryCache struct {
	db  *gorm.DB
	key string
}

// NewGormLibraryCache creates a database-backed library cache
func NewGormLibraryCache(db *gorm.DB) *GormLibraryCache {
	return &GormLibraryCache{db: db, key: SteamLibraryKey}
}

// Get returns the cached library
func (c *GormLibraryCache) Get(ctx context.Context) (*steam.Library, error) {
	var entry models.CacheEntryModel
	if err := c.db.WithContext(ctx).Where("key = ?", c.key).First(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}

	var lib steam.Library
	if err := json.Unmarshal([]byte(entry.Value), &lib); err != nil {
		return nil, fmt.Errorf("decode cached steam library: %w", err)
	}
	return &lib, nil
}

// Save upserts the library
func (c *GormLibraryCache) Save(ctx context.Context, lib *steam.Library) error {
	data, err := json.Marshal(lib)
	if err != nil {
		return fmt.Errorf("encode steam library: %w", err)
	}
	entry := models.CacheEntryModel{
		Key:       c.key,
		Value:     string(data),
		UpdatedAt: time.Now(),
	}
	return c.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&entry).Error
}

// Clear removes the cached library
func (c *GormLibraryCache) Clear(ctx context.Context) error {
	return c.db.WithContext(ctx).Where("key = ?", c.key).Delete(&models.CacheEntryModel{}).Error
}

// Exists reports whether a library is cached
func (c *GormLibraryCache) Exists(ctx context.Context) (bool, error) {
	var count int64
	if err := c.db.WithContext(ctx).Model(&models.CacheEntryModel{}).Where("key = ?", c.key).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Ensure GormLibraryCache implements LibraryCache
var _ steam.LibraryCache = (*GormLibraryCache)(nil)
