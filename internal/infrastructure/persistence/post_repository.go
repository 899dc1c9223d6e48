package persistence

import (
	"context"
	"errors"

	"github.com/halo-extras/backend/internal/domain/post"
	"github.com/halo-extras/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormPostRepository implements PostRepository using GORM
type GormPostRepository struct {
	db *gorm.DB
}

// NewGormPostRepository creates a new GormPostRepository
func NewGormPostRepository(db *gorm.DB) *GormPostRepository {
	return &GormPostRepository{db: db}
}

// FindByName finds a post by its unique name, tags included
func (r *GormPostRepository) FindByName(ctx context.Context, name string) (*post.Post, error) {
	var p post.Post
	if err := r.db.WithContext(ctx).Preload("Tags").Where("name = ?", name).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// ListPublished returns every published post, most recent first
func (r *GormPostRepository) ListPublished(ctx context.Context) ([]post.Post, error) {
	var posts []post.Post
	if err := r.db.WithContext(ctx).
		Preload("Tags").
		Where("published = ?", true).
		Order("published_at DESC").
		Find(&posts).Error; err != nil {
		return nil, err
	}
	return posts, nil
}

// ListAll returns every post ordered by name
func (r *GormPostRepository) ListAll(ctx context.Context) ([]post.Post, error) {
	var posts []post.Post
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&posts).Error; err != nil {
		return nil, err
	}
	return posts, nil
}

// Save creates or updates a post and replaces its tag links
func (r *GormPostRepository) Save(ctx context.Context, p *post.Post) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Tags").Save(p).Error; err != nil {
			return err
		}
		return tx.Model(p).Association("Tags").Replace(p.Tags)
	})
}

// Ensure GormPostRepository implements PostRepository
var _ post.PostRepository = (*GormPostRepository)(nil)
