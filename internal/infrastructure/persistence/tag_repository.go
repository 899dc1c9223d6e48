package persistence

import (
	"context"

	"github.com/halo-extras/backend/internal/domain/post"
	"gorm.io/gorm"
)

// GormTagRepository implements TagRepository using GORM
type GormTagRepository struct {
	db *gorm.DB
}

// NewGormTagRepository creates a new GormTagRepository
func NewGormTagRepository(db *gorm.DB) *GormTagRepository {
	return &GormTagRepository{db: db}
}

// FindAll returns all tags ordered by display name
func (r *GormTagRepository) FindAll(ctx context.Context) ([]post.Tag, error) {
	var tags []post.Tag
	if err := r.db.WithContext(ctx).Order("display_name ASC").Find(&tags).Error; err != nil {
		return nil, err
	}
	return tags, nil
}

// FindByDisplayNames returns the tags whose display name is in names
func (r *GormTagRepository) FindByDisplayNames(ctx context.Context, names []string) ([]post.Tag, error) {
	if len(names) == 0 {
		return []post.Tag{}, nil
	}

	var tags []post.Tag
	if err := r.db.WithContext(ctx).Where("display_name IN ?", names).Find(&tags).Error; err != nil {
		return nil, err
	}
	return tags, nil
}

// SaveBatch creates the given tags
func (r *GormTagRepository) SaveBatch(ctx context.Context, tags []*post.Tag) error {
	if len(tags) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(tags).Error
}

// Ensure GormTagRepository implements TagRepository
var _ post.TagRepository = (*GormTagRepository)(nil)
