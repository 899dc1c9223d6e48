package persistence

import (
	"context"

	"github.com/halo-extras/backend/internal/domain/summary"
	"gorm.io/gorm"
)

// GormSummaryRepository implements SummaryRepository using GORM
type GormSummaryRepository struct {
	db *gorm.DB
}

// NewGormSummaryRepository creates a new GormSummaryRepository
func NewGormSummaryRepository(db *gorm.DB) *GormSummaryRepository {
	return &GormSummaryRepository{db: db}
}

// FindByPostName returns summaries with non-empty text for the post, oldest first
func (r *GormSummaryRepository) FindByPostName(ctx context.Context, postName string) ([]summary.PostSummary, error) {
	var summaries []summary.PostSummary
	if err := r.db.WithContext(ctx).
		Where("post_name = ? AND summary <> ''", postName).
		Order("created_at ASC").
		Find(&summaries).Error; err != nil {
		return nil, err
	}
	return summaries, nil
}

// Save creates or updates a summary
func (r *GormSummaryRepository) Save(ctx context.Context, s *summary.PostSummary) error {
	return r.db.WithContext(ctx).Save(s).Error
}

// Ensure GormSummaryRepository implements SummaryRepository
var _ summary.SummaryRepository = (*GormSummaryRepository)(nil)
