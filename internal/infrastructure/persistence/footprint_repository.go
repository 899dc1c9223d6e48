package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/halo-extras/backend/internal/domain/footprint"
	"github.com/halo-extras/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormFootprintRepository implements FootprintRepository using GORM
type GormFootprintRepository struct {
	db *gorm.DB
}

// NewGormFootprintRepository creates a new GormFootprintRepository
func NewGormFootprintRepository(db *gorm.DB) *GormFootprintRepository {
	return &GormFootprintRepository{db: db}
}

// FindByID finds a footprint by its ID
func (r *GormFootprintRepository) FindByID(ctx context.Context, id uuid.UUID) (*footprint.Footprint, error) {
	var fp footprint.Footprint
	if err := r.db.WithContext(ctx).First(&fp, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &fp, nil
}

// FindAll finds all footprints matching the filter
func (r *GormFootprintRepository) FindAll(ctx context.Context, filter shared.Filter) ([]footprint.Footprint, error) {
	var footprints []footprint.Footprint
	query := r.applyFilter(r.db.WithContext(ctx).Model(&footprint.Footprint{}), filter)

	if err := query.Find(&footprints).Error; err != nil {
		return nil, err
	}
	return footprints, nil
}

// ListAll returns every footprint, newest first
func (r *GormFootprintRepository) ListAll(ctx context.Context) ([]footprint.Footprint, error) {
	var footprints []footprint.Footprint
	if err := r.db.WithContext(ctx).Order("create_time DESC").Find(&footprints).Error; err != nil {
		return nil, err
	}
	return footprints, nil
}

// Save creates or updates a footprint
func (r *GormFootprintRepository) Save(ctx context.Context, fp *footprint.Footprint) error {
	return r.db.WithContext(ctx).Save(fp).Error
}

// Delete deletes a footprint
func (r *GormFootprintRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&footprint.Footprint{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Count counts footprints matching the filter
func (r *GormFootprintRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(r.db.WithContext(ctx).Model(&footprint.Footprint{}), filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// applyFilter applies filter options to the query
func (r *GormFootprintRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}

	return query.Order(footprintOrderClause(filter.OrderBy, filter.OrderDir))
}

// applyFilterWithoutPagination applies filter options without pagination
func (r *GormFootprintRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if search := strings.TrimSpace(filter.Search); search != "" {
		query = query.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(search)+"%")
	}

	for key, value := range filter.Filters {
		if s, ok := value.(string); ok && strings.TrimSpace(s) == "" {
			continue
		}
		switch key {
		case footprint.FilterKeyAuthor:
			query = query.Where("author = ?", value)
		case footprint.FilterKeyFootprintType:
			query = query.Where("footprint_type = ?", value)
		}
	}

	return query
}

// Ensure GormFootprintRepository implements FootprintRepository
var _ footprint.FootprintRepository = (*GormFootprintRepository)(nil)
