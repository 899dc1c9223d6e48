package footprint

import (
	"context"

	"github.com/google/uuid"
	"github.com/halo-extras/backend/internal/domain/shared"
)

// Filter keys understood by FootprintRepository.FindAll and Count
const (
	FilterKeyAuthor        = "author"
	FilterKeyFootprintType = "footprint_type"
)

// FootprintRepository defines the interface for footprint persistence
type FootprintRepository interface {
	// FindByID finds a footprint by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Footprint, error)

	// FindAll finds footprints matching the filter; Search matches the name
	FindAll(ctx context.Context, filter shared.Filter) ([]Footprint, error)

	// ListAll returns every footprint, newest first
	ListAll(ctx context.Context) ([]Footprint, error)

	// Save creates or updates a footprint
	Save(ctx context.Context, footprint *Footprint) error

	// Delete deletes a footprint
	Delete(ctx context.Context, id uuid.UUID) error

	// Count counts footprints matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)
}

// Geocoder resolves a free-form address to coordinates
type Geocoder interface {
	Geocode(ctx context.Context, address string) (Location, error)
}
