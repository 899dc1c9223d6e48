package footprint

import (
	"github.com/google/uuid"
	"github.com/halo-extras/backend/internal/domain/shared"
)

// AggregateTypeFootprint is the aggregate type for footprint events
const AggregateTypeFootprint = "Footprint"

const (
	EventTypeFootprintCreated = "FootprintCreated"
	EventTypeFootprintUpdated = "FootprintUpdated"
	EventTypeFootprintDeleted = "FootprintDeleted"
)

// FootprintCreatedEvent is published when a footprint is created
type FootprintCreatedEvent struct {
	shared.BaseDomainEvent
	FootprintID uuid.UUID `json:"footprint_id"`
	Name        string    `json:"name"`
	Longitude   float64   `json:"longitude"`
	Latitude    float64   `json:"latitude"`
}

// NewFootprintCreatedEvent creates a new FootprintCreatedEvent
func NewFootprintCreatedEvent(f *Footprint) *FootprintCreatedEvent {
	return &FootprintCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeFootprintCreated, AggregateTypeFootprint, f.ID),
		FootprintID:     f.ID,
		Name:            f.Name,
		Longitude:       f.Location.Longitude,
		Latitude:        f.Location.Latitude,
	}
}

// FootprintUpdatedEvent is published when a footprint changes
type FootprintUpdatedEvent struct {
	shared.BaseDomainEvent
	FootprintID uuid.UUID `json:"footprint_id"`
	Name        string    `json:"name"`
}

// NewFootprintUpdatedEvent creates a new FootprintUpdatedEvent
func NewFootprintUpdatedEvent(f *Footprint) *FootprintUpdatedEvent {
	return &FootprintUpdatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeFootprintUpdated, AggregateTypeFootprint, f.ID),
		FootprintID:     f.ID,
		Name:            f.Name,
	}
}

// FootprintDeletedEvent is published when a footprint is removed
type FootprintDeletedEvent struct {
	shared.BaseDomainEvent
	FootprintID uuid.UUID `json:"footprint_id"`
	Name        string    `json:"name"`
}

// NewFootprintDeletedEvent creates a new FootprintDeletedEvent
func NewFootprintDeletedEvent(f *Footprint) *FootprintDeletedEvent {
	return &FootprintDeletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeFootprintDeleted, AggregateTypeFootprint, f.ID),
		FootprintID:     f.ID,
		Name:            f.Name,
	}
}
