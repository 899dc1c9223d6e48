package shared

import (
	"time"

	"github.com/google/uuid"
)

// DomainEvent is something that happened to a footprint or a post
type DomainEvent interface {
	EventID() uuid.UUID
	EventType() string
	OccurredAt() time.Time
	AggregateID() uuid.UUID
	AggregateType() string
}

// BaseDomainEvent implements DomainEvent for embedding in concrete events
type BaseDomainEvent struct {
	ID          uuid.UUID `json:"id"`
	Type        string    `json:"type"`
	Occurred    time.Time `json:"occurred_at"`
	Subject     uuid.UUID `json:"aggregate_id"`
	SubjectKind string    `json:"aggregate_type"`
}

// NewBaseDomainEvent stamps an event raised by the aggregate aggType/aggID
func NewBaseDomainEvent(eventType, aggType string, aggID uuid.UUID) BaseDomainEvent {
	return BaseDomainEvent{
		ID:          uuid.New(),
		Type:        eventType,
		Occurred:    time.Now(),
		Subject:     aggID,
		SubjectKind: aggType,
	}
}

func (e *BaseDomainEvent) EventID() uuid.UUID { return e.ID }

func (e *BaseDomainEvent) EventType() string { return e.Type }

func (e *BaseDomainEvent) OccurredAt() time.Time { return e.Occurred }

func (e *BaseDomainEvent) AggregateID() uuid.UUID { return e.Subject }

func (e *BaseDomainEvent) AggregateType() string { return e.SubjectKind }
