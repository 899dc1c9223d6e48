package post

import (
	"github.com/google/uuid"
	"github.com/halo-extras/backend/internal/domain/shared"
)

// AggregateTypePost is the aggregate type for post events
const AggregateTypePost = "Post"

// EventTypePostPublished is emitted when a post becomes public
const EventTypePostPublished = "PostPublished"

// PostPublishedEvent is published when a post transitions to published
type PostPublishedEvent struct {
	shared.BaseDomainEvent
	PostID   uuid.UUID `json:"post_id"`
	PostName string    `json:"post_name"`
	Title    string    `json:"title"`
}

// NewPostPublishedEvent creates a new PostPublishedEvent
func NewPostPublishedEvent(p *Post) *PostPublishedEvent {
	return &PostPublishedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePostPublished, AggregateTypePost, p.ID),
		PostID:          p.ID,
		PostName:        p.Name,
		Title:           p.Title,
	}
}

// DedupKey collapses repeated publications of the same post
func (e *PostPublishedEvent) DedupKey() string {
	return "post-published:" + e.PostName
}
