package summary

import (
	"context"
	"strings"
	"time"

	"github.com/halo-extras/backend/internal/domain/shared"
)

// PostSummary is an AI-generated summary attached to a post
type PostSummary struct {
	shared.BaseEntity
	PostName string `gorm:"type:varchar(200);not null;index"`
	PostURL  string `gorm:"type:varchar(500)"`
	Summary  string `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (PostSummary) TableName() string {
	return "post_summaries"
}

// NewPostSummary creates a summary record for a post
func NewPostSummary(postName, postURL, text string) (*PostSummary, error) {
	if strings.TrimSpace(postName) == "" {
		return nil, shared.NewDomainError("INVALID_POST_NAME", "Post name cannot be empty")
	}
	return &PostSummary{
		BaseEntity: shared.NewBaseEntity(),
		PostName:   postName,
		PostURL:    postURL,
		Summary:    text,
	}, nil
}

// Rewrite replaces the summary text
func (s *PostSummary) Rewrite(text string) {
	s.Summary = text
	s.UpdatedAt = time.Now()
}

// SummaryRepository defines the interface for summary persistence
type SummaryRepository interface {
	// FindByPostName returns summaries with non-empty text for the post, oldest first
	FindByPostName(ctx context.Context, postName string) ([]PostSummary, error)

	// Save creates or updates a summary
	Save(ctx context.Context, summary *PostSummary) error
}
