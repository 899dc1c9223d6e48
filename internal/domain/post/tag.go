package post

import (
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/halo-extras/backend/internal/domain/shared"
)

// MaxTagLength is the longest display name accepted for a tag
const MaxTagLength = 12

// Tag is a post label
type Tag struct {
	shared.BaseEntity
	Name        string `gorm:"type:varchar(100);not null;uniqueIndex"`
	DisplayName string `gorm:"type:varchar(100);not null;uniqueIndex"`
}

// TableName returns the table name for GORM
func (Tag) TableName() string {
	return "tags"
}

// NewTag creates a tag with a generated metadata name
func NewTag(displayName string) (*Tag, error) {
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return nil, shared.NewDomainError("INVALID_TAG", "Tag name cannot be empty")
	}
	if utf8.RuneCountInString(displayName) > MaxTagLength {
		return nil, shared.NewDomainError("INVALID_TAG", "Tag name cannot exceed 12 characters")
	}
	return &Tag{
		BaseEntity:  shared.NewBaseEntity(),
		Name:        "tag-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12],
		DisplayName: displayName,
	}, nil
}
