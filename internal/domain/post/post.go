package post

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/halo-extras/backend/internal/domain/shared"
)

// Annotation keys that steer AI summary handling
const (
	AnnotationSummaryUpdated = "summary.lik.cc/ai-summary-updated"
	AnnotationBlackList      = "summary.xhhao.com/enable-black-list"
	AnnotationManualSummary  = "summary.xhhao.com/update-summary"
)

var postNamePattern = regexp.MustCompile(`^[a-z0-9]([-a-z0-9.]*[a-z0-9])?$`)

// Annotations is a free-form string map stored as JSON
type Annotations map[string]string

// Value implements driver.Valuer
func (a Annotations) Value() (driver.Value, error) {
	if a == nil {
		return "{}", nil
	}
	b, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner
func (a *Annotations) Scan(value interface{}) error {
	var raw []byte
	switch v := value.(type) {
	case nil:
		*a = Annotations{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return errors.New("annotations: unsupported scan type")
	}
	if len(raw) == 0 {
		*a = Annotations{}
		return nil
	}
	return json.Unmarshal(raw, a)
}

// Bool reads an annotation as a boolean; missing or unparsable means false
func (a Annotations) Bool(key string) bool {
	v, ok := a[key]
	if !ok {
		return false
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	return err == nil && b
}

// Post is the minimal article record the AI features work on
type Post struct {
	shared.BaseAggregateRoot
	Name        string      `gorm:"type:varchar(200);not null;uniqueIndex"`
	Title       string      `gorm:"type:varchar(500);not null"`
	Content     string      `gorm:"type:text"`
	Excerpt     string      `gorm:"type:text"`
	Permalink   string      `gorm:"type:varchar(500)"`
	Published   bool        `gorm:"not null;default:false"`
	PublishedAt *time.Time  `gorm:"index"`
	Annotations Annotations `gorm:"type:text"`
	Tags        []Tag       `gorm:"many2many:post_tags;"`
}

// TableName returns the table name for GORM
func (Post) TableName() string {
	return "posts"
}

// NewPost creates an unpublished post
func NewPost(name, title string) (*Post, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	if strings.TrimSpace(title) == "" {
		return nil, shared.NewDomainError("INVALID_TITLE", "Post title cannot be empty")
	}
	return &Post{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		Title:             strings.TrimSpace(title),
		Annotations:       Annotations{},
	}, nil
}

// Edit replaces the title, body and permalink
func (p *Post) Edit(title, content, permalink string) error {
	if strings.TrimSpace(title) == "" {
		return shared.NewDomainError("INVALID_TITLE", "Post title cannot be empty")
	}
	p.Title = strings.TrimSpace(title)
	p.Content = content
	p.Permalink = permalink
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
	return nil
}

// Publish marks the post as published. Publishing an already
// published post is a no-op and emits no event.
func (p *Post) Publish() {
	if p.Published {
		return
	}
	now := time.Now()
	p.Published = true
	p.PublishedAt = &now
	p.UpdatedAt = now
	p.IncrementVersion()
	p.AddDomainEvent(NewPostPublishedEvent(p))
}

// Unpublish moves the post back to draft
func (p *Post) Unpublish() {
	if !p.Published {
		return
	}
	p.Published = false
	p.PublishedAt = nil
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
}

// SetAnnotation sets a single annotation value
func (p *Post) SetAnnotation(key, value string) {
	if p.Annotations == nil {
		p.Annotations = Annotations{}
	}
	p.Annotations[key] = value
}

// IsBlackListed reports whether AI summaries are disabled for the post
func (p *Post) IsBlackListed() bool {
	return p.Annotations.Bool(AnnotationBlackList)
}

// HasManualSummary reports whether the author owns the excerpt
func (p *Post) HasManualSummary() bool {
	return p.Annotations.Bool(AnnotationManualSummary)
}

// SummarySynced reports whether an AI summary was already written back
func (p *Post) SummarySynced() bool {
	return p.Annotations.Bool(AnnotationSummaryUpdated)
}

// ApplySummary writes an AI summary into the excerpt and flags the post as synced
func (p *Post) ApplySummary(summary string) {
	p.Excerpt = summary
	p.SetAnnotation(AnnotationSummaryUpdated, "true")
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
}

// TagNames returns the display names of the post tags
func (p *Post) TagNames() []string {
	names := make([]string, 0, len(p.Tags))
	for _, t := range p.Tags {
		names = append(names, t.DisplayName)
	}
	return names
}

func validateName(name string) error {
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Post name cannot be empty")
	}
	if len(name) > 200 || !postNamePattern.MatchString(name) {
		return shared.NewDomainError("INVALID_NAME", "Post name must be a lowercase slug")
	}
	return nil
}
