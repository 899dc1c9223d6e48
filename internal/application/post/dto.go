package post

import (
	"time"

	"github.com/google/uuid"

	"github.com/halo-extras/backend/internal/domain/post"
)

// UpsertPostRequest represents a request to create or replace a post
type UpsertPostRequest struct {
	Title       string            `json:"title" binding:"required,max=500"`
	Content     string            `json:"content"`
	Permalink   string            `json:"permalink" binding:"omitempty,max=500"`
	Published   bool              `json:"published"`
	Tags        []string          `json:"tags" binding:"omitempty,dive,max=12"`
	Annotations map[string]string `json:"annotations"`
}

// TagResponse represents a tag in API responses
type TagResponse struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
}

// PostResponse represents a post in API responses
type PostResponse struct {
	ID          uuid.UUID         `json:"id"`
	Name        string            `json:"name"`
	Title       string            `json:"title"`
	Content     string            `json:"content"`
	Excerpt     string            `json:"excerpt"`
	Permalink   string            `json:"permalink"`
	Published   bool              `json:"published"`
	PublishedAt *time.Time        `json:"publishedAt,omitempty"`
	Annotations map[string]string `json:"annotations"`
	Tags        []TagResponse     `json:"tags"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}

// ToTagResponses converts tags to their response form
func ToTagResponses(tags []post.Tag) []TagResponse {
	out := make([]TagResponse, 0, len(tags))
	for _, t := range tags {
		out = append(out, TagResponse{Name: t.Name, DisplayName: t.DisplayName})
	}
	return out
}

// ToPostResponse converts a post to its response form
func ToPostResponse(p *post.Post) PostResponse {
	annotations := make(map[string]string, len(p.Annotations))
	for k, v := range p.Annotations {
		annotations[k] = v
	}
	return PostResponse{
		ID:          p.ID,
		Name:        p.Name,
		Title:       p.Title,
		Content:     p.Content,
		Excerpt:     p.Excerpt,
		Permalink:   p.Permalink,
		Published:   p.Published,
		PublishedAt: p.PublishedAt,
		Annotations: annotations,
		Tags:        ToTagResponses(p.Tags),
		UpdatedAt:   p.UpdatedAt,
	}
}
