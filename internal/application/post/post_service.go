// Package post manages the posts and tags the AI features read and annotate.
package post

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/halo-extras/backend/internal/domain/post"
	"github.com/halo-extras/backend/internal/domain/shared"
)

// PostService handles post and tag operations
type PostService struct {
	posts          post.PostRepository
	tags           post.TagRepository
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewPostService creates a new PostService
func NewPostService(posts post.PostRepository, tags post.TagRepository, logger *zap.Logger) *PostService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PostService{posts: posts, tags: tags, logger: logger}
}

// SetEventPublisher sets the event publisher for post events
func (s *PostService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Upsert creates the post or replaces its fields. Tags are linked by
// display name and created when missing. Publishing a draft emits
// PostPublished.
func (s *PostService) Upsert(ctx context.Context, name string, req UpsertPostRequest) (*PostResponse, error) {
	p, err := s.posts.FindByName(ctx, name)
	switch {
	case errors.Is(err, shared.ErrNotFound):
		p, err = post.NewPost(name, req.Title)
		if err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	}

	if err := p.Edit(req.Title, req.Content, req.Permalink); err != nil {
		return nil, err
	}
	for k, v := range req.Annotations {
		p.SetAnnotation(k, v)
	}

	tags, err := s.resolveTags(ctx, req.Tags)
	if err != nil {
		return nil, err
	}
	p.Tags = tags

	if req.Published {
		p.Publish()
	} else {
		p.Unpublish()
	}

	if err := s.posts.Save(ctx, p); err != nil {
		return nil, err
	}
	s.publishEvents(ctx, p)

	resp := ToPostResponse(p)
	return &resp, nil
}

// Get returns a post by name
func (s *PostService) Get(ctx context.Context, name string) (*PostResponse, error) {
	p, err := s.posts.FindByName(ctx, name)
	if err != nil {
		return nil, err
	}
	resp := ToPostResponse(p)
	return &resp, nil
}

// ListTags returns every tag ordered by display name
func (s *PostService) ListTags(ctx context.Context) ([]TagResponse, error) {
	tags, err := s.tags.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	return ToTagResponses(tags), nil
}

func (s *PostService) resolveTags(ctx context.Context, names []string) ([]post.Tag, error) {
	wanted := make([]string, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		wanted = append(wanted, n)
	}
	if len(wanted) == 0 {
		return []post.Tag{}, nil
	}

	found, err := s.tags.FindByDisplayNames(ctx, wanted)
	if err != nil {
		return nil, err
	}
	byName := make(map[string]post.Tag, len(found))
	for _, t := range found {
		byName[t.DisplayName] = t
	}

	var created []*post.Tag
	result := make([]post.Tag, 0, len(wanted))
	for _, n := range wanted {
		if t, ok := byName[n]; ok {
			result = append(result, t)
			continue
		}
		t, err := post.NewTag(n)
		if err != nil {
			return nil, err
		}
		created = append(created, t)
		result = append(result, *t)
	}
	if len(created) > 0 {
		if err := s.tags.SaveBatch(ctx, created); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// publishEvents publishes and clears the post's pending events.
// Publishing failures are logged; the write already succeeded.
func (s *PostService) publishEvents(ctx context.Context, p *post.Post) {
	events := p.GetDomainEvents()
	p.ClearDomainEvents()
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("Failed to publish post events",
			zap.String("post", p.Name),
			zap.Error(err))
	}
}
