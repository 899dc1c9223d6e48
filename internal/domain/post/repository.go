package post

import "context"

// PostRepository defines the interface for post persistence
type PostRepository interface {
	// FindByName finds a post by its unique name, tags included
	FindByName(ctx context.Context, name string) (*Post, error)

	// ListPublished returns every published post
	ListPublished(ctx context.Context) ([]Post, error)

	// ListAll returns every post regardless of status
	ListAll(ctx context.Context) ([]Post, error)

	// Save creates or updates a post together with its tag links
	Save(ctx context.Context, post *Post) error
}

// TagRepository defines the interface for tag persistence
type TagRepository interface {
	// FindAll returns all tags ordered by display name
	FindAll(ctx context.Context) ([]Tag, error)

	// FindByDisplayNames returns the tags whose display name is in names
	FindByDisplayNames(ctx context.Context, names []string) ([]Tag, error)

	// SaveBatch creates the given tags
	SaveBatch(ctx context.Context, tags []*Tag) error
}
