package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/halo-extras/backend/internal/domain/post"
	"github.com/halo-extras/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var postColumns = []string{
	"id", "created_at", "updated_at", "version", "name", "title", "content",
	"excerpt", "permalink", "published", "published_at", "annotations",
}

func TestGormPostRepository_FindByName(t *testing.T) {
	t.Run("loads post with tags", func(t *testing.T) {
		gormDB, mock, mockDB := newMockGormDB(t)
		defer mockDB.Close()
		repo := NewGormPostRepository(gormDB)

		postID, tagID := uuid.New(), uuid.New()
		now := time.Now()
		mock.ExpectQuery(`SELECT \* FROM "posts" WHERE name = \$1 ORDER BY .* LIMIT .*`).
			WithArgs("hello-world", 1).
			WillReturnRows(sqlmock.NewRows(postColumns).AddRow(
				postID, now, now, 1, "hello-world", "Hello", "body", "", "/archives/hello-world",
				true, now, `{"summary.xhhao.com/enable-black-list":"true"}`,
			))
		mock.ExpectQuery(`SELECT \* FROM "post_tags" WHERE "post_tags"."post_id" = \$1`).
			WithArgs(postID).
			WillReturnRows(sqlmock.NewRows([]string{"post_id", "tag_id"}).AddRow(postID, tagID))
		mock.ExpectQuery(`SELECT \* FROM "tags" WHERE "tags"."id" = \$1`).
			WithArgs(tagID).
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at", "name", "display_name"}).
				AddRow(tagID, now, now, "tag-abc", "Go"))

		p, err := repo.FindByName(context.Background(), "hello-world")
		require.NoError(t, err)
		assert.Equal(t, "Hello", p.Title)
		assert.True(t, p.IsBlackListed())
		assert.Equal(t, []string{"Go"}, p.TagNames())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("maps record not found", func(t *testing.T) {
		gormDB, mock, mockDB := newMockGormDB(t)
		defer mockDB.Close()
		repo := NewGormPostRepository(gormDB)

		mock.ExpectQuery(`SELECT \* FROM "posts" WHERE name = \$1`).
			WithArgs("missing", 1).
			WillReturnError(gorm.ErrRecordNotFound)

		p, err := repo.FindByName(context.Background(), "missing")
		assert.Nil(t, p)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestGormPostRepository_ListPublished(t *testing.T) {
	gormDB, mock, mockDB := newMockGormDB(t)
	defer mockDB.Close()
	repo := NewGormPostRepository(gormDB)

	now := time.Now()
	postID := uuid.New()
	mock.ExpectQuery(`SELECT \* FROM "posts" WHERE published = \$1 ORDER BY published_at DESC`).
		WithArgs(true).
		WillReturnRows(sqlmock.NewRows(postColumns).AddRow(
			postID, now, now, 1, "p1", "P1", "", "", "/p1", true, now, "",
		))
	mock.ExpectQuery(`SELECT \* FROM "post_tags"`).
		WillReturnRows(sqlmock.NewRows([]string{"post_id", "tag_id"}))

	posts, err := repo.ListPublished(context.Background())
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Empty(t, posts[0].Tags)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormPostRepository_ListAll(t *testing.T) {
	gormDB, mock, mockDB := newMockGormDB(t)
	defer mockDB.Close()

	now := time.Now()
	mock.ExpectQuery(`SELECT \* FROM "posts" ORDER BY name ASC`).
		WillReturnRows(sqlmock.NewRows(postColumns).
			AddRow(uuid.New(), now, now, 1, "a", "A", "", "", "/a", false, nil, "").
			AddRow(uuid.New(), now, now, 1, "b", "B", "", "", "/b", true, now, `{"summary.lik.cc/ai-summary-updated":"true"}`))

	posts, err := NewGormPostRepository(gormDB).ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.False(t, posts[0].SummarySynced())
	assert.True(t, posts[1].SummarySynced())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormTagRepository(t *testing.T) {
	t.Run("FindByDisplayNames short-circuits on empty input", func(t *testing.T) {
		gormDB, mock, mockDB := newMockGormDB(t)
		defer mockDB.Close()

		tags, err := NewGormTagRepository(gormDB).FindByDisplayNames(context.Background(), nil)
		require.NoError(t, err)
		assert.Empty(t, tags)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("FindByDisplayNames", func(t *testing.T) {
		gormDB, mock, mockDB := newMockGormDB(t)
		defer mockDB.Close()

		now := time.Now()
		mock.ExpectQuery(`SELECT \* FROM "tags" WHERE display_name IN \(\$1,\$2\)`).
			WithArgs("Go", "Rust").
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at", "name", "display_name"}).
				AddRow(uuid.New(), now, now, "tag-1", "Go"))

		tags, err := NewGormTagRepository(gormDB).FindByDisplayNames(context.Background(), []string{"Go", "Rust"})
		require.NoError(t, err)
		require.Len(t, tags, 1)
		assert.Equal(t, "Go", tags[0].DisplayName)
	})

	t.Run("FindAll orders by display name", func(t *testing.T) {
		gormDB, mock, mockDB := newMockGormDB(t)
		defer mockDB.Close()

		mock.ExpectQuery(`SELECT \* FROM "tags" ORDER BY display_name ASC`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "name", "display_name"}))

		tags, err := NewGormTagRepository(gormDB).FindAll(context.Background())
		require.NoError(t, err)
		assert.Empty(t, tags)
	})

	t.Run("SaveBatch inserts all tags", func(t *testing.T) {
		gormDB, mock, mockDB := newMockGormDB(t)
		defer mockDB.Close()

		a, err := post.NewTag("云原生")
		require.NoError(t, err)
		b, err := post.NewTag("数据库")
		require.NoError(t, err)

		mock.ExpectExec(`INSERT INTO "tags"`).WillReturnResult(sqlmock.NewResult(0, 2))

		require.NoError(t, NewGormTagRepository(gormDB).SaveBatch(context.Background(), []*post.Tag{a, b}))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
