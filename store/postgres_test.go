package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpg "github.com/testcontainers/testcontainers-go/modules/postgres"
)

func setupPostgres(t *testing.T) *SQL {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres container test in short mode")
	}
	ctx := context.Background()

	container, err := tcpg.Run(ctx,
		"postgres:16-alpine",
		tcpg.WithDatabase("linkpress"),
		tcpg.WithUsername("postgres"),
		tcpg.WithPassword("password"),
		tcpg.BasicWaitStrategies(),
	)
	if err != nil {
		t.Skipf("postgres container unavailable: %v", err)
	}
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	s, err := Open(ctx, Config{Driver: DriverPostgres, DSN: dsn})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPostgresQueries(t *testing.T) {
	s := setupPostgres(t)
	ctx := context.Background()

	cat, err := s.InsertCategory(ctx, NewCategory{Name: "Engineering", Slug: "engineering"})
	require.NoError(t, err)
	goTag, err := s.InsertTag(ctx, NewTag{Name: "Go", Slug: "go"})
	require.NoError(t, err)

	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	for i, title := range []string{"First Go post", "Second post", "Third 50% post"} {
		p, err := s.InsertPost(ctx, NewPost{
			Title:       title,
			Slug:        "post-" + string(rune('a'+i)),
			Excerpt:     "excerpt",
			ArticleURL:  "https://medium.com/p",
			ImageURL:    "https://img.example/p.jpg",
			CategoryID:  cat.ID,
			PublishedAt: base.Add(time.Duration(i) * time.Hour),
		})
		require.NoError(t, err)
		if i == 0 {
			require.NoError(t, s.InsertPostTags(ctx, []PostTag{{PostID: p.ID, TagID: goTag.ID}}))
		}
	}

	all, err := s.SelectPosts(ctx, Query{
		Order:  []Order{Desc("published_at")},
		Expand: []string{ExpandCategory, ExpandTags},
	})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "post-c", all[0].Slug)
	assert.Equal(t, "engineering", all[0].Category.Slug)
	require.Len(t, all[2].TagLinks, 1)
	assert.Equal(t, "Go", all[2].TagLinks[0].Tag.Name)

	byCategory, err := s.SelectPosts(ctx, Query{Where: []Predicate{Eq("category.slug", "engineering")}})
	require.NoError(t, err)
	assert.Len(t, byCategory, 3)

	byTag, err := s.SelectPosts(ctx, Query{Where: []Predicate{Eq("tags.slug", "go")}})
	require.NoError(t, err)
	require.Len(t, byTag, 1)
	assert.Equal(t, "post-a", byTag[0].Slug)

	pattern := "%" + EscapeLike("50%") + "%"
	found, err := s.SelectPosts(ctx, Query{AnyOf: []Predicate{ILike("title", pattern), ILike("excerpt", pattern)}})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "post-c", found[0].Slug)

	tags, err := s.SelectTags(ctx, Query{Where: []Predicate{InFold("name", "GO")}})
	require.NoError(t, err)
	assert.Len(t, tags, 1)

	_, err = s.InsertTag(ctx, NewTag{Name: "go", Slug: "go-2"})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestPostgresAtomicRollback(t *testing.T) {
	s := setupPostgres(t)
	ctx := context.Background()

	err := s.Atomic(ctx, func(tx Store) error {
		if _, err := tx.InsertTag(ctx, NewTag{Name: "A", Slug: "a"}); err != nil {
			return err
		}
		_, err := tx.InsertTag(ctx, NewTag{Name: "a", Slug: "a-2"})
		return err
	})
	assert.ErrorIs(t, err, ErrConflict)

	tags, err := s.SelectTags(ctx, Query{})
	require.NoError(t, err)
	assert.Empty(t, tags)
}
