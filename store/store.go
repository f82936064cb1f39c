// Package store is the collection store behind linkpress: posts, categories,
// tags and the post/tag links, queried through a small generic Query type and
// backed by SQLite or PostgreSQL.
package store

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a single-row read matches nothing.
	ErrNotFound = errors.New("store: not found")
	// ErrConflict is returned when an insert violates a unique constraint.
	ErrConflict = errors.New("store: conflict")
	// ErrUnknownField is returned when a query names a field the collection
	// does not expose.
	ErrUnknownField = errors.New("store: unknown field")
)

// Category groups posts. Categories are seeded, never created by readers.
type Category struct {
	ID          string    `json:"id" yaml:"-"`
	Name        string    `json:"name" yaml:"name"`
	Slug        string    `json:"slug" yaml:"slug"`
	Description string    `json:"description,omitempty" yaml:"description"`
	CreatedAt   time.Time `json:"created_at" yaml:"-"`
}

// Tag is a free-form label. Names are unique case-insensitively.
type Tag struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"created_at"`
}

// TagLink is one expanded row of the post_tags relation.
type TagLink struct {
	Tag *Tag `json:"tag"`
}

// PostRecord is a post row as the store returns it, with relations present
// only when the query asked for them.
type PostRecord struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Slug        string    `json:"slug"`
	Excerpt     string    `json:"excerpt"`
	ArticleURL  string    `json:"article_url"`
	ImageURL    string    `json:"image_url"`
	CategoryID  string    `json:"category_id,omitempty"`
	PublishedAt time.Time `json:"published_at"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Category *Category `json:"category,omitempty"`
	TagLinks []TagLink `json:"tags,omitempty"`
}

// PostTag links a post to a tag.
type PostTag struct {
	PostID string `json:"post_id"`
	TagID  string `json:"tag_id"`
}

// NewPost holds the columns a caller supplies when inserting a post.
// A zero PublishedAt means now.
type NewPost struct {
	Title       string
	Slug        string
	Excerpt     string
	ArticleURL  string
	ImageURL    string
	CategoryID  string
	PublishedAt time.Time
}

// NewTag holds the columns a caller supplies when inserting a tag.
type NewTag struct {
	Name string
	Slug string
}

// NewCategory holds the columns a caller supplies when inserting a category.
type NewCategory struct {
	Name        string
	Slug        string
	Description string
}

// Store is the read/write contract of the collection store.
type Store interface {
	SelectPosts(ctx context.Context, q Query) ([]PostRecord, error)
	SelectCategories(ctx context.Context, q Query) ([]Category, error)
	SelectTags(ctx context.Context, q Query) ([]Tag, error)

	InsertPost(ctx context.Context, p NewPost) (PostRecord, error)
	InsertTag(ctx context.Context, t NewTag) (Tag, error)
	InsertPostTags(ctx context.Context, links []PostTag) error
	InsertCategory(ctx context.Context, c NewCategory) (Category, error)

	// Atomic runs fn against a transactional view of the store. The
	// transaction commits when fn returns nil and rolls back otherwise.
	Atomic(ctx context.Context, fn func(tx Store) error) error

	Close() error
}
