package blog

import (
	"context"
	"errors"
	"fmt"

	"github.com/labstack/echo/v4"

	"github.com/eringen/linkpress/events"
	"github.com/eringen/linkpress/store"
)

// Service answers the blog's read queries and creates posts.
type Service struct {
	store  store.Store
	log    echo.Logger
	events events.Publisher
}

// Option configures a Service.
type Option func(*Service)

// WithPublisher sets where post events go. The default discards them.
func WithPublisher(p events.Publisher) Option {
	return func(s *Service) {
		s.events = p
	}
}

// NewService returns a Service reading and writing st.
func NewService(st store.Store, logger echo.Logger, opts ...Option) *Service {
	s := &Service{store: st, log: logger, events: events.Nop{}}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListPosts returns posts matching f, newest first. On failure it returns an
// empty list together with the error.
func (s *Service) ListPosts(ctx context.Context, f Filter) ([]Post, error) {
	records, err := s.store.SelectPosts(ctx, PostsQuery(f))
	if err != nil {
		return []Post{}, s.failed("list posts", err)
	}
	return Flatten(records), nil
}

// SearchPosts returns posts whose title or excerpt contains term. A blank
// term lists all posts.
func (s *Service) SearchPosts(ctx context.Context, term string) ([]Post, error) {
	if IsBlank(term) {
		return s.ListPosts(ctx, Filter{})
	}
	records, err := s.store.SelectPosts(ctx, SearchQuery(term))
	if err != nil {
		return []Post{}, s.failed("search posts", err)
	}
	return Flatten(records), nil
}

// GetPost returns the post with slug, or store.ErrNotFound.
func (s *Service) GetPost(ctx context.Context, slug string) (Post, error) {
	q := baseQuery()
	q.Where = []store.Predicate{store.Eq("slug", slug)}
	q.Limit = 1
	records, err := s.store.SelectPosts(ctx, q)
	if err != nil {
		return Post{}, s.failed("get post", err)
	}
	if len(records) == 0 {
		return Post{}, fmt.Errorf("blog: post %q: %w", slug, store.ErrNotFound)
	}
	return flattenOne(records[0]), nil
}

// ListCategories returns every category by name.
func (s *Service) ListCategories(ctx context.Context) ([]store.Category, error) {
	categories, err := s.store.SelectCategories(ctx, store.Query{Order: []store.Order{store.Asc("name")}})
	if err != nil {
		return []store.Category{}, s.failed("list categories", err)
	}
	return categories, nil
}

// ListTags returns every tag by name.
func (s *Service) ListTags(ctx context.Context) ([]store.Tag, error) {
	tags, err := s.store.SelectTags(ctx, store.Query{Order: []store.Order{store.Asc("name")}})
	if err != nil {
		return []store.Tag{}, s.failed("list tags", err)
	}
	return tags, nil
}

func (s *Service) failed(op string, err error) error {
	if !errors.Is(err, context.Canceled) {
		storeFailures.WithLabelValues(op).Inc()
		s.log.Errorf("%s: %v", op, err)
	}
	return fmt.Errorf("blog: %s: %w", op, err)
}
