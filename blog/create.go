package blog

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/hashicorp/go-multierror"

	"github.com/eringen/linkpress/events"
	"github.com/eringen/linkpress/store"
)

// ErrTagNotLinked is reported for a requested tag that could not be found
// after reconciliation and so was not linked to the post.
var ErrTagNotLinked = errors.New("blog: tag not linked")

// CreatePost normalizes and validates in, then inserts the post and links its
// tags in one atomic unit. Tags are matched to existing ones by name without
// regard to case; missing ones are created. Any failure rolls the whole unit
// back, so either the post exists with every requested tag or nothing changed.
func (s *Service) CreatePost(ctx context.Context, in PostInput) (Post, error) {
	in.Normalize()
	if err := in.Validate(); err != nil {
		return Post{}, err
	}

	var (
		created store.PostRecord
		newTags int
	)
	err := s.store.Atomic(ctx, func(tx store.Store) error {
		rec, err := tx.InsertPost(ctx, store.NewPost{
			Title:      in.Title,
			Slug:       in.Slug,
			Excerpt:    in.Excerpt,
			ArticleURL: in.ArticleURL,
			ImageURL:   in.ImageURL,
			CategoryID: in.CategoryID,
		})
		if err != nil {
			return fmt.Errorf("insert post: %w", err)
		}
		if len(in.Tags) > 0 {
			if newTags, err = linkTags(ctx, tx, rec.ID, in.Tags); err != nil {
				return err
			}
		}
		q := baseQuery()
		q.Where = []store.Predicate{store.Eq("id", rec.ID)}
		records, err := tx.SelectPosts(ctx, q)
		if err != nil {
			return fmt.Errorf("reload post: %w", err)
		}
		if len(records) == 0 {
			return fmt.Errorf("reload post %s: %w", rec.ID, store.ErrNotFound)
		}
		created = records[0]
		return nil
	})
	if err != nil {
		storeFailures.WithLabelValues("create post").Inc()
		s.log.Errorf("create post %q: %v", in.Slug, err)
		return Post{}, fmt.Errorf("blog: create post: %w", err)
	}

	postsCreated.Inc()
	tagsCreated.Add(float64(newTags))
	post := flattenOne(created)
	s.log.Infof("created post %q with %d tags (%d new)", post.Slug, len(post.Tags), newTags)

	if err := s.events.PostCreated(ctx, postCreatedEvent(post)); err != nil {
		s.log.Warnf("publish post created %q: %v", post.Slug, err)
	}
	return post, nil
}

// linkTags reconciles names against the tags collection and links every
// resulting tag to postID. It returns the number of tags it created. Failures
// are collected so the caller sees every tag that went wrong at once.
func linkTags(ctx context.Context, tx store.Store, postID string, names []string) (int, error) {
	existing, err := tx.SelectTags(ctx, store.Query{Where: []store.Predicate{store.InFold("name", names...)}})
	if err != nil {
		return 0, fmt.Errorf("load tags: %w", err)
	}
	known := make(map[string]struct{}, len(existing))
	for _, t := range existing {
		known[store.Fold(t.Name)] = struct{}{}
	}

	var result *multierror.Error
	created := 0
	for _, name := range names {
		if _, ok := known[store.Fold(name)]; ok {
			continue
		}
		slug, err := freeTagSlug(ctx, tx, Slugify(name))
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("create tag %q: %w", name, err))
			continue
		}
		if _, err := tx.InsertTag(ctx, store.NewTag{Name: name, Slug: slug}); err != nil {
			result = multierror.Append(result, fmt.Errorf("create tag %q: %w", name, err))
			continue
		}
		created++
	}
	if err := result.ErrorOrNil(); err != nil {
		return created, err
	}

	tags, err := tx.SelectTags(ctx, store.Query{Where: []store.Predicate{store.InFold("name", names...)}})
	if err != nil {
		return created, fmt.Errorf("reload tags: %w", err)
	}
	found := make(map[string]struct{}, len(tags))
	links := make([]store.PostTag, 0, len(tags))
	for _, t := range tags {
		found[store.Fold(t.Name)] = struct{}{}
		links = append(links, store.PostTag{PostID: postID, TagID: t.ID})
	}
	for _, name := range names {
		if _, ok := found[store.Fold(name)]; !ok {
			result = multierror.Append(result, fmt.Errorf("%w: %q", ErrTagNotLinked, name))
		}
	}
	if err := tx.InsertPostTags(ctx, links); err != nil {
		result = multierror.Append(result, fmt.Errorf("link tags: %w", err))
	}
	return created, result.ErrorOrNil()
}

// freeTagSlug returns base, or base with the first free numeric suffix when
// another tag already has it ("C#" holds "c", so "C++" gets "c-2"). Names are
// matched before this runs, so a taken slug always belongs to a different
// name.
func freeTagSlug(ctx context.Context, tx store.Store, base string) (string, error) {
	slug := base
	for n := 2; ; n++ {
		taken, err := tx.SelectTags(ctx, store.Query{Where: []store.Predicate{store.Eq("slug", slug)}})
		if err != nil {
			return "", fmt.Errorf("check slug %q: %w", slug, err)
		}
		if len(taken) == 0 {
			return slug, nil
		}
		slug = base + "-" + strconv.Itoa(n)
	}
}

func postCreatedEvent(p Post) events.PostCreated {
	return events.PostCreated{
		ID:          p.ID,
		Slug:        p.Slug,
		Title:       p.Title,
		ArticleURL:  p.ArticleURL,
		Category:    p.CategoryName(),
		Tags:        p.TagNames(),
		PublishedAt: p.PublishedAt,
	}
}
