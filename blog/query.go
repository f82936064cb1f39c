package blog

import (
	"strings"

	"github.com/eringen/linkpress/store"
)

// Filter narrows the post list. Empty fields do not filter.
type Filter struct {
	Category string // category slug
	Tag      string // tag slug
}

// PostsQuery builds the "list posts" query: newest first, with category and
// tags expanded, optionally restricted to a category and a tag.
func PostsQuery(f Filter) store.Query {
	q := baseQuery()
	if f.Category != "" {
		q.Where = append(q.Where, store.Eq("category.slug", f.Category))
	}
	if f.Tag != "" {
		q.Where = append(q.Where, store.Eq("tags.slug", f.Tag))
	}
	return q
}

// SearchQuery builds the "search posts" query: posts whose title or excerpt
// contains term case-insensitively. Wildcards in term match literally.
func SearchQuery(term string) store.Query {
	pattern := "%" + store.EscapeLike(term) + "%"
	q := baseQuery()
	q.AnyOf = []store.Predicate{
		store.ILike("title", pattern),
		store.ILike("excerpt", pattern),
	}
	return q
}

func baseQuery() store.Query {
	return store.Query{
		Order:  []store.Order{store.Desc("published_at")},
		Expand: []string{store.ExpandCategory, store.ExpandTags},
	}
}

// IsBlank reports whether a search term means "no search".
func IsBlank(term string) bool {
	return strings.TrimSpace(term) == ""
}
