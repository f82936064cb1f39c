// Package viewstate owns what the blog page shows: the loaded posts and
// categories, the active filter or search, and the loading and error flags.
// State changes only through the Controller's named transitions.
package viewstate

import (
	"strconv"

	"github.com/eringen/linkpress/blog"
	"github.com/eringen/linkpress/store"
)

// Status is the load status of the post list.
type Status int

const (
	StatusLoaded Status = iota
	StatusLoading
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusError:
		return "error"
	default:
		return "loaded"
	}
}

// User-facing error messages.
const (
	MsgLoadFailed   = "Failed to load blog data"
	MsgFilterFailed = "Failed to filter posts"
	MsgSearchFailed = "Failed to search posts"
)

// State is a snapshot of the page. A category or tag filter and a search
// term are never active at the same time.
type State struct {
	Posts            []blog.Post
	Categories       []store.Category
	SelectedCategory string // category slug, "" for all
	SelectedTag      string // tag slug, "" for all
	SearchTerm       string
	Status           Status
	Err              string
}

// Loading reports whether a post fetch is in flight.
func (s State) Loading() bool { return s.Status == StatusLoading }

// Featured returns the first post of the loaded list, which is the newest
// post within the current filter or search. It returns nil while loading or
// when the list is empty.
func (s State) Featured() *blog.Post {
	if s.Loading() || len(s.Posts) == 0 {
		return nil
	}
	p := s.Posts[0]
	return &p
}

// Regular returns every loaded post after the featured one. Like Featured,
// it is empty while loading.
func (s State) Regular() []blog.Post {
	if s.Loading() || len(s.Posts) <= 1 {
		return []blog.Post{}
	}
	return s.Posts[1:]
}

// Heading titles the post grid.
func (s State) Heading() string {
	switch {
	case s.SelectedCategory != "":
		return s.CategoryName(s.SelectedCategory) + " Articles"
	case s.SelectedTag != "":
		return "Articles tagged \"" + s.SelectedTag + "\""
	case s.SearchTerm != "":
		return "Search results for \"" + s.SearchTerm + "\""
	default:
		return "Latest Articles"
	}
}

// CategoryName returns the name of the loaded category with slug, falling
// back to the slug itself.
func (s State) CategoryName(slug string) string {
	for _, c := range s.Categories {
		if c.Slug == slug {
			return c.Name
		}
	}
	return slug
}

// CountLabel reads like "1 article" or "3 articles". It is empty while
// loading.
func (s State) CountLabel() string {
	if s.Loading() {
		return ""
	}
	n := len(s.Posts)
	if n == 1 {
		return "1 article"
	}
	return strconv.Itoa(n) + " articles"
}

func (s State) clone() State {
	out := s
	out.Posts = append([]blog.Post(nil), s.Posts...)
	out.Categories = append([]store.Category(nil), s.Categories...)
	if out.Posts == nil {
		out.Posts = []blog.Post{}
	}
	if out.Categories == nil {
		out.Categories = []store.Category{}
	}
	return out
}
