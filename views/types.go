package views

import (
	"github.com/eringen/linkpress/blog"
	"github.com/eringen/linkpress/store"
)

// SiteConfig holds the site-wide settings templates need.
type SiteConfig struct {
	Name        string
	URL         string
	Description string
	Author      string
}

// PageMeta carries per-page OpenGraph and SEO metadata into the <head> template.
type PageMeta struct {
	Title       string
	Description string
	URL         string // canonical + og:url
	OGType      string // "website" or "article"
}

// Viewer is who is looking at the page.
type Viewer struct {
	Name  string
	Admin bool
}

// Dashboard is everything the admin page shows.
type Dashboard struct {
	Posts      []blog.Post
	Categories []store.Category
	Form       blog.PostInput
	Errors     map[string]string // per-field form errors
	Message    string            // success notice
	Error      string            // failure notice
	CSRF       string
}
