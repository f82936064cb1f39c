// Package blog composes store queries for the public blog, flattens the
// results into posts, and creates posts on behalf of the admin.
package blog

import (
	"time"

	"github.com/eringen/linkpress/store"
)

// Post is a post with its relations flattened: the category, if any, and the
// list of tags in tag-name order.
type Post struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Slug        string          `json:"slug"`
	Excerpt     string          `json:"excerpt"`
	ArticleURL  string          `json:"article_url"`
	ImageURL    string          `json:"image_url"`
	CategoryID  string          `json:"category_id,omitempty"`
	PublishedAt time.Time       `json:"published_at"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	Category    *store.Category `json:"category,omitempty"`
	Tags        []store.Tag     `json:"tags"`
}

// Date formats the publication date for display.
func (p Post) Date() string {
	return p.PublishedAt.Format("Jan 2, 2006")
}

// CategoryName returns the category name, or "" for uncategorized posts.
func (p Post) CategoryName() string {
	if p.Category == nil {
		return ""
	}
	return p.Category.Name
}

// TagNames returns the names of the post's tags.
func (p Post) TagNames() []string {
	names := make([]string, len(p.Tags))
	for i, t := range p.Tags {
		names[i] = t.Name
	}
	return names
}

// Flatten converts store records into posts, replacing the tag link rows with
// the tags they point at. Tags is never nil.
func Flatten(records []store.PostRecord) []Post {
	posts := make([]Post, 0, len(records))
	for _, r := range records {
		posts = append(posts, flattenOne(r))
	}
	return posts
}

func flattenOne(r store.PostRecord) Post {
	tags := make([]store.Tag, 0, len(r.TagLinks))
	for _, l := range r.TagLinks {
		if l.Tag != nil {
			tags = append(tags, *l.Tag)
		}
	}
	return Post{
		ID:          r.ID,
		Title:       r.Title,
		Slug:        r.Slug,
		Excerpt:     r.Excerpt,
		ArticleURL:  r.ArticleURL,
		ImageURL:    r.ImageURL,
		CategoryID:  r.CategoryID,
		PublishedAt: r.PublishedAt,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
		Category:    r.Category,
		Tags:        tags,
	}
}
