package views

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eringen/linkpress/blog"
	"github.com/eringen/linkpress/store"
	"github.com/eringen/linkpress/viewstate"
)

var testSite = SiteConfig{Name: "Link Press", URL: "https://blog.example.com", Description: "Notes"}

func render(t *testing.T, c templ.Component) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, c.Render(context.Background(), &buf))
	return buf.String()
}

func samplePost(slug string, tags ...string) blog.Post {
	p := blog.Post{
		Slug:        slug,
		Title:       "Post " + slug,
		Excerpt:     "About " + slug,
		ArticleURL:  "https://medium.com/@me/" + slug,
		ImageURL:    "https://img.example/" + slug + ".jpg",
		PublishedAt: time.Date(2024, 2, 3, 0, 0, 0, 0, time.UTC),
		Category:    &store.Category{Name: "Engineering", Slug: "engineering"},
		Tags:        []store.Tag{},
	}
	for _, name := range tags {
		p.Tags = append(p.Tags, store.Tag{Name: name, Slug: blog.Slugify(name)})
	}
	return p
}

func TestBlogCardShowsFourTagsThenMore(t *testing.T) {
	out := render(t, BlogCard(samplePost("a", "One", "Two", "Three", "Four", "Five", "Six")))

	for _, name := range []string{"One", "Two", "Three", "Four"} {
		assert.Contains(t, out, ">"+name+"</a>")
	}
	assert.NotContains(t, out, ">Five<")
	assert.Contains(t, out, "+2 more")
	assert.Contains(t, out, `href="/?tag=one"`)
	assert.Contains(t, out, "Feb 3, 2024")
	assert.Contains(t, out, `rel="noopener noreferrer"`)
}

func TestBlogCardExactlyFourTags(t *testing.T) {
	out := render(t, BlogCard(samplePost("a", "One", "Two", "Three", "Four")))
	assert.NotContains(t, out, "more")
}

func TestComponentsEscapeContent(t *testing.T) {
	p := samplePost("x")
	p.Title = `<script>alert("x")</script>`
	p.ArticleURL = "javascript:alert(1)"

	out := render(t, BlogCard(p))
	assert.NotContains(t, out, "<script>")
	assert.Contains(t, out, "&lt;script&gt;")
	assert.NotContains(t, out, "javascript:")

	out = render(t, Header(testSite, `"><img src=x>`, Viewer{}))
	assert.NotContains(t, out, `"><img src=x>`)
	assert.Contains(t, out, "Sign in")
}

func TestBlogSectionStates(t *testing.T) {
	loading := render(t, BlogSection(viewstate.State{Status: viewstate.StatusLoading}))
	assert.Contains(t, loading, `aria-busy="true"`)
	assert.NotContains(t, loading, "Featured")

	failed := render(t, BlogSection(viewstate.State{Status: viewstate.StatusError, Err: viewstate.MsgFilterFailed}))
	assert.Contains(t, failed, "Failed to filter posts")
	assert.Contains(t, failed, "0 articles")

	empty := render(t, BlogSection(viewstate.State{}))
	assert.Contains(t, empty, "No articles found.")
	assert.Contains(t, empty, "Latest Articles")

	one := render(t, BlogSection(viewstate.State{Posts: []blog.Post{samplePost("solo")}}))
	assert.Contains(t, one, "Featured")
	assert.Contains(t, one, "1 article")
	assert.Contains(t, one, "No articles found.", "the featured post is not repeated in the grid")
}

func TestHomePage(t *testing.T) {
	st := viewstate.State{
		Posts:            []blog.Post{samplePost("first"), samplePost("second", "Go")},
		Categories:       []store.Category{{Name: "Engineering", Slug: "engineering"}, {Name: "Culture", Slug: "culture"}},
		SelectedCategory: "engineering",
	}
	out := render(t, Home(testSite, st, Viewer{Admin: true}))

	assert.Contains(t, out, "<!DOCTYPE html>")
	assert.Contains(t, out, "<title>Engineering Articles | Link Press</title>")
	assert.Contains(t, out, `href="https://blog.example.com/?category=engineering"`)
	assert.Contains(t, out, `class="category category--active" href="/?category=engineering"`)
	assert.Contains(t, out, `class="category" href="/?category=culture"`)
	assert.Contains(t, out, `href="/admin/">Admin</a>`)
	assert.Contains(t, out, `"@type":"ItemList"`)
	assert.Contains(t, out, `id="blog"`)
}

func TestAdminDashboard(t *testing.T) {
	d := Dashboard{
		Categories: []store.Category{{ID: "c1", Name: "Engineering"}},
		Form:       blog.PostInput{Title: "Draft", CategoryID: "c1", Tags: []string{"Go", "SQL"}},
		Errors:     map[string]string{"article_url": "Article URL is required"},
		Error:      "Failed to create article",
		CSRF:       "tok",
	}
	out := render(t, AdminDashboard(testSite, d))

	assert.Contains(t, out, `name="_csrf" value="tok"`)
	assert.Contains(t, out, `<option value="c1" selected>Engineering</option>`)
	assert.Contains(t, out, `value="Go, SQL"`)
	assert.Contains(t, out, "Article URL is required")
	assert.Contains(t, out, "Failed to create article")
	assert.Contains(t, out, "No articles yet.")
}

func TestAdminLogin(t *testing.T) {
	assert.Contains(t, render(t, AdminLogin(testSite, true, "tok")), "Invalid password")
	assert.NotContains(t, render(t, AdminLogin(testSite, false, "tok")), "Invalid password")
}

func TestErrorPages(t *testing.T) {
	assert.Contains(t, render(t, NotFound(testSite)), "Page not found")
	assert.Contains(t, render(t, ServerError(testSite)), "Something went wrong")
}

func TestHomeURL(t *testing.T) {
	assert.Equal(t, "/", HomeURL("q", ""))
	assert.Equal(t, "/?q=go+%26+rust", HomeURL("q", "go & rust"))
	assert.Equal(t, "/?category=engineering", HomeURL("category", "engineering"))
}
