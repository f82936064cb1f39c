package views

import (
	"context"
	"strings"

	"github.com/a-h/templ"
)

// AdminLogin renders the password form.
func AdminLogin(site SiteConfig, showError bool, csrfToken string) templ.Component {
	body := component(func(ctx context.Context, w *writer) {
		w.raw(`<main class="admin admin--login"><h1>Sign in</h1>`)
		if showError {
			w.raw(`<div class="notice notice--error" role="alert">Invalid password. Please try again.</div>`)
		}
		w.raw(`<form method="post" action="/admin/login/">`)
		csrfField(w, csrfToken)
		w.raw(`<label for="password">Password</label>`,
			`<input id="password" type="password" name="password" autocomplete="current-password" required autofocus>`,
			`<button type="submit">Sign in</button></form>`,
			`<a href="/">Back to articles</a></main>`)
	})
	return page(site, PageMeta{Title: "Sign in"}, nil, body)
}

// AdminDashboard renders the create-article form and the list of posts.
func AdminDashboard(site SiteConfig, d Dashboard) templ.Component {
	body := component(func(ctx context.Context, w *writer) {
		w.raw(`<main class="admin"><header class="admin-header"><h1>Admin</h1>`,
			`<a href="/">View site</a><form method="post" action="/admin/logout/">`)
		csrfField(w, d.CSRF)
		w.raw(`<button type="submit">Sign out</button></form></header>`)

		if d.Message != "" {
			w.raw(`<div class="notice notice--success" role="status">`)
			w.text(d.Message)
			w.raw(`</div>`)
		}
		if d.Error != "" {
			w.raw(`<div class="notice notice--error" role="alert">`)
			w.text(d.Error)
			w.raw(`</div>`)
		}

		w.render(ctx, previewForm(d))
		w.render(ctx, uploadForm(d))
		w.render(ctx, createForm(d))
		w.render(ctx, postTable(d))
		w.raw(`</main>`)
	})
	return page(site, PageMeta{Title: "Admin"}, nil, body)
}

func csrfField(w *writer, token string) {
	w.raw(`<input type="hidden" name="_csrf" value="`)
	w.text(token)
	w.raw(`">`)
}

// previewForm fetches title, excerpt and image from an article link.
func previewForm(d Dashboard) templ.Component {
	return component(func(ctx context.Context, w *writer) {
		w.raw(`<form class="admin-inline" method="get" action="/admin/preview/">`,
			`<label for="preview-url">Prefill from article link</label>`,
			`<input id="preview-url" type="url" name="url" placeholder="https://medium.com/@username/article-title" value="`)
		w.text(d.Form.ArticleURL)
		w.raw(`"><button type="submit">Fetch details</button></form>`)
	})
}

// uploadForm uploads a featured image and fills in its URL.
func uploadForm(d Dashboard) templ.Component {
	return component(func(ctx context.Context, w *writer) {
		w.raw(`<form class="admin-inline" method="post" action="/admin/images/upload/" enctype="multipart/form-data">`)
		csrfField(w, d.CSRF)
		for _, f := range []struct{ name, value string }{
			{"title", d.Form.Title},
			{"slug", d.Form.Slug},
			{"excerpt", d.Form.Excerpt},
			{"article_url", d.Form.ArticleURL},
			{"category_id", d.Form.CategoryID},
			{"tags", strings.Join(d.Form.Tags, ", ")},
		} {
			w.raw(`<input type="hidden" name="`, f.name, `" value="`)
			w.text(f.value)
			w.raw(`">`)
		}
		w.raw(`<label for="image">Upload featured image</label>`,
			`<input id="image" type="file" name="image" accept="image/jpeg,image/png,image/gif,image/webp">`,
			`<button type="submit">Upload</button></form>`)
	})
}

func createForm(d Dashboard) templ.Component {
	return component(func(ctx context.Context, w *writer) {
		w.raw(`<section class="admin-card"><h2>Create New Article</h2>`,
			`<p>Add a new article that links to your published post.</p>`,
			`<form method="post" action="/admin/posts/">`)
		csrfField(w, d.CSRF)

		input := func(name, label, typ, placeholder, value string) {
			w.raw(`<div class="field"><label for="`, name, `">`, label, `</label>`,
				`<input id="`, name, `" name="`, name, `" type="`, typ, `" placeholder="`)
			w.text(placeholder)
			w.raw(`" value="`)
			w.text(value)
			w.raw(`">`)
			fieldError(w, d.Errors[name])
			w.raw(`</div>`)
		}

		input("title", "Title", "text", "Enter article title", d.Form.Title)
		input("slug", "Slug", "text", "article-slug (generated from the title when empty)", d.Form.Slug)

		w.raw(`<div class="field"><label for="excerpt">Excerpt</label>`,
			`<textarea id="excerpt" name="excerpt" rows="3" placeholder="Brief description of the article">`)
		w.text(d.Form.Excerpt)
		w.raw(`</textarea>`)
		fieldError(w, d.Errors["excerpt"])
		w.raw(`</div>`)

		input("article_url", "Article URL", "url", "https://medium.com/@username/article-title", d.Form.ArticleURL)
		input("image_url", "Featured Image URL", "url", "https://example.com/image.jpg", d.Form.ImageURL)

		w.raw(`<div class="field"><label for="category_id">Category</label><select id="category_id" name="category_id">`,
			`<option value="">Select a category</option>`)
		for _, c := range d.Categories {
			w.raw(`<option value="`)
			w.text(c.ID)
			w.raw(`"`)
			if c.ID == d.Form.CategoryID {
				w.raw(` selected`)
			}
			w.raw(`>`)
			w.text(c.Name)
			w.raw(`</option>`)
		}
		w.raw(`</select>`)
		fieldError(w, d.Errors["category_id"])
		w.raw(`</div>`)

		input("tags", "Tags", "text", "Comma-separated, e.g. Go, Databases", strings.Join(d.Form.Tags, ", "))

		w.raw(`<button type="submit">Create Article</button></form></section>`)
	})
}

func fieldError(w *writer, msg string) {
	if msg == "" {
		return
	}
	w.raw(`<p class="field-error">`)
	w.text(msg)
	w.raw(`</p>`)
}

func postTable(d Dashboard) templ.Component {
	return component(func(ctx context.Context, w *writer) {
		w.raw(`<section class="admin-card"><h2>Articles</h2>`)
		if len(d.Posts) == 0 {
			w.raw(`<p>No articles yet.</p></section>`)
			return
		}
		w.raw(`<table><thead><tr><th>Title</th><th>Category</th><th>Tags</th><th>Published</th></tr></thead><tbody>`)
		for _, p := range d.Posts {
			w.raw(`<tr><td><a href="`)
			w.url(p.ArticleURL)
			w.raw(`" target="_blank" rel="noopener noreferrer">`)
			w.text(p.Title)
			w.raw(`</a></td><td>`)
			w.text(p.CategoryName())
			w.raw(`</td><td>`)
			w.text(strings.Join(p.TagNames(), ", "))
			w.raw(`</td><td>`)
			w.text(p.Date())
			w.raw(`</td></tr>`)
		}
		w.raw(`</tbody></table></section>`)
	})
}
