package views

import (
	"context"
	"strings"

	"github.com/a-h/templ"

	"github.com/eringen/linkpress/blog"
	"github.com/eringen/linkpress/store"
	"github.com/eringen/linkpress/viewstate"
)

// Home renders the full blog page for st.
func Home(site SiteConfig, st viewstate.State, viewer Viewer) templ.Component {
	meta := PageMeta{Title: site.Name, URL: buildURL(site.URL), OGType: "website"}
	if st.SelectedCategory != "" {
		meta.Title = st.Heading()
		meta.URL = strings.TrimRight(buildURL(site.URL), "/") + HomeURL("category", st.SelectedCategory)
	}
	ld := []string{WebsiteJsonLD(site)}
	if len(st.Posts) > 0 {
		ld = append(ld, ItemListJsonLD(st.Posts))
	}
	body := component(func(ctx context.Context, w *writer) {
		w.render(ctx, Header(site, st.SearchTerm, viewer))
		w.raw(`<main class="layout"><aside class="sidebar">`)
		w.render(ctx, CategoryFilter(st.Categories, st.SelectedCategory))
		w.raw(`</aside>`)
		w.render(ctx, BlogSection(st))
		w.raw(`</main>`)
	})
	return page(site, meta, ld, body)
}

// BlogSection renders the featured post, the heading with the article count
// and the grid. It is also served alone for partial page updates.
func BlogSection(st viewstate.State) templ.Component {
	return component(func(ctx context.Context, w *writer) {
		w.raw(`<section id="blog" class="content">`)
		if f := st.Featured(); f != nil {
			w.render(ctx, FeaturedPost(*f))
		}
		w.raw(`<div class="grid-header"><h2>`)
		w.text(st.Heading())
		w.raw(`</h2><span class="count">`)
		w.text(st.CountLabel())
		w.raw(`</span></div>`)
		w.render(ctx, BlogGrid(st.Regular(), st.Loading(), st.Err))
		w.raw(`</section>`)
	})
}

// Header renders the site title, the search form and the account link.
func Header(site SiteConfig, searchTerm string, viewer Viewer) templ.Component {
	return component(func(ctx context.Context, w *writer) {
		w.raw(`<header class="site-header"><a class="brand" href="/">`)
		w.text(site.Name)
		w.raw(`</a><form class="search" role="search" method="get" action="/">`,
			`<input type="search" name="q" placeholder="Search articles..." aria-label="Search articles" value="`)
		w.text(searchTerm)
		w.raw(`"><button type="submit">Search</button></form><nav class="account">`)
		switch {
		case viewer.Admin:
			w.raw(`<a href="/admin/">Admin</a>`)
		case viewer.Name != "":
			w.raw(`<span>`)
			w.text(viewer.Name)
			w.raw(`</span>`)
		default:
			w.raw(`<a href="/admin/">Sign in</a>`)
		}
		w.raw(`</nav></header>`)
	})
}

// CategoryFilter renders the category list with "All Articles" first.
func CategoryFilter(categories []store.Category, selected string) templ.Component {
	return component(func(ctx context.Context, w *writer) {
		w.raw(`<nav class="categories" aria-label="Categories"><h3>Categories</h3><ul>`)
		w.raw(`<li><a class="`, CategoryClass(selected == ""), `" href="/">All Articles</a></li>`)
		for _, c := range categories {
			w.raw(`<li><a class="`, CategoryClass(selected == c.Slug), `" href="`)
			w.url(HomeURL("category", c.Slug))
			w.raw(`">`)
			w.text(c.Name)
			w.raw(`</a></li>`)
		}
		w.raw(`</ul></nav>`)
	})
}

// FeaturedPost renders the large card for the newest post in view.
func FeaturedPost(p blog.Post) templ.Component {
	return component(func(ctx context.Context, w *writer) {
		w.raw(`<article class="featured"><a href="`)
		w.url(p.ArticleURL)
		w.raw(`" target="_blank" rel="noopener noreferrer"><img src="`)
		w.url(p.ImageURL)
		w.raw(`" alt="`)
		w.text(p.Title)
		w.raw(`" loading="eager"></a><div class="featured-body"><span class="badge">Featured</span>`)
		if name := p.CategoryName(); name != "" {
			w.raw(`<a class="badge badge--category" href="`)
			w.url(HomeURL("category", p.Category.Slug))
			w.raw(`">`)
			w.text(name)
			w.raw(`</a>`)
		}
		w.raw(`<h2><a href="`)
		w.url(p.ArticleURL)
		w.raw(`" target="_blank" rel="noopener noreferrer">`)
		w.text(p.Title)
		w.raw(`</a></h2><p>`)
		w.text(p.Excerpt)
		w.raw(`</p>`)
		w.render(ctx, tagList(p.Tags, false))
		w.raw(`<time datetime="`, p.PublishedAt.Format("2006-01-02"), `">`)
		w.text(p.Date())
		w.raw(`</time><a class="button" href="`)
		w.url(p.ArticleURL)
		w.raw(`" target="_blank" rel="noopener noreferrer">Read article</a></div></article>`)
	})
}

// BlogGrid renders posts as cards, or the loading, error or empty state.
func BlogGrid(posts []blog.Post, loading bool, errMsg string) templ.Component {
	return component(func(ctx context.Context, w *writer) {
		switch {
		case loading:
			w.raw(`<div class="grid grid--loading" aria-busy="true">`)
			for i := 0; i < 6; i++ {
				w.raw(`<div class="card card--skeleton"></div>`)
			}
			w.raw(`</div>`)
		case errMsg != "":
			w.raw(`<div class="notice notice--error" role="alert">`)
			w.text(errMsg)
			w.raw(`</div>`)
		case len(posts) == 0:
			w.raw(`<div class="notice">No articles found.</div>`)
		default:
			w.raw(`<div class="grid">`)
			for _, p := range posts {
				w.render(ctx, BlogCard(p))
			}
			w.raw(`</div>`)
		}
	})
}

// BlogCard renders one post card. At most four tags are listed.
func BlogCard(p blog.Post) templ.Component {
	return component(func(ctx context.Context, w *writer) {
		w.raw(`<article class="card"><a href="`)
		w.url(p.ArticleURL)
		w.raw(`" target="_blank" rel="noopener noreferrer"><img src="`)
		w.url(p.ImageURL)
		w.raw(`" alt="`)
		w.text(p.Title)
		w.raw(`" loading="lazy"></a><div class="card-body">`)
		if name := p.CategoryName(); name != "" {
			w.raw(`<a class="badge badge--category" href="`)
			w.url(HomeURL("category", p.Category.Slug))
			w.raw(`">`)
			w.text(name)
			w.raw(`</a>`)
		}
		w.raw(`<h3><a href="`)
		w.url(p.ArticleURL)
		w.raw(`" target="_blank" rel="noopener noreferrer">`)
		w.text(p.Title)
		w.raw(`</a></h3><p>`)
		w.text(p.Excerpt)
		w.raw(`</p>`)
		w.render(ctx, tagList(p.Tags, true))
		w.raw(`<time datetime="`, p.PublishedAt.Format("2006-01-02"), `">`)
		w.text(p.Date())
		w.raw(`</time></div></article>`)
	})
}

// tagList renders tag links. A capped list adds a "+N more" marker.
func tagList(tags []store.Tag, capped bool) templ.Component {
	return component(func(ctx context.Context, w *writer) {
		if len(tags) == 0 {
			return
		}
		shown, more := tags, 0
		if capped {
			shown, more = CardTags(tags)
		}
		w.raw(`<ul class="tags">`)
		for _, t := range shown {
			w.raw(`<li><a class="tag" href="`)
			w.url(HomeURL("tag", t.Slug))
			w.raw(`">`)
			w.text(t.Name)
			w.raw(`</a></li>`)
		}
		if more > 0 {
			w.raw(`<li class="tag tag--more">`, MoreLabel(more), `</li>`)
		}
		w.raw(`</ul>`)
	})
}
