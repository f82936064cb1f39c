package views

import (
	"context"

	"github.com/a-h/templ"
)

// page wraps body in the shared document shell.
func page(site SiteConfig, meta PageMeta, jsonLD []string, body templ.Component) templ.Component {
	return component(func(ctx context.Context, w *writer) {
		title := site.Name
		if meta.Title != "" && meta.Title != site.Name {
			title = meta.Title + " | " + site.Name
		}
		description := meta.Description
		if description == "" {
			description = site.Description
		}
		ogType := meta.OGType
		if ogType == "" {
			ogType = "website"
		}

		w.raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`,
			`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		w.raw(`<title>`)
		w.text(title)
		w.raw(`</title><meta name="description" content="`)
		w.text(description)
		w.raw(`"><meta property="og:title" content="`)
		w.text(title)
		w.raw(`"><meta property="og:description" content="`)
		w.text(description)
		w.raw(`"><meta property="og:type" content="`)
		w.text(ogType)
		w.raw(`">`)
		if meta.URL != "" {
			w.raw(`<link rel="canonical" href="`)
			w.url(meta.URL)
			w.raw(`"><meta property="og:url" content="`)
			w.url(meta.URL)
			w.raw(`">`)
		}
		w.raw(`<link rel="alternate" type="application/rss+xml" title="`)
		w.text(site.Name)
		w.raw(`" href="/feed.xml">`,
			`<link rel="stylesheet" href="/public/linkpress.css">`,
			`<script src="/public/linkpress.js" defer></script>`)
		for _, ld := range jsonLD {
			w.raw(`<script type="application/ld+json">`, ld, `</script>`)
		}
		w.raw(`</head><body>`)
		w.render(ctx, body)
		w.raw(`</body></html>`)
	})
}

// NotFound renders the 404 page.
func NotFound(site SiteConfig) templ.Component {
	return page(site, PageMeta{Title: "Page not found"}, nil, message(
		"Page not found",
		"The page you are looking for does not exist.",
	))
}

// ServerError renders the 500 page.
func ServerError(site SiteConfig) templ.Component {
	return page(site, PageMeta{Title: "Something went wrong"}, nil, message(
		"Something went wrong",
		"Please try again in a moment.",
	))
}

func message(heading, body string) templ.Component {
	return component(func(ctx context.Context, w *writer) {
		w.raw(`<main class="message"><h1>`)
		w.text(heading)
		w.raw(`</h1><p>`)
		w.text(body)
		w.raw(`</p><a class="button" href="/">Back to articles</a></main>`)
	})
}
