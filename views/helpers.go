package views

import (
	"encoding/json"
	"net/url"
	"path"
	"strconv"
	"strings"

	"github.com/eringen/linkpress/blog"
	"github.com/eringen/linkpress/store"
)

// maxCardTags is how many tags a card lists before summarizing the rest.
const maxCardTags = 4

// buildURL joins path segments onto a base URL, ensuring a trailing slash.
func buildURL(base string, pathSegments ...string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	u.Path = path.Join(u.Path, path.Join(pathSegments...))
	if len(pathSegments) > 0 && !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	return u.String()
}

// HomeURL returns the home page link for a filter: "/", "/?category=x",
// "/?tag=y" or "/?q=term".
func HomeURL(key, value string) string {
	if value == "" {
		return "/"
	}
	return "/?" + url.Values{key: {value}}.Encode()
}

// CardTags splits tags into the ones a card shows and a count of the rest.
func CardTags(tags []store.Tag) ([]store.Tag, int) {
	if len(tags) <= maxCardTags {
		return tags, 0
	}
	return tags[:maxCardTags], len(tags) - maxCardTags
}

// MoreLabel reads like "+2 more".
func MoreLabel(n int) string {
	return "+" + strconv.Itoa(n) + " more"
}

// CategoryClass returns CSS classes for a category filter entry, with active variant.
func CategoryClass(active bool) string {
	base := "category"
	if active {
		base += " category--active"
	}
	return base
}

// WebsiteJsonLD produces a Schema.org WebSite JSON-LD block using cfg values.
func WebsiteJsonLD(cfg SiteConfig) string {
	data := map[string]interface{}{
		"@context": "https://schema.org",
		"@type":    "WebSite",
		"name":     cfg.Name,
		"url":      buildURL(cfg.URL),
		"potentialAction": map[string]string{
			"@type":       "SearchAction",
			"target":      strings.TrimRight(buildURL(cfg.URL), "/") + "/?q={search_term_string}",
			"query-input": "required name=search_term_string",
		},
	}
	if cfg.Description != "" {
		data["description"] = cfg.Description
	}
	if cfg.Author != "" {
		data["author"] = map[string]string{
			"@type": "Person",
			"name":  cfg.Author,
		}
	}
	return marshalJsonLD(data)
}

// ItemListJsonLD lists posts as a Schema.org ItemList pointing at the
// external articles.
func ItemListJsonLD(posts []blog.Post) string {
	items := make([]map[string]interface{}, len(posts))
	for i, p := range posts {
		items[i] = map[string]interface{}{
			"@type":    "ListItem",
			"position": i + 1,
			"url":      p.ArticleURL,
			"name":     p.Title,
		}
	}
	return marshalJsonLD(map[string]interface{}{
		"@context":        "https://schema.org",
		"@type":           "ItemList",
		"itemListElement": items,
	})
}

// marshalJsonLD encodes v for a <script type="application/ld+json"> block.
// json.Marshal escapes <, > and & so the output cannot close the script.
func marshalJsonLD(v interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(b)
}
