package blogkit

import (
	"html/template"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/eringen/blogkit/markdown"
)

// Slugify converts a title to a URL-safe slug.
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	prev := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			prev = false
		default:
			if !prev && b.Len() > 0 {
				b.WriteByte('-')
				prev = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}

// BuildURL joins a base URL with path segments, ensuring a trailing slash.
func BuildURL(base string, pathSegments ...string) string {
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

// absoluteURL resolves a site path such as /public/uploads/x.jpg against base.
// Absolute URLs and empty strings are returned unchanged.
func absoluteURL(base, ref string) string {
	if ref == "" || !strings.HasPrefix(ref, "/") {
		return ref
	}
	return strings.TrimRight(base, "/") + ref
}

// Crumb is one step of a breadcrumb trail.
type Crumb struct {
	Name string
	URL  string
}

func marshalJSONLD(data map[string]any) template.JS {
	b, err := json.Marshal(data)
	if err != nil {
		return "{}"
	}
	return template.JS(b)
}

func person(name string) map[string]string {
	return map[string]string{"@type": "Person", "name": name}
}

// WebsiteJSONLD returns a Schema.org WebSite block.
func WebsiteJSONLD(cfg SiteConfig) template.JS {
	data := map[string]any{
		"@context": "https://schema.org",
		"@type":    "WebSite",
		"name":     cfg.Name,
		"url":      BuildURL(cfg.URL),
		"potentialAction": map[string]any{
			"@type":       "SearchAction",
			"target":      BuildURL(cfg.URL, "/") + "?q={search_term_string}",
			"query-input": "required name=search_term_string",
		},
	}
	if cfg.Description != "" {
		data["description"] = cfg.Description
	}
	if cfg.Author != "" {
		data["author"] = person(cfg.Author)
	}
	return marshalJSONLD(data)
}

// BlogPostingJSONLD returns a Schema.org BlogPosting block for post.
func BlogPostingJSONLD(cfg SiteConfig, post Post) template.JS {
	postURL := BuildURL(cfg.URL, "blog", post.ID)
	data := map[string]any{
		"@context":      "https://schema.org",
		"@type":         "BlogPosting",
		"headline":      post.Title,
		"description":   post.Summary,
		"datePublished": post.Date.UTC().Format(time.RFC3339),
		"url":           postURL,
		"wordCount":     markdown.WordCount(post.Content),
		"publisher": map[string]string{
			"@type": "Organization",
			"name":  cfg.Name,
		},
		"mainEntityOfPage": map[string]string{
			"@type": "WebPage",
			"@id":   postURL,
		},
	}
	if cfg.Author != "" {
		data["author"] = person(cfg.Author)
	}
	if post.Tag != "" {
		data["articleSection"] = post.Tag
	}
	if post.Image != "" {
		data["image"] = absoluteURL(cfg.URL, post.Image)
	}
	if post.Series != "" {
		data["isPartOf"] = map[string]string{
			"@type": "CreativeWorkSeries",
			"name":  post.Series,
		}
	}
	return marshalJSONLD(data)
}

// BreadcrumbJSONLD returns a Schema.org BreadcrumbList starting at the home page.
func BreadcrumbJSONLD(cfg SiteConfig, crumbs ...Crumb) template.JS {
	items := []map[string]any{{
		"@type":    "ListItem",
		"position": 1,
		"name":     cfg.Name,
		"item":     BuildURL(cfg.URL),
	}}
	for i, c := range crumbs {
		items = append(items, map[string]any{
			"@type":    "ListItem",
			"position": i + 2,
			"name":     c.Name,
			"item":     c.URL,
		})
	}
	return marshalJSONLD(map[string]any{
		"@context":        "https://schema.org",
		"@type":           "BreadcrumbList",
		"itemListElement": items,
	})
}
