package blogkit

import (
	"strings"
	"testing"

	"github.com/goccy/go-json"
)

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"Hello World":            "hello-world",
		"  Rust Patterns!  ":     "rust-patterns",
		"Go 1.24: What's New?":   "go-1-24-what-s-new",
		"---":                    "",
		"Déjà vu":                "d-j-vu",
		"already-a-slug":         "already-a-slug",
		"Multiple   spaces here": "multiple-spaces-here",
	}
	for in, want := range tests {
		if got := Slugify(in); got != want {
			t.Errorf("Slugify(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestBuildURL(t *testing.T) {
	tests := []struct {
		base string
		segs []string
		want string
	}{
		{"https://example.com", nil, "https://example.com"},
		{"https://example.com", []string{"/"}, "https://example.com/"},
		{"https://example.com", []string{"blog", "my-post"}, "https://example.com/blog/my-post/"},
		{"https://example.com/sub", []string{"section", "trend"}, "https://example.com/sub/section/trend/"},
	}
	for _, tt := range tests {
		if got := BuildURL(tt.base, tt.segs...); got != tt.want {
			t.Errorf("BuildURL(%q, %v) = %q, want %q", tt.base, tt.segs, got, tt.want)
		}
	}
}

func TestAbsoluteURL(t *testing.T) {
	if got := absoluteURL("https://example.com/", "/public/uploads/a.png"); got != "https://example.com/public/uploads/a.png" {
		t.Errorf("got %q", got)
	}
	if got := absoluteURL("https://example.com", "https://cdn.example.com/a.png"); got != "https://cdn.example.com/a.png" {
		t.Errorf("absolute ref changed: %q", got)
	}
}

func decodeJSONLD(t *testing.T, js string) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal([]byte(js), &m); err != nil {
		t.Fatalf("invalid JSON-LD %q: %v", js, err)
	}
	return m
}

func TestBlogPostingJSONLD(t *testing.T) {
	site := SiteConfig{Name: "Notes", URL: "https://example.com", Author: "Ada"}
	post := Post{
		ID:      "hello",
		Title:   "Hello",
		Summary: "Greeting",
		Tag:     "Guide",
		Image:   "/public/uploads/images/1_abc.png",
		Content: "one two three",
		Date:    day("2024-01-02"),
	}
	m := decodeJSONLD(t, string(BlogPostingJSONLD(site, post)))

	if m["@type"] != "BlogPosting" || m["headline"] != "Hello" {
		t.Errorf("unexpected block: %v", m)
	}
	if m["url"] != "https://example.com/blog/hello/" {
		t.Errorf("url = %v", m["url"])
	}
	if m["image"] != "https://example.com/public/uploads/images/1_abc.png" {
		t.Errorf("image = %v", m["image"])
	}
	if m["articleSection"] != "Guide" {
		t.Errorf("articleSection = %v", m["articleSection"])
	}
	if m["wordCount"] != float64(3) {
		t.Errorf("wordCount = %v", m["wordCount"])
	}
	if m["datePublished"] != "2024-01-02T00:00:00Z" {
		t.Errorf("datePublished = %v", m["datePublished"])
	}
	author, _ := m["author"].(map[string]any)
	if author["name"] != "Ada" {
		t.Errorf("author = %v", m["author"])
	}
}

func TestWebsiteJSONLDEscapesScript(t *testing.T) {
	site := SiteConfig{Name: "</script><script>alert(1)</script>", URL: "https://example.com"}
	js := string(WebsiteJSONLD(site))
	if strings.Contains(js, "</script>") {
		t.Errorf("JSON-LD can break out of its script tag: %s", js)
	}
	m := decodeJSONLD(t, js)
	if m["name"] != site.Name {
		t.Errorf("name = %v", m["name"])
	}
}

func TestBreadcrumbJSONLD(t *testing.T) {
	site := SiteConfig{Name: "Notes", URL: "https://example.com"}
	m := decodeJSONLD(t, string(BreadcrumbJSONLD(site,
		Crumb{Name: "Guide", URL: "https://example.com/section/guide/"},
		Crumb{Name: "Hello", URL: "https://example.com/blog/hello/"},
	)))
	items, _ := m["itemListElement"].([]any)
	if len(items) != 3 {
		t.Fatalf("got %d items, want 3", len(items))
	}
	last, _ := items[2].(map[string]any)
	if last["position"] != float64(3) || last["name"] != "Hello" {
		t.Errorf("last crumb = %v", last)
	}
}
