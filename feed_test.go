package blogkit

import (
	"encoding/xml"
	"strings"
	"testing"
)

func feedPosts() []Post {
	return []Post{
		{ID: "newest", Title: "Newest", Summary: "n", Tag: "Trend", Date: day("2024-06-01")},
		{ID: "middle", Title: "Middle", Tag: "Guide", Date: day("2024-01-01")},
		{ID: "oldest", Title: "Oldest", Tag: "Trend", Date: day("2023-12-01")},
	}
}

func TestBuildRSS(t *testing.T) {
	site := SiteConfig{Name: "Notes", URL: "https://example.com", Description: "d", Language: "en"}
	feed := buildRSS(site, feedPosts(), 2)

	if len(feed.Channel.Items) != 2 {
		t.Fatalf("got %d items, want limit 2", len(feed.Channel.Items))
	}
	first := feed.Channel.Items[0]
	if first.Link != "https://example.com/blog/newest/" || first.GUID.Value != first.Link {
		t.Errorf("first item = %+v", first)
	}
	if first.PubDate != "Sat, 01 Jun 2024 00:00:00 +0000" {
		t.Errorf("PubDate = %q", first.PubDate)
	}
	if feed.Channel.LastBuildDate != first.PubDate {
		t.Errorf("LastBuildDate = %q", feed.Channel.LastBuildDate)
	}
	if feed.Channel.AtomLink.Href != "https://example.com/feed.xml" {
		t.Errorf("atom link = %q", feed.Channel.AtomLink.Href)
	}

	out, err := xml.Marshal(feed)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{`<rss version="2.0"`, `<category>Trend</category>`, `isPermaLink="true"`} {
		if !strings.Contains(string(out), want) {
			t.Errorf("feed missing %s", want)
		}
	}
}

func TestBuildRSSEmpty(t *testing.T) {
	feed := buildRSS(SiteConfig{Name: "Notes", URL: "https://example.com"}, nil, 50)
	if len(feed.Channel.Items) != 0 || feed.Channel.LastBuildDate != "" {
		t.Errorf("empty feed = %+v", feed.Channel)
	}
}

func TestBuildSitemap(t *testing.T) {
	site := SiteConfig{URL: "https://example.com"}
	cats := []Category{{Name: "Trend"}, {Name: "Research"}}
	sm := buildSitemap(site, cats, feedPosts())

	want := []sitemapURL{
		{Loc: "https://example.com/", LastMod: "2024-06-01"},
		{Loc: "https://example.com/section/trend/", LastMod: "2024-06-01"},
		{Loc: "https://example.com/section/research/"},
		{Loc: "https://example.com/blog/newest/", LastMod: "2024-06-01"},
		{Loc: "https://example.com/blog/middle/", LastMod: "2024-01-01"},
		{Loc: "https://example.com/blog/oldest/", LastMod: "2023-12-01"},
	}
	if len(sm.URLs) != len(want) {
		t.Fatalf("got %d urls, want %d", len(sm.URLs), len(want))
	}
	for i := range want {
		if sm.URLs[i] != want[i] {
			t.Errorf("urls[%d] = %+v, want %+v", i, sm.URLs[i], want[i])
		}
	}
}

func TestRobotsTxt(t *testing.T) {
	got := robotsTxt("https://example.com/")
	for _, want := range []string{"Disallow: /admin/", "Disallow: /api/", "Sitemap: https://example.com/sitemap.xml"} {
		if !strings.Contains(got, want) {
			t.Errorf("robots.txt missing %q:\n%s", want, got)
		}
	}
}
