package blogkit

import (
	"encoding/xml"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

const atomNS = "http://www.w3.org/2005/Atom"

type rssXML struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Atom    string     `xml:"xmlns:atom,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title         string    `xml:"title"`
	Link          string    `xml:"link"`
	Description   string    `xml:"description"`
	Language      string    `xml:"language,omitempty"`
	LastBuildDate string    `xml:"lastBuildDate,omitempty"`
	AtomLink      atomLink  `xml:"atom:link"`
	Items         []rssItem `xml:"item"`
}

type atomLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr"`
	Type string `xml:"type,attr"`
}

type rssItem struct {
	Title       string  `xml:"title"`
	Link        string  `xml:"link"`
	Description string  `xml:"description"`
	Category    string  `xml:"category,omitempty"`
	PubDate     string  `xml:"pubDate"`
	GUID        rssGUID `xml:"guid"`
}

type rssGUID struct {
	IsPermaLink bool   `xml:"isPermaLink,attr"`
	Value       string `xml:",chardata"`
}

// buildRSS lists the newest posts, at most limit of them. posts must already
// be sorted newest first.
func buildRSS(site SiteConfig, posts []Post, limit int) rssXML {
	if limit > 0 && len(posts) > limit {
		posts = posts[:limit]
	}
	base := site.URL
	items := make([]rssItem, 0, len(posts))
	for _, p := range posts {
		postURL := BuildURL(base, "blog", p.ID)
		items = append(items, rssItem{
			Title:       p.Title,
			Link:        postURL,
			Description: p.Summary,
			Category:    p.Tag,
			PubDate:     p.Date.UTC().Format(time.RFC1123Z),
			GUID:        rssGUID{IsPermaLink: true, Value: postURL},
		})
	}
	ch := rssChannel{
		Title:       site.Name,
		Link:        BuildURL(base, "/"),
		Description: site.Description,
		Language:    site.Language,
		AtomLink: atomLink{
			Href: strings.TrimRight(base, "/") + "/feed.xml",
			Rel:  "self",
			Type: "application/rss+xml",
		},
		Items: items,
	}
	if len(posts) > 0 {
		ch.LastBuildDate = posts[0].Date.UTC().Format(time.RFC1123Z)
	}
	return rssXML{Version: "2.0", Atom: atomNS, Channel: ch}
}

func (a *App) renderRSS(c echo.Context, posts []Post) error {
	feed := buildRSS(a.Config.Site, posts, a.Config.Feed.Limit)
	c.Response().Header().Set(echo.HeaderContentType, "application/rss+xml; charset=utf-8")
	c.Response().WriteHeader(http.StatusOK)
	c.Response().Write([]byte(xml.Header))
	return xml.NewEncoder(c.Response()).Encode(feed)
}
