package blogkit

import (
	"encoding/xml"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

type sitemapURLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

const lastModLayout = "2006-01-02"

// buildSitemap lists the home page, every section and every post. Sections
// carry the date of their newest post.
func buildSitemap(site SiteConfig, cats []Category, posts []Post) sitemapURLSet {
	base := site.URL
	home := sitemapURL{Loc: BuildURL(base, "/")}
	if len(posts) > 0 {
		home.LastMod = posts[0].Date.UTC().Format(lastModLayout)
	}
	urls := []sitemapURL{home}
	for _, cat := range cats {
		u := sitemapURL{Loc: BuildURL(base, "section", cat.Slug())}
		if in := FilterCategory(posts, cat.Name); len(in) > 0 {
			u.LastMod = in[0].Date.UTC().Format(lastModLayout)
		}
		urls = append(urls, u)
	}
	for _, p := range posts {
		urls = append(urls, sitemapURL{
			Loc:     BuildURL(base, "blog", p.ID),
			LastMod: p.Date.UTC().Format(lastModLayout),
		})
	}
	return sitemapURLSet{
		XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs:  urls,
	}
}

func (a *App) renderSitemap(c echo.Context, posts []Post) error {
	sitemap := buildSitemap(a.Config.Site, a.Config.Categories, posts)
	c.Response().Header().Set(echo.HeaderContentType, "application/xml; charset=utf-8")
	c.Response().WriteHeader(http.StatusOK)
	c.Response().Write([]byte(xml.Header))
	return xml.NewEncoder(c.Response()).Encode(sitemap)
}

func robotsTxt(siteURL string) string {
	var b strings.Builder
	b.WriteString("User-agent: *\n")
	b.WriteString("Allow: /\n")
	b.WriteString("Disallow: /admin/\n")
	b.WriteString("Disallow: /api/\n\n")
	b.WriteString("Sitemap: " + strings.TrimRight(siteURL, "/") + "/sitemap.xml\n")
	return b.String()
}
