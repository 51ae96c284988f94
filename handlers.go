package blogkit

import (
	"errors"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/eringen/blogkit/markdown"
)

const (
	featuredCount = 2
	relatedCount  = 2
	// A table of contents is only worth showing for longer articles.
	minTOCHeadings  = 3
	suggestionCount = 3
)

func (a *App) handleHome(c echo.Context) error {
	ctx := c.Request().Context()
	posts, err := a.Cache.ListPosts(ctx, "")
	if err != nil {
		return err
	}
	page := HomePage{
		Chrome: a.chrome(""),
		Meta: PageMeta{
			Title:       a.Config.Site.Name,
			Description: a.Config.Site.Description,
			URL:         BuildURL(a.Config.Site.URL),
			OGType:      "website",
			JSONLD:      []template.JS{WebsiteJSONLD(a.Config.Site)},
		},
		Query: strings.TrimSpace(c.QueryParam("q")),
	}
	if page.Query != "" {
		page.Posts = Search(posts, page.Query)
	} else {
		page.Featured, page.Posts = SplitFeatured(posts, featuredCount)
	}
	return Render(c, a.Views.Home(page))
}

func (a *App) handleSection(c echo.Context) error {
	ctx := c.Request().Context()
	name := c.Param("category")
	cat, ok := FindCategory(a.Config.Categories, name)
	if !ok {
		used, err := a.Cache.Categories(ctx)
		if err != nil {
			return err
		}
		return RenderStatus(c, http.StatusNotFound, a.Views.Section(SectionPage{
			Chrome:      a.chrome(""),
			Meta:        PageMeta{Title: "Not found | " + a.Config.Site.Name},
			Category:    Category{Name: name},
			Suggestions: CategorySuggestions(name, mergeNames(a.Config.Categories, used), suggestionCount),
		}))
	}

	posts, err := a.Cache.ListPosts(ctx, cat.Name)
	if err != nil {
		return err
	}
	url := BuildURL(a.Config.Site.URL, "section", cat.Slug())
	return Render(c, a.Views.Section(SectionPage{
		Chrome: a.chrome(cat.Name),
		Meta: PageMeta{
			Title:       cat.Name + " | " + a.Config.Site.Name,
			Description: cat.Description,
			URL:         url,
			OGType:      "website",
			JSONLD:      []template.JS{BreadcrumbJSONLD(a.Config.Site, Crumb{cat.Name, url})},
		},
		Category: cat,
		Posts:    posts,
	}))
}

func (a *App) handlePost(c echo.Context) error {
	ctx := c.Request().Context()
	post, err := a.Cache.GetPost(ctx, c.Param("slug"))
	if errors.Is(err, ErrNotFound) {
		return a.renderNotFound(c, "That post does not exist.")
	}
	if err != nil {
		return err
	}
	posts, err := a.Cache.ListPosts(ctx, "")
	if err != nil {
		return err
	}

	html := a.Renderer.Render(post.Content)
	var toc []markdown.Heading
	if h := markdown.Headings(html); len(h) >= minTOCHeadings {
		toc = h
	}

	url := BuildURL(a.Config.Site.URL, "blog", post.ID)
	crumbs := []Crumb{{post.Title, url}}
	if cat, ok := FindCategory(a.Config.Categories, post.Tag); ok {
		crumbs = append([]Crumb{{cat.Name, BuildURL(a.Config.Site.URL, "section", cat.Slug())}}, crumbs...)
	}
	return Render(c, a.Views.Post(PostPage{
		Chrome: a.chrome(post.Tag),
		Meta: PageMeta{
			Title:       post.Title + " | " + a.Config.Site.Name,
			Description: post.Summary,
			URL:         url,
			OGType:      "article",
			Image:       absoluteURL(a.Config.Site.URL, post.Image),
			JSONLD: []template.JS{
				BlogPostingJSONLD(a.Config.Site, post),
				BreadcrumbJSONLD(a.Config.Site, crumbs...),
			},
		},
		Post:        post,
		HTML:        template.HTML(html),
		TOC:         toc,
		ReadingTime: markdown.ReadingTime(post.Content),
		Related:     Related(post, posts, relatedCount),
		Series:      SeriesOf(post, posts),
	}))
}

func (a *App) handleFeed(c echo.Context) error {
	posts, err := a.Cache.ListPosts(c.Request().Context(), "")
	if err != nil {
		return err
	}
	return a.renderRSS(c, posts)
}

func (a *App) handleSitemap(c echo.Context) error {
	posts, err := a.Cache.ListPosts(c.Request().Context(), "")
	if err != nil {
		return err
	}
	return a.renderSitemap(c, posts)
}

// handleSearchIndex lists every published post for client-side search.
func (a *App) handleSearchIndex(c echo.Context) error {
	posts, err := a.Cache.ListPosts(c.Request().Context(), "")
	if err != nil {
		return err
	}
	entries := make([]SearchEntry, 0, len(posts))
	for _, p := range posts {
		entries = append(entries, SearchEntry{
			ID:      p.ID,
			Title:   p.Title,
			Summary: p.Summary,
			Tag:     p.Tag,
			Link:    p.Link(),
			Date:    p.Date.UTC().Format(time.RFC3339),
		})
	}
	return c.JSON(http.StatusOK, entries)
}

func (a *App) handleRobots(c echo.Context) error {
	return c.String(http.StatusOK, robotsTxt(a.Config.Site.URL))
}

func (a *App) handleHealth(c echo.Context) error {
	if _, err := a.Store.ListCategories(c.Request().Context()); err != nil {
		a.Logger.Warn("blogkit: health check failed", "err", err)
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func handleBlogRedirect(c echo.Context) error {
	return c.Redirect(http.StatusMovedPermanently, "/")
}

// handleViews counts a post view at most once per visitor and returns the
// current total.
func (a *App) handleViews(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("slug")
	if !ValidSlug(id) {
		return echo.NewHTTPError(http.StatusNotFound, "not found")
	}

	first, err := a.viewMarker.FirstView(c, id)
	if err != nil {
		a.Logger.Warn("blogkit: view marker failed", "post", id, "err", err)
	}
	var views int
	if first {
		views, err = a.Store.IncrementViewCount(ctx, id)
	} else {
		var p Post
		p, err = a.Store.GetPost(ctx, id)
		views = p.Views
	}
	if errors.Is(err, ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]int{"views": views})
}
