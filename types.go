package blogkit

import (
	"html/template"
	"time"

	"github.com/eringen/blogkit/assets"
	"github.com/eringen/blogkit/markdown"
)

// Post is the only persisted entity. Content holds the markdown source; HTML
// is derived on every read and never stored.
type Post struct {
	ID      string    `json:"id" validate:"required,slug,max=120"`
	Title   string    `json:"title" validate:"required,max=300"`
	Tag     string    `json:"tag" validate:"max=60"`
	Summary string    `json:"summary" validate:"max=2000"`
	Content string    `json:"content,omitempty" validate:"required"`
	Image   string    `json:"image,omitempty" validate:"omitempty,url|startswith=/"`
	Series  string    `json:"series,omitempty" validate:"max=120"`
	Date    time.Time `json:"date"`
	Views   int       `json:"views" validate:"min=0"`

	// Local is set for posts loaded from the markdown directory rather than
	// the database.
	Local bool `json:"-"`
}

// Link returns the site-relative URL of the post.
func (p Post) Link() string {
	return "/blog/" + p.ID + "/"
}

// PostPatch carries the fields of an update. Nil fields are left unchanged.
// A non-nil ID different from the current one renames the post.
type PostPatch struct {
	ID      *string `validate:"omitnil,slug,max=120"`
	Title   *string `validate:"omitnil,min=1,max=300"`
	Tag     *string `validate:"omitnil,max=60"`
	Summary *string `validate:"omitnil,max=2000"`
	Content *string `validate:"omitnil,min=1"`
	Image   *string `validate:"omitnil,omitempty,url|startswith=/"`
	Series  *string `validate:"omitnil,max=120"`
}

// Empty reports whether the patch changes nothing.
func (p PostPatch) Empty() bool {
	return p.ID == nil && p.Title == nil && p.Tag == nil &&
		p.Summary == nil && p.Content == nil && p.Image == nil && p.Series == nil
}

// ListOptions filters ListPosts.
type ListOptions struct {
	Category string // matched case-insensitively; empty means all
	Lean     bool   // omit Content
	Limit    int    // 0 means no limit
}

// Category is a navigation section. Posts belong to one through Post.Tag.
type Category struct {
	Name        string `mapstructure:"name" json:"name"`
	Description string `mapstructure:"description" json:"description"`
}

// Slug returns the lower-cased path segment used for the section URL.
func (c Category) Slug() string {
	return Slugify(c.Name)
}

// PageMeta carries per-page OpenGraph and SEO metadata into the <head> template.
type PageMeta struct {
	Title       string
	Description string
	URL         string // canonical + og:url
	OGType      string // "website" or "article"
	Image       string
	JSONLD      []template.JS
}

// Chrome is the data shared by every public page.
type Chrome struct {
	Site       SiteConfig
	Categories []Category
	Active     string // active category name
	Year       int
	Subscribe  bool // show the newsletter form
}

// SearchEntry is one post in the search index used by statically exported
// sites.
type SearchEntry struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Summary string `json:"summary,omitempty"`
	Tag     string `json:"tag,omitempty"`
	Link    string `json:"link"`
	Date    string `json:"date"`
}

type HomePage struct {
	Chrome
	Meta     PageMeta
	Query    string
	Featured []Post
	Posts    []Post
}

type SectionPage struct {
	Chrome
	Meta        PageMeta
	Category    Category
	Posts       []Post
	Suggestions []string
}

type PostPage struct {
	Chrome
	Meta        PageMeta
	Post        Post
	HTML        template.HTML
	TOC         []markdown.Heading
	ReadingTime int
	Related     []Post
	Series      *SeriesNav
}

// SeriesNav places a post within its series, oldest post first.
type SeriesNav struct {
	Name  string
	Index int // 1-based position of the current post
	Posts []Post
	Prev  *Post
	Next  *Post
}

// Total returns the number of posts in the series.
func (s SeriesNav) Total() int { return len(s.Posts) }

type LoginPage struct {
	Site   SiteConfig
	CSRF   string
	Failed bool
}

type AdminPage struct {
	Site        SiteConfig
	CSRF        string
	Posts       []Post
	Images      []assets.Asset
	Videos      []assets.Asset
	Categories  []string
	Message     string
	Error       string
	Armed       string // target awaiting a confirming second delete
	Selected    []string
	Subscribers int // -1 when sign-ups are not stored
}

type EditorPage struct {
	Site       SiteConfig
	CSRF       string
	Post       Post
	Original   string // id the form was loaded with; empty for a new post
	IsNew      bool
	Categories []string
	Error      string
}

type ErrorPage struct {
	Site    SiteConfig
	Status  int
	Message string
}
