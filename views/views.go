// Package views provides a plain default theme for blogkit, built from
// html/template files and adapted to templ components.
package views

import (
	"embed"
	"html/template"
	"slices"
	"strings"
	"time"

	"github.com/a-h/templ"

	"github.com/eringen/blogkit"
	"github.com/eringen/blogkit/assets"
)

//go:embed templates/*.html
var files embed.FS

var pages = template.Must(template.New("views").Funcs(template.FuncMap{
	"slug":         blogkit.Slugify,
	"lower":        strings.ToLower,
	"date":         func(t time.Time) string { return t.Format("Jan 2, 2006") },
	"iso":          func(t time.Time) string { return t.UTC().Format(time.RFC3339) },
	"deleteButton": newDeleteButton,
	"assetList":    newAssetList,
	"has":          func(list []string, v string) bool { return slices.Contains(list, v) },
	"inc":          func(i int) int { return i + 1 },
}).ParseFS(files, "templates/*.html"))

type deleteButton struct {
	Action string
	Method string
	Label  string
	CSRF   string
	Armed  bool
}

func newDeleteButton(action, method, label, csrf string, armed bool) deleteButton {
	return deleteButton{Action: action, Method: method, Label: label, CSRF: csrf, Armed: armed}
}

type assetList struct {
	Assets []assets.Asset
	CSRF   string
	Armed  string
}

func newAssetList(list []assets.Asset, csrf, armed string) assetList {
	return assetList{Assets: list, CSRF: csrf, Armed: armed}
}

func page(name string, data any) templ.Component {
	return templ.FromGoHTML(pages.Lookup(name), data)
}

// Default returns the built-in theme.
func Default() blogkit.ViewFuncs {
	return blogkit.ViewFuncs{
		Home:           func(p blogkit.HomePage) templ.Component { return page("home", p) },
		Section:        func(p blogkit.SectionPage) templ.Component { return page("section", p) },
		Post:           func(p blogkit.PostPage) templ.Component { return page("post", p) },
		AdminLogin:     func(p blogkit.LoginPage) templ.Component { return page("login", p) },
		AdminDashboard: func(p blogkit.AdminPage) templ.Component { return page("dashboard", p) },
		AdminEditor:    func(p blogkit.EditorPage) templ.Component { return page("editor", p) },
		NotFound:       func(p blogkit.ErrorPage) templ.Component { return page("notfound", p) },
		ServerError:    func(p blogkit.ErrorPage) templ.Component { return page("servererror", p) },
	}
}
