package markdown

import (
	"html"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Heading is an anchored section heading, used to build a table of contents.
type Heading struct {
	Level int
	ID    string
	Text  string
}

// decorate wraps language-tagged code blocks with a label element that the
// page's syntax highlighter and copy button hook into.
func decorate(doc string) (string, error) {
	if !strings.Contains(doc, "<pre") {
		return doc, nil
	}
	d, err := goquery.NewDocumentFromReader(strings.NewReader(doc))
	if err != nil {
		return "", err
	}
	d.Find("pre").Each(func(_ int, pre *goquery.Selection) {
		pre.AddClass("code-block")
		class, _ := pre.Find("code").First().Attr("class")
		lang := strings.TrimPrefix(class, "language-")
		if class == "" || lang == class {
			return
		}
		lang = html.EscapeString(lang)
		pre.WrapHtml(`<div class="code-block-wrapper"></div>`)
		pre.BeforeHtml(`<span class="code-lang code-lang-` + lang + `">` + lang + `</span>`)
	})
	return d.Find("body").Html()
}

// Headings lists the h2 and h3 elements of rendered HTML that carry an id.
func Headings(rendered string) []Heading {
	if rendered == "" {
		return nil
	}
	d, err := goquery.NewDocumentFromReader(strings.NewReader(rendered))
	if err != nil {
		return nil
	}
	var out []Heading
	d.Find("h2[id], h3[id]").Each(func(_ int, s *goquery.Selection) {
		id, _ := s.Attr("id")
		level := 2
		if goquery.NodeName(s) == "h3" {
			level = 3
		}
		out = append(out, Heading{Level: level, ID: id, Text: strings.TrimSpace(s.Text())})
	})
	return out
}
