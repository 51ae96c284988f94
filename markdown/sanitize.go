package markdown

import (
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// DefaultEmbedHosts are the iframe sources allowed through sanitization.
var DefaultEmbedHosts = []string{
	"www.youtube.com",
	"www.youtube-nocookie.com",
	"player.vimeo.com",
}

var (
	reHeadingID   = regexp.MustCompile(`^[\p{L}\p{N}_-]+$`)
	reMathClass   = regexp.MustCompile(`^math math-(inline|display)$`)
	reCodeClass   = regexp.MustCompile(`^language-[\w+#.-]+$`)
	reDimension   = regexp.MustCompile(`^\d{1,4}(%|px)?$`)
	rePreload     = regexp.MustCompile(`^(none|metadata|auto)$`)
	reAlign       = regexp.MustCompile(`^(left|center|right)$`)
	reMediaType   = regexp.MustCompile(`^(video|audio)/[\w.+-]+$`)
	reCheckbox    = regexp.MustCompile(`^checkbox$`)
	reIframeAllow = regexp.MustCompile(`^[a-z-]+(;\s*[a-z-]+)*;?$`)
)

// newPolicy builds the sanitizer applied to every rendered document. It
// starts from the UGC policy and opens up media embeds, heading anchors,
// task-list checkboxes and the classes used by math and code blocks.
func newPolicy(embedHosts []string) *bluemonday.Policy {
	p := bluemonday.UGCPolicy()

	p.AllowElements("div", "span", "figure", "figcaption")
	p.AllowAttrs("id").Matching(reHeadingID).OnElements("h1", "h2", "h3", "h4", "h5", "h6")
	p.AllowAttrs("class").Matching(reMathClass).OnElements("span", "div")
	p.AllowAttrs("class").Matching(reCodeClass).OnElements("code")
	p.AllowAttrs("align").Matching(reAlign).OnElements("th", "td")

	p.AllowElements("video", "audio", "source", "track")
	p.AllowAttrs("src").OnElements("video", "audio", "source", "track")
	p.AllowAttrs("controls", "autoplay", "muted", "loop", "playsinline").OnElements("video", "audio")
	p.AllowAttrs("preload").Matching(rePreload).OnElements("video", "audio")
	p.AllowAttrs("poster").OnElements("video")
	p.AllowAttrs("width", "height").Matching(reDimension).OnElements("video", "iframe", "img")
	p.AllowAttrs("type").Matching(reMediaType).OnElements("source")
	p.AllowAttrs("kind", "srclang", "label").OnElements("track")

	p.AllowElements("input")
	p.AllowAttrs("type").Matching(reCheckbox).OnElements("input")
	p.AllowAttrs("checked", "disabled").OnElements("input")

	if len(embedHosts) > 0 {
		quoted := make([]string, len(embedHosts))
		for i, h := range embedHosts {
			quoted[i] = regexp.QuoteMeta(h)
		}
		reEmbed := regexp.MustCompile(`^https://(` + strings.Join(quoted, "|") + `)/`)
		p.AllowElements("iframe")
		p.AllowAttrs("src").Matching(reEmbed).OnElements("iframe")
		p.AllowAttrs("title", "allowfullscreen", "frameborder", "loading").OnElements("iframe")
		p.AllowAttrs("allow").Matching(reIframeAllow).OnElements("iframe")
	}
	return p
}
