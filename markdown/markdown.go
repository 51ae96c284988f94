// Package markdown turns post sources into sanitized HTML.
//
// The pipeline is goldmark (GFM tables, strikethrough, autolinks, task lists,
// heading anchors, raw HTML passthrough and $-delimited math), then a
// bluemonday policy that keeps media embeds, then a goquery pass that labels
// fenced code blocks by language. Rendering never fails: if goldmark errors or
// panics the source is rendered by a simpler line renderer instead.
package markdown

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strings"

	"github.com/a-h/templ"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
)

// WordsPerMinute is the reading speed used by ReadingTime.
const WordsPerMinute = 200

// Renderer converts markdown to HTML. It is safe for concurrent use.
type Renderer struct {
	md      goldmark.Markdown
	policy  *bluemonday.Policy
	logger  *slog.Logger
	convert func(src string) (string, error)
}

// Option configures a Renderer.
type Option func(*settings)

type settings struct {
	logger     *slog.Logger
	embedHosts []string
	hardWraps  bool
}

// WithLogger sets the logger that records fallback renders.
func WithLogger(l *slog.Logger) Option {
	return func(s *settings) { s.logger = l }
}

// WithEmbedHosts replaces the hosts allowed as iframe sources.
func WithEmbedHosts(hosts ...string) Option {
	return func(s *settings) { s.embedHosts = hosts }
}

// WithHardWraps renders single newlines inside paragraphs as <br>.
func WithHardWraps() Option {
	return func(s *settings) { s.hardWraps = true }
}

// New builds a Renderer.
func New(opts ...Option) *Renderer {
	s := settings{logger: slog.Default(), embedHosts: DefaultEmbedHosts}
	for _, opt := range opts {
		opt(&s)
	}

	r := &Renderer{
		md:     newGoldmark(s.hardWraps),
		policy: newPolicy(s.embedHosts),
		logger: s.logger,
	}
	r.convert = r.goldmarkConvert
	return r
}

func newGoldmark(hardWraps bool) goldmark.Markdown {
	rendererOpts := []renderer.Option{html.WithUnsafe()}
	if hardWraps {
		rendererOpts = append(rendererOpts, html.WithHardWraps())
	}
	return goldmark.New(
		goldmark.WithExtensions(
			extension.NewTable(extension.WithTableCellAlignMethod(extension.TableCellAlignAttribute)),
			extension.Strikethrough,
			extension.Linkify,
			extension.TaskList,
			Math,
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(
			rendererOpts...,
		),
	)
}

func (r *Renderer) goldmarkConvert(src string) (string, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(src), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Render returns the HTML for src. Empty or blank input yields "".
func (r *Renderer) Render(src string) string {
	if strings.TrimSpace(src) == "" {
		return ""
	}
	raw, err := r.safeConvert(src)
	if err != nil {
		r.logger.Warn("markdown: using fallback renderer", "err", err)
		raw = renderPlain(src)
	}
	clean := r.policy.Sanitize(raw)
	out, err := decorate(clean)
	if err != nil {
		r.logger.Warn("markdown: skipping code block labels", "err", err)
		return clean
	}
	return out
}

func (r *Renderer) safeConvert(src string) (out string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("markdown: convert panicked: %v", rec)
		}
	}()
	return r.convert(src)
}

// Component renders src as a templ component.
func (r *Renderer) Component(src string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, r.Render(src))
		return err
	})
}

var std = New()

// Render renders src with the default Renderer.
func Render(src string) string {
	return std.Render(src)
}

// Markdown returns a templ component rendering src with the default Renderer.
func Markdown(src string) templ.Component {
	return std.Component(src)
}

// WordCount counts whitespace separated words in src.
func WordCount(src string) int {
	return len(strings.Fields(src))
}

// ReadingTime estimates minutes needed to read src, never less than one.
func ReadingTime(src string) int {
	minutes := int(math.Ceil(float64(WordCount(src)) / WordsPerMinute))
	if minutes < 1 {
		return 1
	}
	return minutes
}
