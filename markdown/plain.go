package markdown

import (
	"html"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

var (
	reBold         = regexp.MustCompile(`\*\*(.+?)\*\*`)
	reBoldAlt      = regexp.MustCompile(`__(.+?)__`)
	reItalic       = regexp.MustCompile(`\*([^*]+)\*`)
	reItalicAlt    = regexp.MustCompile(`_([^_]+)_`)
	reStrike       = regexp.MustCompile(`~~(.+?)~~`)
	reInlineCode   = regexp.MustCompile("`([^`]+)`")
	reLink         = regexp.MustCompile(`\[(.*?)\]\((.*?)\)`)
	reImage        = regexp.MustCompile(`!\[(.*?)\]\((.*?)\)`)
	reOrderedItem  = regexp.MustCompile(`^\d+\.\s`)
	reHeadingPlain = regexp.MustCompile(`^(#{1,6})\s+(.*)$`)
)

// plainWriter is a forgiving line-oriented renderer. It is only used when the
// full pipeline fails, so it never passes raw HTML through: every character
// of the source is escaped.
type plainWriter struct {
	b     strings.Builder
	open  string // "p", "ul", "ol", "blockquote", "table"
	code  bool
	tbody bool
}

// renderPlain renders src with the fallback line renderer.
func renderPlain(src string) string {
	w := &plainWriter{}
	for _, raw := range strings.Split(src, "\n") {
		w.line(strings.TrimRight(raw, "\r"))
	}
	if w.code {
		w.b.WriteString("</code></pre>")
	}
	w.close()
	return w.b.String()
}

func (w *plainWriter) close() {
	switch w.open {
	case "":
		return
	case "table":
		if w.tbody {
			w.b.WriteString("</tbody>")
		}
		w.tbody = false
	}
	w.b.WriteString("</" + w.open + ">")
	w.open = ""
}

func (w *plainWriter) enter(block string) bool {
	if w.open == block {
		return false
	}
	w.close()
	w.b.WriteString("<" + block + ">")
	w.open = block
	return true
}

func (w *plainWriter) line(line string) {
	if strings.HasPrefix(line, "```") {
		if w.code {
			w.b.WriteString("</code></pre>")
			w.code = false
			return
		}
		w.close()
		if lang := strings.TrimSpace(line[3:]); lang != "" {
			w.b.WriteString(`<pre><code class="language-` + html.EscapeString(lang) + `">`)
		} else {
			w.b.WriteString("<pre><code>")
		}
		w.code = true
		return
	}
	if w.code {
		w.b.WriteString(html.EscapeString(line) + "\n")
		return
	}

	trimmed := strings.TrimSpace(line)
	switch {
	case trimmed == "":
		w.close()
	case strings.HasPrefix(trimmed, "---") && strings.Trim(trimmed, "-") == "":
		w.close()
		w.b.WriteString("<hr/>")
	case reHeadingPlain.MatchString(trimmed):
		w.close()
		m := reHeadingPlain.FindStringSubmatch(trimmed)
		level := strconv.Itoa(len(m[1]))
		w.b.WriteString("<h" + level + ">" + FormatInline(m[2]) + "</h" + level + ">")
	case strings.HasPrefix(trimmed, "|"):
		w.tableRow(trimmed)
	case strings.HasPrefix(trimmed, "- "), strings.HasPrefix(trimmed, "* "):
		w.enter("ul")
		w.b.WriteString("<li>" + FormatInline(strings.TrimSpace(trimmed[2:])) + "</li>")
	case reOrderedItem.MatchString(trimmed):
		w.enter("ol")
		w.b.WriteString("<li>" + FormatInline(reOrderedItem.ReplaceAllString(trimmed, "")) + "</li>")
	case strings.HasPrefix(trimmed, ">"):
		if !w.enter("blockquote") {
			w.b.WriteString(" ")
		}
		w.b.WriteString(FormatInline(strings.TrimSpace(trimmed[1:])))
	default:
		if !w.enter("p") {
			w.b.WriteString("\n")
		}
		w.b.WriteString(FormatInline(trimmed))
	}
}

func (w *plainWriter) tableRow(line string) {
	cells := strings.Split(strings.Trim(line, "|"), "|")
	if w.enter("table") {
		w.b.WriteString("<thead><tr>")
		for _, c := range cells {
			w.b.WriteString("<th>" + FormatInline(strings.TrimSpace(c)) + "</th>")
		}
		w.b.WriteString("</tr></thead>")
		return
	}
	if !w.tbody {
		w.b.WriteString("<tbody>")
		w.tbody = true
	}
	if strings.Trim(line, "|-: ") == "" {
		return
	}
	w.b.WriteString("<tr>")
	for _, c := range cells {
		w.b.WriteString("<td>" + FormatInline(strings.TrimSpace(c)) + "</td>")
	}
	w.b.WriteString("</tr>")
}

// FormatInline escapes s and applies emphasis, code spans, links and images.
func FormatInline(s string) string {
	escaped := html.EscapeString(s)

	// Code spans are swapped out first so emphasis never reaches inside them.
	var spans []string
	escaped = reInlineCode.ReplaceAllStringFunc(escaped, func(m string) string {
		spans = append(spans, "<code>"+reInlineCode.FindStringSubmatch(m)[1]+"</code>")
		return "\x00" + strconv.Itoa(len(spans)-1) + "\x00"
	})

	escaped = reImage.ReplaceAllStringFunc(escaped, func(m string) string {
		match := reImage.FindStringSubmatch(m)
		src := SafeURL(match[2])
		if src == "" {
			return match[1]
		}
		return `<img src="` + src + `" alt="` + match[1] + `" loading="lazy"/>`
	})
	escaped = reLink.ReplaceAllStringFunc(escaped, func(m string) string {
		match := reLink.FindStringSubmatch(m)
		href := SafeURL(match[2])
		if href == "" {
			return match[1]
		}
		return `<a href="` + href + `">` + match[1] + `</a>`
	})

	escaped = outsideTags(escaped, func(seg string) string {
		seg = reBold.ReplaceAllString(seg, "<strong>$1</strong>")
		seg = reBoldAlt.ReplaceAllString(seg, "<strong>$1</strong>")
		seg = reItalic.ReplaceAllString(seg, "<em>$1</em>")
		seg = reItalicAlt.ReplaceAllString(seg, "<em>$1</em>")
		return reStrike.ReplaceAllString(seg, "<del>$1</del>")
	})

	for i, span := range spans {
		escaped = strings.Replace(escaped, "\x00"+strconv.Itoa(i)+"\x00", span, 1)
	}
	return escaped
}

// outsideTags applies fn to the text between HTML tags only, so URLs inside
// attributes are never rewritten.
func outsideTags(s string, fn func(string) string) string {
	var b strings.Builder
	for s != "" {
		lt := strings.IndexByte(s, '<')
		if lt < 0 {
			b.WriteString(fn(s))
			break
		}
		b.WriteString(fn(s[:lt]))
		gt := strings.IndexByte(s[lt:], '>')
		if gt < 0 {
			b.WriteString(s[lt:])
			break
		}
		b.WriteString(s[lt : lt+gt+1])
		s = s[lt+gt+1:]
	}
	return b.String()
}

// SafeURL returns raw escaped for an attribute when it is relative or uses an
// allowed scheme, and "" otherwise.
func SafeURL(raw string) string {
	val := strings.TrimSpace(html.UnescapeString(raw))
	if val == "" {
		return ""
	}
	if strings.HasPrefix(val, "/") || strings.HasPrefix(val, "#") {
		return html.EscapeString(val)
	}
	u, err := url.Parse(val)
	if err != nil || u.Scheme == "" {
		return ""
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https", "mailto", "tel":
		return html.EscapeString(val)
	}
	return ""
}
