package markdown

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// KindMathInline and KindMathBlock identify math nodes in the goldmark AST.
var (
	KindMathInline = ast.NewNodeKind("MathInline")
	KindMathBlock  = ast.NewNodeKind("MathBlock")
)

// MathInline is a `$...$` or single-line `$$...$$` expression.
type MathInline struct {
	ast.BaseInline
	Display bool
	Literal []byte
}

func (n *MathInline) Kind() ast.NodeKind { return KindMathInline }

func (n *MathInline) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{"Literal": string(n.Literal)}, nil)
}

// MathBlock is a display expression fenced by lines holding only `$$`.
type MathBlock struct {
	ast.BaseBlock
	Closed bool
}

func (n *MathBlock) Kind() ast.NodeKind { return KindMathBlock }

func (n *MathBlock) IsRaw() bool { return true }

func (n *MathBlock) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, nil, nil)
}

type mathInlineParser struct{}

func (p *mathInlineParser) Trigger() []byte { return []byte{'$'} }

// Parse returns nil whenever the expression is unterminated or malformed so
// the dollar signs fall through as plain text.
func (p *mathInlineParser) Parse(parent ast.Node, block text.Reader, pc parser.Context) ast.Node {
	line, _ := block.PeekLine()
	if len(line) < 2 {
		return nil
	}

	if line[1] == '$' {
		end := bytes.Index(line[2:], []byte("$$"))
		if end < 0 {
			return nil
		}
		body := line[2 : 2+end]
		if len(bytes.TrimSpace(body)) == 0 || !validTeX(string(body)) {
			return nil
		}
		block.Advance(end + 4)
		return &MathInline{Display: true, Literal: append([]byte(nil), bytes.TrimSpace(body)...)}
	}

	if util.IsSpace(line[1]) {
		return nil
	}
	for i := 1; i < len(line); i++ {
		switch line[i] {
		case '\\':
			i++
		case '$':
			if util.IsSpace(line[i-1]) {
				continue
			}
			if i+1 < len(line) && line[i+1] >= '0' && line[i+1] <= '9' {
				continue
			}
			body := line[1:i]
			if !validTeX(string(body)) {
				return nil
			}
			block.Advance(i + 1)
			return &MathInline{Literal: append([]byte(nil), body...)}
		}
	}
	return nil
}

type mathBlockParser struct{}

func (p *mathBlockParser) Trigger() []byte { return []byte{'$'} }

func (p *mathBlockParser) Open(parent ast.Node, reader text.Reader, pc parser.Context) (ast.Node, parser.State) {
	line, _ := reader.PeekLine()
	pos := pc.BlockOffset()
	if pos < 0 || !isMathFence(line[pos:]) {
		return nil, parser.NoChildren
	}
	return &MathBlock{}, parser.NoChildren
}

func (p *mathBlockParser) Continue(node ast.Node, reader text.Reader, pc parser.Context) parser.State {
	line, segment := reader.PeekLine()
	if w, pos := util.IndentWidth(line, reader.LineOffset()); w < 4 && isMathFence(line[pos:]) {
		node.(*MathBlock).Closed = true
		reader.Advance(segment.Len() - 1)
		return parser.Close
	}
	node.Lines().Append(segment)
	reader.Advance(segment.Len() - 1)
	return parser.Continue | parser.NoChildren
}

func (p *mathBlockParser) Close(node ast.Node, reader text.Reader, pc parser.Context) {}

func (p *mathBlockParser) CanInterruptParagraph() bool { return true }

func (p *mathBlockParser) CanAcceptIndentedLine() bool { return false }

func isMathFence(line []byte) bool {
	return bytes.Equal(bytes.TrimSpace(line), []byte("$$"))
}

type mathRenderer struct{}

func (r *mathRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(KindMathInline, r.renderInline)
	reg.Register(KindMathBlock, r.renderBlock)
}

func (r *mathRenderer) renderInline(w util.BufWriter, source []byte, n ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkSkipChildren, nil
	}
	node := n.(*MathInline)
	if node.Display {
		_, _ = w.WriteString(`<span class="math math-display">\[`)
		_, _ = w.Write(util.EscapeHTML(node.Literal))
		_, _ = w.WriteString(`\]</span>`)
	} else {
		_, _ = w.WriteString(`<span class="math math-inline">\(`)
		_, _ = w.Write(util.EscapeHTML(node.Literal))
		_, _ = w.WriteString(`\)</span>`)
	}
	return ast.WalkSkipChildren, nil
}

func (r *mathRenderer) renderBlock(w util.BufWriter, source []byte, n ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkSkipChildren, nil
	}
	node := n.(*MathBlock)
	var body bytes.Buffer
	lines := node.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		body.Write(seg.Value(source))
	}
	tex := bytes.TrimSpace(body.Bytes())

	if !node.Closed || len(tex) == 0 || !validTeX(string(tex)) {
		// Broken display math stays visible as the author typed it.
		_, _ = w.WriteString("<p>$$\n")
		_, _ = w.Write(util.EscapeHTML(body.Bytes()))
		if node.Closed {
			_, _ = w.WriteString("$$")
		}
		_, _ = w.WriteString("</p>\n")
		return ast.WalkSkipChildren, nil
	}
	_, _ = w.WriteString(`<div class="math math-display">\[`)
	_, _ = w.Write(util.EscapeHTML(tex))
	_, _ = w.WriteString("\\]</div>\n")
	return ast.WalkSkipChildren, nil
}

type mathExtension struct{}

// Math adds `$...$` and `$$...$$` support. Expressions are emitted as
// escaped TeX in \( \) or \[ \] delimiters for a client-side typesetter.
var Math goldmark.Extender = &mathExtension{}

func (e *mathExtension) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(
		parser.WithBlockParsers(util.Prioritized(&mathBlockParser{}, 150)),
		parser.WithInlineParsers(util.Prioritized(&mathInlineParser{}, 150)),
	)
	m.Renderer().AddOptions(
		renderer.WithNodeRenderers(util.Prioritized(&mathRenderer{}, 150)),
	)
}

// validTeX reports whether tex is structurally sound: balanced braces,
// matched \begin/\end and \left/\right pairs, and no dangling backslash.
func validTeX(tex string) bool {
	depth, lr := 0, 0
	var envs []string
	for i := 0; i < len(tex); i++ {
		switch tex[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth < 0 {
				return false
			}
		case '\\':
			if i+1 >= len(tex) {
				return false
			}
			name := commandName(tex[i+1:])
			if name == "" {
				i++
				continue
			}
			i += len(name)
			switch name {
			case "left":
				lr++
			case "right":
				lr--
				if lr < 0 {
					return false
				}
			case "begin", "end":
				rest := tex[i+1:]
				if len(rest) == 0 || rest[0] != '{' {
					return false
				}
				end := strings.IndexByte(rest, '}')
				if end < 0 {
					return false
				}
				env := rest[1:end]
				if name == "begin" {
					envs = append(envs, env)
				} else {
					if len(envs) == 0 || envs[len(envs)-1] != env {
						return false
					}
					envs = envs[:len(envs)-1]
				}
				i += end + 1
			}
		}
	}
	return depth == 0 && lr == 0 && len(envs) == 0
}

func commandName(s string) string {
	n := 0
	for n < len(s) && (s[n] >= 'a' && s[n] <= 'z' || s[n] >= 'A' && s[n] <= 'Z') {
		n++
	}
	return s[:n]
}
