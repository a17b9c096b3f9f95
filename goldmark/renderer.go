package goldmark

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fwojciec/codecanvas"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

type styles struct {
	bold      lipgloss.Style
	italic    lipgloss.Style
	heading   lipgloss.Style
	code      lipgloss.Style
	link      lipgloss.Style
	muted     lipgloss.Style
	err       lipgloss.Style
	analogy   lipgloss.Style
	box       lipgloss.Style
	gutter    string
	quoteMark string
}

func newStyles(theme codecanvas.Theme) styles {
	code := lipgloss.NewStyle().Foreground(ansiColor(theme.Code))
	muted := lipgloss.NewStyle().Foreground(ansiColor(theme.Muted)).Faint(true)
	return styles{
		bold:      lipgloss.NewStyle().Bold(true),
		italic:    lipgloss.NewStyle().Italic(true),
		heading:   lipgloss.NewStyle().Foreground(ansiColor(theme.Heading)).Bold(true),
		code:      code,
		link:      lipgloss.NewStyle().Foreground(ansiColor(theme.Link)).Underline(true),
		muted:     muted,
		err:       lipgloss.NewStyle().Foreground(ansiColor(theme.Error)).Bold(true),
		analogy:   lipgloss.NewStyle().Foreground(ansiColor(theme.Analogy)),
		box:       lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(ansiColor(theme.Analogy)).Padding(0, 1),
		gutter:    code.Render("│") + " ",
		quoteMark: muted.Render("┃") + " ",
	}
}

func ansiColor(index int) lipgloss.TerminalColor {
	if index < 0 {
		return lipgloss.NoColor{}
	}
	return lipgloss.Color(strconv.Itoa(index))
}

func (s styles) render(source []byte, width int) string {
	doc := goldmark.DefaultParser().Parse(text.NewReader(source))

	var buf bytes.Buffer
	s.walkBlock(doc, source, width, &buf)
	return strings.TrimRight(buf.String(), "\n")
}

func (s styles) walkBlock(node ast.Node, source []byte, width int, buf *bytes.Buffer) {
	for c := node.FirstChild(); c != nil; c = c.NextSibling() {
		s.renderBlock(c, source, width, buf)
	}
}

// separate writes the blank line between n and a following block.
func separate(n ast.Node, buf *bytes.Buffer) {
	if n.NextSibling() != nil {
		buf.WriteString("\n")
	}
}

func (s styles) renderBlock(node ast.Node, source []byte, width int, buf *bytes.Buffer) {
	switch n := node.(type) {
	case *ast.Paragraph:
		inline := s.collectInline(n, source)
		buf.WriteString(lipgloss.NewStyle().Width(width).Render(inline))
		buf.WriteString("\n")
		separate(n, buf)

	case *ast.Heading:
		inline := s.collectInline(n, source)
		if n.Level > 2 {
			inline = strings.Repeat("#", n.Level) + " " + inline
		}
		buf.WriteString(lipgloss.NewStyle().Width(width).Render(s.heading.Render(inline)))
		buf.WriteString("\n")
		separate(n, buf)

	case *ast.FencedCodeBlock:
		if lang := string(n.Language(source)); lang != "" {
			buf.WriteString(s.muted.Render(lang))
			buf.WriteString("\n")
		}
		s.writeCodeLines(n, source, buf)
		separate(n, buf)

	case *ast.CodeBlock:
		s.writeCodeLines(n, source, buf)
		separate(n, buf)

	case *ast.List:
		s.renderList(n, source, width, buf, 0)
		separate(n, buf)

	case *ast.Blockquote:
		var inner bytes.Buffer
		s.walkBlock(n, source, width-2, &inner)
		for _, line := range strings.Split(strings.TrimRight(inner.String(), "\n"), "\n") {
			buf.WriteString(s.quoteMark + line + "\n")
		}
		separate(n, buf)

	case *ast.ThematicBreak:
		buf.WriteString(s.muted.Render(strings.Repeat("─", min(width, 40))))
		buf.WriteString("\n")
		separate(n, buf)

	case *ast.HTMLBlock:
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			line := lines.At(i)
			buf.Write(line.Value(source))
		}

	default:
		s.walkBlock(node, source, width, buf)
	}
}

// writeCodeLines writes code verbatim behind a gutter, without reflow.
func (s styles) writeCodeLines(n ast.Node, source []byte, buf *bytes.Buffer) {
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		content := strings.TrimRight(string(line.Value(source)), "\n")
		buf.WriteString(s.gutter + content)
		buf.WriteString("\n")
	}
}

func (s styles) renderList(node *ast.List, source []byte, width int, buf *bytes.Buffer, depth int) {
	num := node.Start
	for c := node.FirstChild(); c != nil; c = c.NextSibling() {
		item, ok := c.(*ast.ListItem)
		if !ok {
			continue
		}
		indent := strings.Repeat("  ", depth)
		marker := "• "
		if node.IsOrdered() {
			marker = fmt.Sprintf("%d. ", num)
			num++
		}

		var itemBuf bytes.Buffer
		for ic := item.FirstChild(); ic != nil; ic = ic.NextSibling() {
			switch in := ic.(type) {
			case *ast.Paragraph, *ast.TextBlock:
				itemBuf.WriteString(s.collectInline(in, source))
			case *ast.List:
				if itemBuf.Len() > 0 {
					writeListItem(buf, indent, marker, itemBuf.String(), width)
					itemBuf.Reset()
				}
				s.renderList(in, source, width, buf, depth+1)
				marker = strings.Repeat(" ", lipgloss.Width(marker))
			default:
				s.renderBlock(ic, source, width, &itemBuf)
			}
		}
		if itemBuf.Len() > 0 {
			writeListItem(buf, indent, marker, itemBuf.String(), width)
		}
	}
}

// writeListItem wraps content and aligns continuation lines under the
// first character after the marker.
func writeListItem(buf *bytes.Buffer, indent, marker, content string, width int) {
	prefix := indent + marker
	prefixWidth := lipgloss.Width(prefix)
	itemWidth := max(width-prefixWidth, 10)
	wrapped := lipgloss.NewStyle().Width(itemWidth).Render(content)
	continuation := strings.Repeat(" ", prefixWidth)
	for i, line := range strings.Split(wrapped, "\n") {
		if i == 0 {
			buf.WriteString(prefix + line + "\n")
		} else {
			buf.WriteString(continuation + line + "\n")
		}
	}
}

func (s styles) collectInline(node ast.Node, source []byte) string {
	var buf bytes.Buffer
	for c := node.FirstChild(); c != nil; c = c.NextSibling() {
		s.renderInline(c, source, &buf)
	}
	return buf.String()
}

func (s styles) renderInline(node ast.Node, source []byte, buf *bytes.Buffer) {
	switch n := node.(type) {
	case *ast.Text:
		buf.Write(n.Segment.Value(source))
		if n.SoftLineBreak() {
			buf.WriteByte(' ')
		}
		if n.HardLineBreak() {
			buf.WriteByte('\n')
		}

	case *ast.String:
		buf.Write(n.Value)

	case *ast.Emphasis:
		inner := s.collectInline(n, source)
		if n.Level == 1 {
			buf.WriteString(s.italic.Render(inner))
		} else {
			buf.WriteString(s.bold.Render(inner))
		}

	case *ast.CodeSpan:
		buf.WriteString(s.code.Render(s.collectInline(n, source)))

	case *ast.Link:
		buf.WriteString(s.link.Render(s.collectInline(n, source)))
		buf.WriteString(" ")
		buf.WriteString(s.muted.Render("(" + string(n.Destination) + ")"))

	case *ast.AutoLink:
		buf.WriteString(s.link.Render(string(n.URL(source))))

	case *ast.Image:
		buf.WriteString(s.link.Render(s.collectInline(n, source)))
		buf.WriteString(" ")
		buf.WriteString(s.muted.Render("(" + string(n.Destination) + ")"))

	case *ast.RawHTML:
		for i := 0; i < n.Segments.Len(); i++ {
			seg := n.Segments.At(i)
			buf.Write(seg.Value(source))
		}

	default:
		for c := node.FirstChild(); c != nil; c = c.NextSibling() {
			s.renderInline(c, source, buf)
		}
	}
}
