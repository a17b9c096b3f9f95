// Package goldmark renders generated explanations and analogies as
// ANSI-styled terminal output, using goldmark for parsing and lipgloss for
// styling.
package goldmark

import (
	"strings"

	"github.com/fwojciec/codecanvas"
)

const defaultWidth = 80

// Renderer styles explanation markdown and analogy text for a terminal.
type Renderer struct {
	width  int
	styles styles
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithWidth sets the wrap width. Values <= 0 mean 80 columns.
func WithWidth(width int) Option {
	return func(r *Renderer) {
		if width > 0 {
			r.width = width
		}
	}
}

// New creates a Renderer using theme's colors.
func New(theme codecanvas.Theme, opts ...Option) *Renderer {
	r := &Renderer{width: defaultWidth, styles: newStyles(theme)}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Explanation parses markdown source and returns styled output.
// Paragraphs and list items are word-wrapped; code blocks keep their
// original line breaks.
func (r *Renderer) Explanation(source string) string {
	if source == "" {
		return ""
	}
	return r.styles.render([]byte(source), r.width)
}

// Analogy renders plain analogy text inside a titled, rounded box.
func (r *Renderer) Analogy(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	// Border and padding take four columns.
	inner := r.width - 4
	if inner < 10 {
		inner = 10
	}
	body := r.styles.analogy.Width(inner).Render(text)
	box := r.styles.box.Render(body)
	return r.styles.heading.Render("Visual analogy") + "\n" + box
}

// Error renders a one-line failure message.
func (r *Renderer) Error(msg string) string {
	return r.styles.err.Render("error: " + msg)
}

// Muted renders a status line.
func (r *Renderer) Muted(msg string) string {
	return r.styles.muted.Render(msg)
}
