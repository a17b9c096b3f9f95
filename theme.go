package codecanvas

// Theme maps output roles to ANSI color indices (0-15). The terminal's own
// palette decides the actual colors. A negative index means no color.
type Theme struct {
	Heading int // Section headings in explanations
	Code    int // Inline code and code block gutter
	Link    int // Link text
	Muted   int // Language labels, URLs, status lines
	Error   int // In-band and transport errors
	Analogy int // Visual analogy body
}

// DefaultTheme returns the default ANSI color mapping.
func DefaultTheme() Theme {
	return Theme{
		Heading: 5,
		Code:    6,
		Link:    4,
		Muted:   8,
		Error:   1,
		Analogy: 2,
	}
}
