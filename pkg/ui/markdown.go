package ui

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

// Markdown renders chat content for the terminal, falling back to the raw
// text when rendering fails so content is never lost.
type Markdown struct {
	renderer *glamour.TermRenderer
	width    int
}

func NewMarkdown(width int) *Markdown {
	m := &Markdown{}
	m.Resize(width)
	return m
}

func (m *Markdown) Render(content string) string {
	if m.renderer == nil {
		return content
	}
	out, err := m.renderer.Render(content)
	if err != nil {
		return content
	}
	return strings.Trim(out, "\n")
}

// Resize rebuilds the renderer for a new wrap width.
func (m *Markdown) Resize(width int) {
	if width <= 0 || width == m.width {
		return
	}
	m.width = width
	if r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(width)); err == nil {
		m.renderer = r
	}
}
