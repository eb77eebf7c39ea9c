package tui

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

// minRecipeWidth keeps ingredient lists readable in narrow terminals.
const minRecipeWidth = 24

// markdownRenderer renders recipe markdown for the detail view.
// The glamour renderer is rebuilt when the wrap width changes and the last output is reused while the recipe is unchanged.
type markdownRenderer struct {
	width    int
	renderer *glamour.TermRenderer

	lastSource string
	lastOutput string
}

// render converts markdown into ANSI-styled text wrapped at width.
func (r *markdownRenderer) render(markdown string, width int) string {
	markdown = strings.TrimSpace(markdown)
	if markdown == "" {
		return ""
	}

	wrapWidth := max(width, minRecipeWidth)
	if r.renderer == nil || r.width != wrapWidth {
		renderer, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle("dark"),
			glamour.WithWordWrap(wrapWidth),
		)
		if err != nil {
			return markdown
		}
		r.renderer = renderer
		r.width = wrapWidth
		r.lastSource = ""
	}
	if r.lastSource == markdown {
		return r.lastOutput
	}

	rendered, err := r.renderer.Render(markdown)
	if err != nil {
		return markdown
	}
	r.lastSource = markdown
	r.lastOutput = strings.TrimRight(rendered, "\n")
	return r.lastOutput
}
