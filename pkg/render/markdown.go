// Package render formats demo docs for terminal display.
package render

import (
	"os"

	"github.com/charmbracelet/glamour"
	"golang.org/x/term"
)

const maxWidth = 100

// Markdown renders markdown for the terminal with glamour, wrapped to
// the terminal width. With plain set, or when rendering fails, the
// content comes back untouched so the doc is never lost to styling.
func Markdown(content string, plain bool) string {
	if plain {
		return content
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(wrapWidth()),
	)
	if err != nil {
		return content
	}

	out, err := r.Render(content)
	if err != nil {
		return content
	}
	return out
}

// wrapWidth returns the terminal width capped at maxWidth, falling back
// to the cap when stdout is not a terminal.
func wrapWidth() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 || w > maxWidth {
		return maxWidth
	}
	return w
}
