package tui

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

// Renderer transforms an answer before it is printed.
type Renderer func(string) (string, error)

// NewRenderer returns a Renderer that formats markdown answers with glamour.
// It falls back to Plain when glamour cannot be initialised.
func NewRenderer() Renderer {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		return Plain
	}
	return func(markdown string) (string, error) {
		out, err := r.Render(markdown)
		if err != nil {
			return "", err
		}
		return strings.TrimRight(out, "\n") + "\n", nil
	}
}

// Plain prints answers unchanged.
func Plain(s string) (string, error) {
	return s + "\n", nil
}
