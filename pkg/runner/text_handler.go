package runner

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/aretw0/tickstory"
	"github.com/aretw0/tickstory/pkg/responder"
)

const maxLineSize = 1 << 20

// TextHandler talks to a person on a terminal: one line in, rendered answers out.
type TextHandler struct {
	Writer   io.Writer
	Renderer ContentRenderer
	Prompt   string

	source io.Reader
	once   sync.Once
	lines  chan line
}

type line struct {
	text string
	err  error
}

// TextHandlerOption defines configuration for TextHandler.
type TextHandlerOption func(*TextHandler)

// WithTextHandlerRenderer configures the content renderer.
func WithTextHandlerRenderer(renderer ContentRenderer) TextHandlerOption {
	return func(h *TextHandler) {
		h.Renderer = renderer
	}
}

// WithPrompt replaces the default "> " prompt. An empty prompt disables it.
func WithPrompt(prompt string) TextHandlerOption {
	return func(h *TextHandler) {
		h.Prompt = prompt
	}
}

// NewTextHandler creates a handler reading r and writing w.
// Nil streams default to Stdin and Stdout.
func NewTextHandler(r io.Reader, w io.Writer, opts ...TextHandlerOption) *TextHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	h := &TextHandler{source: r, Writer: w, Prompt: "> "}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// scan feeds lines to Input from a single goroutine, so a pending read never
// blocks cancellation and one reader can serve several runners in turn.
func (h *TextHandler) scan() {
	defer close(h.lines)
	sc := bufio.NewScanner(h.source)
	sc.Buffer(make([]byte, 0, 4096), maxLineSize)
	for sc.Scan() {
		h.lines <- line{text: sc.Text()}
	}
	if err := sc.Err(); err != nil {
		h.lines <- line{err: err}
	}
}

// Input returns the next non-blank line, sanitized and trimmed.
// Lines the sanitizer rejects are reported and skipped.
func (h *TextHandler) Input(ctx context.Context) (string, error) {
	h.once.Do(func() {
		h.lines = make(chan line)
		go h.scan()
	})

	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		fmt.Fprint(h.Writer, h.Prompt)

		var l line
		var ok bool
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case l, ok = <-h.lines:
		}
		if !ok {
			return "", io.EOF
		}
		if l.err != nil {
			return "", l.err
		}

		clean, err := SanitizeInput(l.text)
		if err != nil {
			fmt.Fprintf(h.Writer, "Error: %v. Please try again.\n", err)
			continue
		}
		if clean = strings.TrimSpace(clean); clean != "" {
			return clean, nil
		}
	}
}

// Output prints the visible answers of res, rendered when a renderer is set.
// A renderer failure falls back to the raw text.
func (h *TextHandler) Output(ctx context.Context, res *tickstory.TurnResult) error {
	for _, text := range responder.Visible(res.Messages) {
		if h.Renderer != nil {
			if rendered, err := h.Renderer(text); err == nil {
				text = rendered
			}
		}
		if _, err := fmt.Fprintln(h.Writer, strings.TrimSpace(text)); err != nil {
			return err
		}
	}
	return nil
}

// SystemOutput prints a meta-message with a ">>>" prefix.
func (h *TextHandler) SystemOutput(ctx context.Context, msg string) error {
	_, err := fmt.Fprintf(h.Writer, ">>> %s\n", msg)
	return err
}
