package runner

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/aretw0/tickstory"
)

// JSONHandler speaks JSON Lines, for programs driving a conversation.
// Each turn result and each system message becomes one object per line.
type JSONHandler struct {
	scanner *bufio.Scanner
	enc     *json.Encoder
}

type systemLine struct {
	System string `json:"system"`
}

// NewJSONHandler creates a handler reading r and writing w.
// Nil streams default to Stdin and Stdout.
func NewJSONHandler(r io.Reader, w io.Writer) *JSONHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 4096), maxLineSize)
	return &JSONHandler{scanner: sc, enc: json.NewEncoder(w)}
}

// Input returns the next non-blank line, sanitized.
func (h *JSONHandler) Input(ctx context.Context) (string, error) {
	for h.scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		if text := strings.TrimSpace(h.scanner.Text()); text != "" {
			return SanitizeInput(text)
		}
	}
	if err := h.scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

// Output writes the whole turn result, suppressed messages included.
func (h *JSONHandler) Output(ctx context.Context, res *tickstory.TurnResult) error {
	return h.enc.Encode(res)
}

// SystemOutput writes {"system": msg}.
func (h *JSONHandler) SystemOutput(ctx context.Context, msg string) error {
	return h.enc.Encode(systemLine{System: msg})
}
