package runner

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/aretw0/tickstory/pkg/domain"
)

// DefaultMaxInputSize is the largest accepted input, in bytes.
const DefaultMaxInputSize = 4096

// EnvMaxInputSize overrides DefaultMaxInputSize.
const EnvMaxInputSize = "TICKSTORY_MAX_INPUT_SIZE"

var (
	ErrInputTooLarge = errors.New("input exceeds maximum allowed size")
	ErrInvalidUTF8   = errors.New("input contains invalid UTF-8 sequences")
	ErrInvalidName   = errors.New("intent and role names must be a single word")
)

// Sanitizer cleans untrusted text before it reaches the engine, the logs or
// the terminal.
type Sanitizer struct {
	MaxSize int
}

// NewSanitizer returns a Sanitizer honouring EnvMaxInputSize.
func NewSanitizer() Sanitizer {
	size := DefaultMaxInputSize
	if v := os.Getenv(EnvMaxInputSize); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			size = n
		}
	}
	return Sanitizer{MaxSize: size}
}

// Text rejects oversized or invalid UTF-8 input and strips control
// characters other than newline, tab and carriage return.
// Oversized input is rejected, never truncated.
func (s Sanitizer) Text(input string) (string, error) {
	if s.MaxSize > 0 && len(input) > s.MaxSize {
		return "", fmt.Errorf("%w: size=%d limit=%d", ErrInputTooLarge, len(input), s.MaxSize)
	}
	if !utf8.ValidString(input) {
		return "", ErrInvalidUTF8
	}
	if strings.IndexFunc(input, unsafeControl) < 0 {
		return input, nil
	}
	return strings.Map(func(r rune) rune {
		if unsafeControl(r) {
			return -1
		}
		return r
	}, input), nil
}

// Action cleans the intent, the entity roles and the entity values of a.
// It returns a copy; a nil action stays nil.
func (s Sanitizer) Action(a *domain.UserAction) (*domain.UserAction, error) {
	if a == nil {
		return nil, nil
	}
	intent, err := s.name(a.IntentName)
	if err != nil {
		return nil, fmt.Errorf("invalid intent: %w", err)
	}

	out := &domain.UserAction{IntentName: intent}
	if len(a.Entities) > 0 {
		out.Entities = make(map[string]string, len(a.Entities))
	}
	for role, value := range a.Entities {
		cleanRole, err := s.name(role)
		if err != nil {
			return nil, fmt.Errorf("invalid entity role: %w", err)
		}
		cleanValue, err := s.Text(value)
		if err != nil {
			return nil, fmt.Errorf("invalid entity %q: %w", cleanRole, err)
		}
		out.Entities[cleanRole] = cleanValue
	}
	return out, nil
}

func (s Sanitizer) name(v string) (string, error) {
	clean, err := s.Text(strings.TrimSpace(v))
	if err != nil {
		return "", err
	}
	if clean == "" || strings.IndexFunc(clean, unicode.IsSpace) >= 0 {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, clean)
	}
	return clean, nil
}

// SanitizeInput cleans a single input with NewSanitizer.
func SanitizeInput(input string) (string, error) {
	return NewSanitizer().Text(input)
}

func unsafeControl(r rune) bool {
	return unicode.IsControl(r) && r != '\n' && r != '\t' && r != '\r'
}
