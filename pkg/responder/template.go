package responder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"text/template"

	"github.com/aretw0/tickstory/internal/logging"
	"github.com/aretw0/tickstory/pkg/domain"
	"github.com/aretw0/tickstory/pkg/ports"
)

// ErrAnswerNotFound is returned when an answer id is missing from the catalog.
var ErrAnswerNotFound = errors.New("answer not found")

// DebugPrefix marks answers delivered in debug mode.
const DebugPrefix = "[debug] "

// Message is a rendered answer ready for delivery.
type Message struct {
	Action   string              `json:"action"`
	AnswerID string              `json:"answer_id"`
	Text     string              `json:"text"`
	Mode     domain.DeliveryMode `json:"mode"`
}

// Sink receives rendered messages.
type Sink func(ctx context.Context, msg Message) error

// Template renders answers from a catalog of text/template sources.
type Template struct {
	templates map[string]*template.Template
	sink      Sink
	logger    *slog.Logger
}

// Option configures a Template responder.
type Option func(*Template)

// WithLogger sets the logger used to trace suppressed answers.
func WithLogger(l *slog.Logger) Option {
	return func(t *Template) {
		if l != nil {
			t.logger = l
		}
	}
}

// NewTemplate parses every answer of the catalog up front.
// Templates reference contexts by name, e.g. "Going to {{.city}}".
// Missing contexts render as empty strings.
func NewTemplate(answers map[string]string, sink Sink, opts ...Option) (*Template, error) {
	t := &Template{
		templates: make(map[string]*template.Template, len(answers)),
		sink:      sink,
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(t)
	}

	for _, id := range slices.Sorted(maps.Keys(answers)) {
		tmpl, err := template.New(id).Option("missingkey=zero").Parse(answers[id])
		if err != nil {
			return nil, fmt.Errorf("failed to parse answer %q: %w", id, err)
		}
		t.templates[id] = tmpl
	}
	return t, nil
}

var _ ports.Responder = (*Template)(nil)

// Send renders req and delivers it according to its mode.
// Suppressed answers are rendered (so broken templates still fail the turn)
// but never reach the sink.
func (t *Template) Send(ctx context.Context, req domain.AnswerRequest) error {
	text, err := t.Render(req.AnswerID, req.Contexts)
	if err != nil {
		return err
	}

	switch req.Mode {
	case domain.DeliverySuppressed:
		t.logger.Debug("answer suppressed", "action", req.Action, "answer_id", req.AnswerID)
		return nil
	case domain.DeliveryDebug:
		text = DebugPrefix + text
	}

	if t.sink == nil {
		return nil
	}
	return t.sink(ctx, Message{
		Action:   req.Action,
		AnswerID: req.AnswerID,
		Text:     text,
		Mode:     req.Mode,
	})
}

// Render executes the answer template against contexts.
func (t *Template) Render(answerID string, contexts domain.Contexts) (string, error) {
	tmpl, ok := t.templates[answerID]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrAnswerNotFound, answerID)
	}

	data := make(map[string]string, len(contexts))
	maps.Copy(data, contexts.Plain())

	var sb strings.Builder
	if err := tmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("failed to render answer %q: %w", answerID, err)
	}
	return sb.String(), nil
}
