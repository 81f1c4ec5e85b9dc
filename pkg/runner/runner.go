package runner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/aretw0/tickstory/internal/logging"
	"github.com/aretw0/tickstory/pkg/domain"
)

// DefaultConversationID is used when no conversation id is configured.
const DefaultConversationID = "cli"

// Runner reads user lines, runs them as turns and presents the results.
type Runner struct {
	Handler        IOHandler
	Logger         *slog.Logger
	ConversationID string

	// StopOnFinal ends Run after a turn reaching a final action.
	StopOnFinal bool
}

// Option defines a functional option for configuring the Runner.
type Option func(*Runner)

// WithInputHandler configures the IOHandler.
func WithInputHandler(handler IOHandler) Option {
	return func(r *Runner) {
		r.Handler = handler
	}
}

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.Logger = logger
		}
	}
}

// WithConversationID sets the conversation the turns belong to.
func WithConversationID(id string) Option {
	return func(r *Runner) {
		if id != "" {
			r.ConversationID = id
		}
	}
}

// WithStopOnFinal makes Run return once the story reaches a final action.
func WithStopOnFinal(stop bool) Option {
	return func(r *Runner) {
		r.StopOnFinal = stop
	}
}

// New creates a Runner. Without WithInputHandler it talks on Stdin/Stdout.
func New(opts ...Option) *Runner {
	r := &Runner{
		Logger:         logging.NewNop(),
		ConversationID: DefaultConversationID,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.Handler == nil {
		r.Handler = NewTextHandler(os.Stdin, os.Stdout)
	}
	return r
}

// errStop ends the loop without error.
var errStop = errors.New("stop")

// Run executes the loop until input ends, a quit command is read or ctx is
// done. A failed turn is reported and the conversation keeps its previous
// session.
func (r *Runner) Run(ctx context.Context, engine Engine) error {
	if s, err := engine.Session(ctx, r.ConversationID); err == nil {
		r.system(ctx, "Resuming conversation '%s' at '%s'.", r.ConversationID, s.CurrentState)
	} else if errors.Is(err, domain.ErrSessionNotFound) {
		r.system(ctx, "Conversation '%s' started.", r.ConversationID)
	} else {
		return fmt.Errorf("failed to load session: %w", err)
	}

	for {
		line, err := r.Handler.Input(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		if line == "exit" || line == "quit" {
			return nil
		}
		if strings.HasPrefix(line, "/") {
			if err := r.command(ctx, engine, line); err != nil {
				if errors.Is(err, errStop) {
					return nil
				}
				return err
			}
			continue
		}

		action, err := ParseInput(line)
		if err == nil {
			action, err = NewSanitizer().Action(action)
		}
		if err != nil {
			r.system(ctx, "Error: %v", err)
			continue
		}

		res, err := engine.HandleTurn(ctx, r.ConversationID, action)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			r.Logger.Debug("turn failed", "conversation", r.ConversationID, "intent", action.IntentName, "error", err)
			r.system(ctx, "Error: %v", err)
			continue
		}

		if err := r.Handler.Output(ctx, res); err != nil {
			return fmt.Errorf("output error: %w", err)
		}
		r.Logger.Debug("turn done", "conversation", r.ConversationID, "state", res.Session.CurrentState, "steps", len(res.Steps))

		if res.Final {
			r.system(ctx, "Story finished. Type /reset to start over.")
			if r.StopOnFinal {
				return nil
			}
		}
	}
}

func (r *Runner) command(ctx context.Context, engine Engine, line string) error {
	switch strings.Fields(line)[0] {
	case "/quit", "/exit":
		return errStop
	case "/reset":
		if err := engine.Reset(ctx, r.ConversationID); err != nil {
			return fmt.Errorf("failed to reset conversation: %w", err)
		}
		r.system(ctx, "Conversation '%s' reset.", r.ConversationID)
	case "/state":
		s, err := engine.Session(ctx, r.ConversationID)
		if errors.Is(err, domain.ErrSessionNotFound) {
			r.system(ctx, "No session yet.")
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to load session: %w", err)
		}
		data, err := json.Marshal(s)
		if err != nil {
			return err
		}
		r.system(ctx, "%s", data)
	default:
		r.system(ctx, "Unknown command %q. Commands: /state, /reset, /quit", line)
	}
	return nil
}

func (r *Runner) system(ctx context.Context, format string, args ...any) {
	if err := r.Handler.SystemOutput(ctx, fmt.Sprintf(format, args...)); err != nil {
		r.Logger.Warn("system output failed", "error", err)
	}
}
