package runner

import (
	"context"

	"github.com/aretw0/tickstory"
	"github.com/aretw0/tickstory/pkg/domain"
)

// Engine is the part of tickstory.Engine the runner depends on.
type Engine interface {
	HandleTurn(ctx context.Context, conversationID string, action *domain.UserAction) (*tickstory.TurnResult, error)
	Session(ctx context.Context, conversationID string) (domain.TickSession, error)
	Reset(ctx context.Context, conversationID string) error
}

// IOHandler defines the strategy for interacting with the user.
// This allows switching between Text (CLI/TUI) and JSON (Structured) modes.
type IOHandler interface {
	// Output presents the outcome of a turn.
	Output(ctx context.Context, res *tickstory.TurnResult) error

	// Input reads the next line from the user.
	Input(ctx context.Context) (string, error)

	// SystemOutput presents a meta-message (errors, status updates).
	// This is distinct from story answers.
	SystemOutput(ctx context.Context, msg string) error
}

// ContentRenderer transforms an answer before it is printed.
// This allows markdown rendering without coupling the runner to a terminal library.
type ContentRenderer func(string) (string, error)
