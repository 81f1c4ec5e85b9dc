package ports

import (
	"context"

	"github.com/aretw0/tickstory/pkg/domain"
)

// SessionStore defines the interface for persisting conversation sessions.
// Implementations must store a copy: callers keep ownership of the value they pass.
type SessionStore interface {
	// Save persists the session for a given conversation id.
	Save(ctx context.Context, conversationID string, session domain.TickSession) error

	// Load retrieves the session for a given conversation id.
	// Returns domain.ErrSessionNotFound if the conversation does not exist.
	Load(ctx context.Context, conversationID string) (domain.TickSession, error)

	// Delete removes the session for a given conversation id.
	Delete(ctx context.Context, conversationID string) error

	// List returns the ids of all stored conversations.
	List(ctx context.Context) ([]string, error)
}
