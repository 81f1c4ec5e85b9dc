package ports

import (
	"context"

	"github.com/aretw0/tickstory/pkg/domain"
)

// StoryLoader defines how the engine retrieves tick story configurations.
// This allows the storage layer (files, memory) to be decoupled.
type StoryLoader interface {
	// Load retrieves and parses the story with the given name.
	// Returns domain.ErrStoryNotFound when the name is unknown.
	Load(ctx context.Context, name string) (*domain.TickConfiguration, error)

	// List returns the names of all available stories, sorted.
	List(ctx context.Context) ([]string, error)
}

// Watchable defines an interface for loaders that can notify about backend changes.
// This is typically used for hot-reload or dev-mode functionality.
type Watchable interface {
	// Watch returns a channel that receives the name of each changed story.
	// The channel is closed when ctx is done.
	Watch(ctx context.Context) (<-chan string, error)
}
