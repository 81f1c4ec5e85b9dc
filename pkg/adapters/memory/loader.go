package memory

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/aretw0/tickstory/pkg/domain"
	"github.com/aretw0/tickstory/pkg/ports"
)

// Loader implements ports.StoryLoader over stories held in memory.
type Loader struct {
	mu      sync.RWMutex
	stories map[string]*domain.TickConfiguration
}

var _ ports.StoryLoader = (*Loader)(nil)

// NewLoader creates a loader serving the given stories by name.
func NewLoader(stories ...*domain.TickConfiguration) (*Loader, error) {
	l := &Loader{stories: make(map[string]*domain.TickConfiguration)}
	for _, s := range stories {
		if err := l.Add(s); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// Add registers a story, replacing any story with the same name.
func (l *Loader) Add(story *domain.TickConfiguration) error {
	if story == nil || story.Name == "" {
		return fmt.Errorf("story missing name")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stories[story.Name] = story
	return nil
}

// Load returns the story registered under name.
func (l *Loader) Load(_ context.Context, name string) (*domain.TickConfiguration, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	story, ok := l.stories[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrStoryNotFound, name)
	}
	return story, nil
}

// List returns all story names, sorted.
func (l *Loader) List(_ context.Context) ([]string, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Sorted(maps.Keys(l.stories)), nil
}
