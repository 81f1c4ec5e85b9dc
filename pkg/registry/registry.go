package registry

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/aretw0/tickstory/pkg/domain"
)

// ErrHandlerNotFound is returned when no handler is registered under a name.
var ErrHandlerNotFound = errors.New("handler not found")

// HandlerFunc defines the signature for a tick handler implementation.
// It receives a copy of the current contexts and returns the context delta to merge.
// A nil value in the delta clears the context.
type HandlerFunc func(ctx context.Context, contexts domain.Contexts) (domain.Contexts, error)

// Registry manages the available handlers.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]HandlerFunc
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		handlers: make(map[string]HandlerFunc),
	}
}

// Register adds a handler to the registry.
// If a handler with the same name exists, it is overwritten.
func (r *Registry) Register(name string, fn HandlerFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[name] = fn
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.handlers[name]
	return ok
}

// Names returns the registered handler names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Execute looks up a handler by name and runs it to completion with a copy of contexts.
// Returns an error wrapping ErrHandlerNotFound if the handler is not registered.
func (r *Registry) Execute(ctx context.Context, name string, contexts domain.Contexts) (domain.Contexts, error) {
	r.mu.RLock()
	fn, ok := r.handlers[name]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrHandlerNotFound, name)
	}

	return fn(ctx, contexts.Clone())
}
