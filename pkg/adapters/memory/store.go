package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/aretw0/tickstory/pkg/domain"
	"github.com/aretw0/tickstory/pkg/ports"
)

// Store implements ports.SessionStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]domain.TickSession
	mu   sync.RWMutex
}

var _ ports.SessionStore = (*Store)(nil)

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]domain.TickSession),
	}
}

// Save persists a deep copy of the session.
func (s *Store) Save(ctx context.Context, conversationID string, session domain.TickSession) error {
	copied := session.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[conversationID] = copied
	return nil
}

// Load returns a copy so callers can't mutate the stored session.
func (s *Store) Load(ctx context.Context, conversationID string) (domain.TickSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.data[conversationID]
	if !ok {
		return domain.TickSession{}, domain.ErrSessionNotFound
	}
	return session.Clone(), nil
}

// Delete removes the session.
func (s *Store) Delete(ctx context.Context, conversationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, conversationID)
	return nil
}

// List returns the stored conversation ids, sorted.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids, nil
}
