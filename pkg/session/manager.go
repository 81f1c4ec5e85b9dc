package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/tickstory/internal/logging"
	"github.com/aretw0/tickstory/pkg/domain"
	"github.com/aretw0/tickstory/pkg/ports"
)

// DefaultLockTTL is the lifetime of a distributed lock held for one operation.
const DefaultLockTTL = 30 * time.Second

// Manager serializes access to the sessions of each conversation.
// Within a process a keyed lock orders operations; WithLocker extends that
// across replicas.
type Manager struct {
	store ports.SessionStore
	local *keyedLock

	locker  ports.DistributedLocker
	lockTTL time.Duration
	logger  *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL overrides DefaultLockTTL.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.lockTTL = ttl
		}
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewManager creates a new session manager over store.
func NewManager(store ports.SessionStore, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		local:   newKeyedLock(),
		lockTTL: DefaultLockTTL,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Load retrieves an existing session.
func (m *Manager) Load(ctx context.Context, id string) (domain.TickSession, error) {
	var s domain.TickSession
	err := m.WithLock(ctx, id, func(ctx context.Context) error {
		var err error
		s, err = m.store.Load(ctx, id)
		return err
	})
	return s, err
}

// LoadOrCreate loads a session, or persists and returns a new empty one.
func (m *Manager) LoadOrCreate(ctx context.Context, id string) (domain.TickSession, error) {
	var s domain.TickSession
	err := m.WithLock(ctx, id, func(ctx context.Context) error {
		var err error
		s, err = m.loadOrNew(ctx, id)
		if err != nil {
			return err
		}
		return m.store.Save(ctx, id, s)
	})
	return s, err
}

func (m *Manager) loadOrNew(ctx context.Context, id string) (domain.TickSession, error) {
	s, err := m.store.Load(ctx, id)
	if err == nil {
		return s, nil
	}
	if !errors.Is(err, domain.ErrSessionNotFound) {
		return domain.TickSession{}, fmt.Errorf("failed to check session existence: %w", err)
	}
	return domain.NewSession(), nil
}

// Update runs fn on the current session (a new one on first contact) while
// holding the conversation lock, and saves the session fn returns.
// Nothing is written when fn fails.
func (m *Manager) Update(ctx context.Context, id string, fn func(context.Context, domain.TickSession) (domain.TickSession, error)) error {
	return m.WithLock(ctx, id, func(ctx context.Context) error {
		current, err := m.loadOrNew(ctx, id)
		if err != nil {
			return err
		}
		next, err := fn(ctx, current)
		if err != nil {
			return err
		}
		if err := m.store.Save(ctx, id, next); err != nil {
			return fmt.Errorf("failed to save session: %w", err)
		}
		return nil
	})
}

// Save persists the session.
func (m *Manager) Save(ctx context.Context, id string, s domain.TickSession) error {
	return m.WithLock(ctx, id, func(ctx context.Context) error {
		return m.store.Save(ctx, id, s)
	})
}

// Delete removes the session from the store.
func (m *Manager) Delete(ctx context.Context, id string) error {
	return m.WithLock(ctx, id, func(ctx context.Context) error {
		return m.store.Delete(ctx, id)
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Store returns the underlying session store.
func (m *Manager) Store() ports.SessionStore {
	return m.store
}

// WithLock runs fn while holding the conversation lock. Waiting for the lock
// ends early when ctx is done.
func (m *Manager) WithLock(ctx context.Context, id string, fn func(context.Context) error) error {
	unlockLocal, err := m.local.lock(ctx, id)
	if err != nil {
		return err
	}
	defer unlockLocal()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, id, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				m.logger.Warn("distributed lock not released, it will expire",
					"conversation_id", id,
					"ttl", m.lockTTL,
					"error", err,
				)
			}
		}()
	}

	return fn(ctx)
}
