package session_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/tickstory/pkg/adapters/memory"
	"github.com/aretw0/tickstory/pkg/domain"
	"github.com/aretw0/tickstory/pkg/ports"
	"github.com/aretw0/tickstory/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// slowStore simulates latency to provoke lost updates if locking is missing.
type slowStore struct {
	*memory.Store
}

func (s slowStore) Save(ctx context.Context, id string, sess domain.TickSession) error {
	time.Sleep(2 * time.Millisecond)
	return s.Store.Save(ctx, id, sess)
}

func (s slowStore) Load(ctx context.Context, id string) (domain.TickSession, error) {
	time.Sleep(2 * time.Millisecond)
	return s.Store.Load(ctx, id)
}

func TestManager_UpdateSerialisesTurns(t *testing.T) {
	mgr := session.NewManager(slowStore{memory.NewStore()})
	ctx := context.Background()
	id := "race-test"

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := mgr.Update(ctx, id, func(_ context.Context, s domain.TickSession) (domain.TickSession, error) {
				s.Push("step")
				return s, nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	s, err := mgr.Load(ctx, id)
	require.NoError(t, err)
	assert.Len(t, s.ObjectivesStack, 10, "no update may be lost")
}

func TestManager_UpdateFailureWritesNothing(t *testing.T) {
	store := memory.NewStore()
	mgr := session.NewManager(store)
	ctx := context.Background()

	boom := errors.New("boom")
	err := mgr.Update(ctx, "c1", func(_ context.Context, s domain.TickSession) (domain.TickSession, error) {
		s.CurrentState = "changed"
		return s, boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = store.Load(ctx, "c1")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestManager_LoadOrCreate(t *testing.T) {
	mgr := session.NewManager(slowStore{memory.NewStore()})
	ctx := context.Background()
	id := "atomic-init"

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s, err := mgr.LoadOrCreate(ctx, id)
			assert.NoError(t, err)
			assert.NotNil(t, s.Contexts)
		}()
	}
	wg.Wait()

	ids, err := mgr.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{id}, ids)
}

type countingLocker struct {
	mu       sync.Mutex
	locks    int
	unlocks  int
	lastTTL  time.Duration
	failWith error
}

func (l *countingLocker) Lock(_ context.Context, _ string, ttl time.Duration) (ports.UnlockFunc, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.failWith != nil {
		return nil, l.failWith
	}
	l.locks++
	l.lastTTL = ttl
	return func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.unlocks++
		return nil
	}, nil
}

func TestManager_DistributedLocker(t *testing.T) {
	ctx := context.Background()

	t.Run("Held around every operation", func(t *testing.T) {
		locker := &countingLocker{}
		mgr := session.NewManager(memory.NewStore(), session.WithLocker(locker), session.WithLockTTL(5*time.Second))

		require.NoError(t, mgr.Save(ctx, "c1", domain.NewSession()))
		_, err := mgr.Load(ctx, "c1")
		require.NoError(t, err)

		assert.Equal(t, 2, locker.locks)
		assert.Equal(t, 2, locker.unlocks)
		assert.Equal(t, 5*time.Second, locker.lastTTL)
	})

	t.Run("Lock failure aborts", func(t *testing.T) {
		locker := &countingLocker{failWith: errors.New("busy")}
		mgr := session.NewManager(memory.NewStore(), session.WithLocker(locker))

		called := false
		err := mgr.WithLock(ctx, "c1", func(context.Context) error {
			called = true
			return nil
		})
		assert.Error(t, err)
		assert.False(t, called)
	})
}
