package session

import (
	"context"
	"sync"
)

// keyedLock is a set of per-key mutexes that can be abandoned on context
// cancellation. Entries are reference counted and dropped once unused.
type keyedLock struct {
	mu      sync.Mutex
	entries map[string]*keyedEntry
}

type keyedEntry struct {
	sem  chan struct{}
	refs int
}

func newKeyedLock() *keyedLock {
	return &keyedLock{entries: make(map[string]*keyedEntry)}
}

// lock blocks until key is free or ctx is done. On success the returned
// function releases the key.
func (k *keyedLock) lock(ctx context.Context, key string) (func(), error) {
	k.mu.Lock()
	e, ok := k.entries[key]
	if !ok {
		e = &keyedEntry{sem: make(chan struct{}, 1)}
		k.entries[key] = e
	}
	e.refs++
	k.mu.Unlock()

	select {
	case e.sem <- struct{}{}:
		return func() {
			<-e.sem
			k.forget(key, e)
		}, nil
	case <-ctx.Done():
		k.forget(key, e)
		return nil, ctx.Err()
	}
}

func (k *keyedLock) forget(key string, e *keyedEntry) {
	k.mu.Lock()
	defer k.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(k.entries, key)
	}
}

func (k *keyedLock) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.entries)
}
