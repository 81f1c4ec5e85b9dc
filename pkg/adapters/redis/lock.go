package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/tickstory/pkg/ports"
	"github.com/google/uuid"
	backend "github.com/redis/go-redis/v9"
)

// ErrLockAcquire wraps Redis failures while taking a lock.
var ErrLockAcquire = errors.New("failed to acquire distributed lock")

// DefaultRetryInterval is how often a blocked Lock polls.
const DefaultRetryInterval = 50 * time.Millisecond

// releaseScript deletes KEYS[1] only while it still holds the caller's token,
// so a holder whose lock expired cannot release its successor's.
var releaseScript = backend.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// Locker serializes turns across replicas with SET NX PX on prefix+"lock:"+key.
type Locker struct {
	client *backend.Client
	prefix string
	retry  time.Duration
}

var _ ports.DistributedLocker = (*Locker)(nil)

// LockerOption configures a Locker.
type LockerOption func(*Locker)

// WithRetryInterval replaces DefaultRetryInterval.
func WithRetryInterval(d time.Duration) LockerOption {
	return func(l *Locker) {
		if d > 0 {
			l.retry = d
		}
	}
}

// NewLocker creates a locker on client. Keys are written under prefix.
func NewLocker(client *backend.Client, prefix string, opts ...LockerOption) *Locker {
	l := &Locker{client: client, prefix: prefix, retry: DefaultRetryInterval}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Lock polls until the key is free or ctx is done.
func (l *Locker) Lock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	lockKey := l.prefix + "lock:" + key
	token := uuid.NewString()

	for {
		acquired, err := l.client.SetNX(ctx, lockKey, token, ttl).Result()
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("%w: %v", ErrLockAcquire, err)
		}
		if acquired {
			return func(ctx context.Context) error {
				return releaseScript.Run(ctx, l.client, []string{lockKey}, token).Err()
			}, nil
		}

		wait := time.NewTimer(l.retry)
		select {
		case <-ctx.Done():
			wait.Stop()
			return nil, ctx.Err()
		case <-wait.C:
		}
	}
}
