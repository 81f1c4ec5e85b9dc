package ports

import (
	"context"
	"time"
)

// UnlockFunc releases a distributed lock.
type UnlockFunc func(ctx context.Context) error

// DistributedLocker serializes turns of the same conversation across replicas.
// The turn processor assumes no two turns of one conversation run concurrently;
// the session manager enforces that with this port when running more than one instance.
type DistributedLocker interface {
	// Lock blocks until the lock for key (a conversation id) is acquired or ctx is done.
	// ttl bounds how long a crashed holder keeps the lock.
	// The returned UnlockFunc MUST be called to release the lock.
	Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}
