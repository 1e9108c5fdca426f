package ports

import (
	"context"
	"time"
)

// UnlockFunc releases a held lock.
type UnlockFunc func(ctx context.Context) error

// DistributedLocker serializes work on a key across processes, so two
// inspector replicas never drive the same application at once.
type DistributedLocker interface {
	// Lock blocks until the lock is held or ctx is done. The lock expires
	// after ttl if the holder disappears.
	Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}
