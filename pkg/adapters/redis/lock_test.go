package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/axnav/pkg/adapters/redis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocker_ExclusiveUntilUnlock(t *testing.T) {
	mr, client := newClient(t)
	locker := redis.NewLocker(client, "axnav:")
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "pid:42", time.Minute)
	require.NoError(t, err)
	assert.True(t, mr.Exists("axnav:lock:pid:42"))

	short, cancel := context.WithTimeout(ctx, 250*time.Millisecond)
	defer cancel()
	_, err = locker.Lock(short, "pid:42", time.Minute)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	require.NoError(t, unlock(ctx))
	assert.False(t, mr.Exists("axnav:lock:pid:42"))

	again, err := locker.Lock(ctx, "pid:42", time.Minute)
	require.NoError(t, err)
	require.NoError(t, again(ctx))
}

func TestLocker_ExpiresWithTTL(t *testing.T) {
	mr, client := newClient(t)
	locker := redis.NewLocker(client, "axnav:")
	ctx := context.Background()

	stale, err := locker.Lock(ctx, "pid:1", time.Second)
	require.NoError(t, err)

	mr.FastForward(2 * time.Second)

	fresh, err := locker.Lock(ctx, "pid:1", time.Second)
	require.NoError(t, err)

	// The expired holder must not release the new holder's lock.
	require.NoError(t, stale(ctx))
	assert.True(t, mr.Exists("axnav:lock:pid:1"))
	require.NoError(t, fresh(ctx))
}
