package executor_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aretw0/axnav/internal/testutils"
	"github.com/aretw0/axnav/pkg/domain"
	"github.com/aretw0/axnav/pkg/executor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func TestWithTimeout_ReturnsAtDeadline(t *testing.T) {
	clk := testutils.NewFakeClock(epoch)
	finished := make(chan struct{})

	// The operation ignores its context, like a blocking provider call.
	slow := func(ctx context.Context) (string, error) {
		<-clk.After(2 * time.Second)
		close(finished)
		return "late", nil
	}

	type result struct {
		v   string
		err error
		at  time.Time
	}
	out := make(chan result, 1)
	go func() {
		v, err := executor.WithTimeout(context.Background(), "children", time.Second, slow, executor.WithClock(clk))
		out <- result{v, err, clk.Now()}
	}()

	require.True(t, clk.BlockUntil(2), "deadline and operation timers should be pending")
	clk.Advance(time.Second)

	res := <-out
	var te *executor.TimeoutError
	require.ErrorAs(t, res.err, &te)
	assert.Equal(t, "children", te.Operation)
	assert.Equal(t, time.Second, te.Duration)
	assert.ErrorIs(t, res.err, domain.ErrTimeout)
	assert.Empty(t, res.v)
	assert.Equal(t, time.Second, res.at.Sub(epoch))

	select {
	case <-finished:
		t.Fatal("the abandoned operation should still be running")
	default:
	}

	// The work was not cancelled: it completes in the background once its
	// own timer fires, and its result goes nowhere.
	clk.Advance(time.Second)
	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("abandoned operation never completed")
	}
}

func TestWithTimeout_FastOperationWins(t *testing.T) {
	v, err := executor.WithTimeout(context.Background(), "describe", time.Minute, func(ctx context.Context) (int, error) {
		return 7, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 7, v)
}

func TestWithTimeout_PropagatesOperationError(t *testing.T) {
	boom := domain.NewError(domain.KindNotFound, "describe", "gone")
	_, err := executor.WithTimeout(context.Background(), "describe", time.Minute, func(ctx context.Context) (int, error) {
		return 0, boom
	})
	assert.Same(t, boom, err)
}

func TestWithTimeout_RecoversPanics(t *testing.T) {
	_, err := executor.WithTimeout(context.Background(), "perform", time.Minute, func(ctx context.Context) (int, error) {
		panic("bridge crashed")
	})
	var pe *executor.PanicError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "bridge crashed", pe.Value)
}

func TestWithTimeout_CallerCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := executor.WithTimeout(ctx, "apps", time.Minute, func(ctx context.Context) (int, error) {
		return 1, nil
	})
	assert.ErrorIs(t, err, domain.ErrCancelled)
}

func TestWithRetry_SucceedsOnThirdAttempt(t *testing.T) {
	var calls int32
	op := func(ctx context.Context) (string, error) {
		if atomic.AddInt32(&calls, 1) < 3 {
			return "", errors.New("transient")
		}
		return "ok", nil
	}

	res, err := executor.WithRetry(context.Background(), "children", 3, 0, op)
	require.NoError(t, err)
	assert.Equal(t, "ok", res.Value)
	assert.Equal(t, 3, res.Attempts)
	assert.EqualValues(t, 3, calls)
}

func TestWithRetry_ExhaustsExactly(t *testing.T) {
	var calls int32
	last := errors.New("still failing")
	op := func(ctx context.Context) (int, error) {
		atomic.AddInt32(&calls, 1)
		return 0, last
	}

	res, err := executor.WithRetry(context.Background(), "children", 3, 0, op)

	var re *executor.RetryExhaustedError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, 3, re.Attempts)
	assert.ErrorIs(t, err, last)
	assert.ErrorIs(t, err, domain.ErrRetryExhausted)
	assert.Equal(t, 3, res.Attempts)
	assert.EqualValues(t, 3, calls, "not 2, not 4")
}

func TestWithRetry_WaitsDelayBetweenAttempts(t *testing.T) {
	clk := testutils.NewFakeClock(epoch)
	var calls int32
	op := func(ctx context.Context) (int, error) {
		atomic.AddInt32(&calls, 1)
		return 0, errors.New("nope")
	}

	done := make(chan error, 1)
	go func() {
		_, err := executor.WithRetry(context.Background(), "actions", 3, 500*time.Millisecond, op, executor.WithClock(clk))
		done <- err
	}()

	for i := 1; i <= 2; i++ {
		require.True(t, clk.BlockUntil(1))
		assert.EqualValues(t, i, atomic.LoadInt32(&calls))
		clk.Advance(500 * time.Millisecond)
	}

	err := <-done
	assert.ErrorIs(t, err, domain.ErrRetryExhausted)
	assert.EqualValues(t, 3, calls)
	assert.Equal(t, time.Second, clk.Now().Sub(epoch), "no delay after the final attempt")
}

func TestWithRetry_StopsOnPermanentError(t *testing.T) {
	var calls int32
	denied := domain.NewError(domain.KindPermissionDenied, "apps", "")
	op := func(ctx context.Context) (int, error) {
		atomic.AddInt32(&calls, 1)
		return 0, denied
	}

	res, err := executor.WithRetry(context.Background(), "apps", 5, 0, op, executor.WithRetryIf(domain.Retryable))

	assert.Same(t, denied, err)
	assert.Equal(t, 1, res.Attempts)
	assert.EqualValues(t, 1, calls)
}

func TestWithTimeoutAndRetry_TimeoutCountsAsAttempt(t *testing.T) {
	var calls int32
	op := func(ctx context.Context) (string, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			<-ctx.Done()
			return "", ctx.Err()
		}
		return "second", nil
	}

	res, err := executor.WithTimeoutAndRetry(context.Background(), "children", 20*time.Millisecond, 2, 0, op)
	require.NoError(t, err)
	assert.Equal(t, "second", res.Value)
	assert.Equal(t, 2, res.Attempts)
}

func TestRun_UsesPolicy(t *testing.T) {
	ex := executor.New()
	ex.Timeout = 10 * time.Millisecond
	ex.MaxAttempts = 2
	ex.RetryDelay = 0

	var calls int32
	_, err := executor.Run(context.Background(), ex, "hang", func(ctx context.Context) (int, error) {
		atomic.AddInt32(&calls, 1)
		<-ctx.Done()
		return 0, ctx.Err()
	})

	var re *executor.RetryExhaustedError
	require.ErrorAs(t, err, &re)
	assert.ErrorIs(t, re.LastErr, domain.ErrTimeout)
	assert.EqualValues(t, 2, calls)
	assert.NotEmpty(t, domain.HintFor(err))
}

func TestOrDefault(t *testing.T) {
	assert.Equal(t, 3, executor.OrDefault(3, nil, 9))
	assert.Equal(t, 9, executor.OrDefault(3, errors.New("x"), 9))
	assert.Equal(t, []string{}, executor.OrDefault[[]string](nil, errors.New("x"), []string{}))
}
