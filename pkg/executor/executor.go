package executor

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/aretw0/axnav/pkg/domain"
)

// Operation is a unit of remote work.
type Operation[T any] func(ctx context.Context) (T, error)

// Result reports a successful value together with how it was obtained.
type Result[T any] struct {
	Value    T
	Attempts int
	Elapsed  time.Duration
}

type options struct {
	clock     Clock
	retryIf   func(error) bool
	onFailure func(attempt int, err error)
}

// Option configures a combinator call.
type Option func(*options)

// WithClock sets the time source. Tests pass a controllable clock.
func WithClock(c Clock) Option {
	return func(o *options) {
		if c != nil {
			o.clock = c
		}
	}
}

// WithRetryIf stops retrying as soon as fn reports false for an error.
// That error is returned as is, not wrapped in RetryExhaustedError.
func WithRetryIf(fn func(error) bool) Option {
	return func(o *options) {
		o.retryIf = fn
	}
}

// WithOnFailure observes every failed attempt.
func WithOnFailure(fn func(attempt int, err error)) Option {
	return func(o *options) {
		o.onFailure = fn
	}
}

func apply(opts []Option) options {
	o := options{clock: RealClock}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithTimeout runs op on its own goroutine and waits for whichever comes
// first: its result, the deadline, or cancellation of ctx.
//
// On timeout op's context is cancelled, but op is not stopped: a call that
// ignores its context keeps running and its result is dropped.
// A non-positive d disables the deadline.
func WithTimeout[T any](ctx context.Context, name string, d time.Duration, op Operation[T], opts ...Option) (T, error) {
	o := apply(opts)
	var zero T

	if err := ctx.Err(); err != nil {
		return zero, cancelled(name, err)
	}

	type outcome struct {
		value T
		err   error
	}

	opCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Buffered so an abandoned worker can always deliver and exit.
	done := make(chan outcome, 1)

	var deadline <-chan time.Time
	if d > 0 {
		deadline = o.clock.After(d)
	}

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: &PanicError{Operation: name, Value: r}}
			}
		}()
		v, err := op(opCtx)
		done <- outcome{value: v, err: err}
	}()

	select {
	case res := <-done:
		return res.value, res.err
	case <-deadline:
		return zero, &TimeoutError{Operation: name, Duration: d}
	case <-ctx.Done():
		return zero, cancelled(name, ctx.Err())
	}
}

// WithRetry invokes op up to maxAttempts times, waiting delay between
// attempts and stopping at the first success. When every attempt fails it
// returns RetryExhaustedError after exactly maxAttempts invocations.
func WithRetry[T any](ctx context.Context, name string, maxAttempts int, delay time.Duration, op Operation[T], opts ...Option) (Result[T], error) {
	o := apply(opts)
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	start := o.clock.Now()

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return Result[T]{Attempts: attempt - 1, Elapsed: o.clock.Now().Sub(start)}, cancelled(name, err)
		}

		v, err := op(ctx)
		if err == nil {
			return Result[T]{Value: v, Attempts: attempt, Elapsed: o.clock.Now().Sub(start)}, nil
		}
		lastErr = err
		if o.onFailure != nil {
			o.onFailure(attempt, err)
		}
		if o.retryIf != nil && !o.retryIf(err) {
			return Result[T]{Attempts: attempt, Elapsed: o.clock.Now().Sub(start)}, err
		}

		if attempt < maxAttempts && delay > 0 {
			select {
			case <-o.clock.After(delay):
			case <-ctx.Done():
				return Result[T]{Attempts: attempt, Elapsed: o.clock.Now().Sub(start)}, cancelled(name, ctx.Err())
			}
		}
	}

	return Result[T]{Attempts: maxAttempts, Elapsed: o.clock.Now().Sub(start)},
		&RetryExhaustedError{Operation: name, Attempts: maxAttempts, LastErr: lastErr}
}

// WithTimeoutAndRetry applies the deadline to each attempt. A timed-out
// attempt counts as a failed attempt.
func WithTimeoutAndRetry[T any](ctx context.Context, name string, timeout time.Duration, maxAttempts int, delay time.Duration, op Operation[T], opts ...Option) (Result[T], error) {
	return WithRetry(ctx, name, maxAttempts, delay, func(ctx context.Context) (T, error) {
		return WithTimeout(ctx, name, timeout, op, opts...)
	}, opts...)
}

// OrDefault substitutes def when err is non-nil.
func OrDefault[T any](v T, err error, def T) T {
	if err != nil {
		return def
	}
	return v
}

// Executor is a reusable timeout-and-retry policy.
type Executor struct {
	Timeout     time.Duration
	MaxAttempts int
	RetryDelay  time.Duration
	Clock       Clock
	Logger      *slog.Logger
	// RetryIf decides whether a failure is worth another attempt.
	// Defaults to domain.Retryable.
	RetryIf func(error) bool
}

// Defaults used by New.
const (
	DefaultTimeout     = 5 * time.Second
	DefaultMaxAttempts = 3
	DefaultRetryDelay  = 250 * time.Millisecond
)

// New returns an Executor with the default policy.
func New() *Executor {
	return &Executor{
		Timeout:     DefaultTimeout,
		MaxAttempts: DefaultMaxAttempts,
		RetryDelay:  DefaultRetryDelay,
		Clock:       RealClock,
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		RetryIf:     domain.Retryable,
	}
}

func (ex *Executor) options(name string) []Option {
	retryIf := ex.RetryIf
	if retryIf == nil {
		retryIf = domain.Retryable
	}
	opts := []Option{WithClock(ex.Clock), WithRetryIf(retryIf)}
	if ex.Logger != nil {
		opts = append(opts, WithOnFailure(func(attempt int, err error) {
			ex.Logger.Debug("operation attempt failed", "operation", name, "attempt", attempt, "err", err)
		}))
	}
	return opts
}

// Run executes op under ex's policy. A nil Executor uses the defaults.
func Run[T any](ctx context.Context, ex *Executor, name string, op Operation[T]) (Result[T], error) {
	if ex == nil {
		ex = New()
	}
	return WithTimeoutAndRetry(ctx, name, ex.Timeout, ex.MaxAttempts, ex.RetryDelay, op, ex.options(name)...)
}
