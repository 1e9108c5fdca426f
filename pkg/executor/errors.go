package executor

import (
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/axnav/pkg/domain"
)

// TimeoutError is returned when an operation loses the race against its deadline.
type TimeoutError struct {
	Operation string
	Duration  time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s: timed out after %s", e.Operation, e.Duration)
}

// Is lets errors.Is(err, domain.ErrTimeout) match.
func (e *TimeoutError) Is(target error) bool {
	return isKind(target, domain.KindTimeout)
}

func (e *TimeoutError) RecoveryHint() string {
	return (&domain.Error{Kind: domain.KindTimeout}).RecoveryHint()
}

// RetryExhaustedError is returned after the last allowed attempt fails.
type RetryExhaustedError struct {
	Operation string
	Attempts  int
	LastErr   error
}

func (e *RetryExhaustedError) Error() string {
	return fmt.Sprintf("%s: gave up after %d attempts: %v", e.Operation, e.Attempts, e.LastErr)
}

func (e *RetryExhaustedError) Unwrap() error { return e.LastErr }

// Is lets errors.Is(err, domain.ErrRetryExhausted) match.
func (e *RetryExhaustedError) Is(target error) bool {
	return isKind(target, domain.KindRetryExhausted)
}

func (e *RetryExhaustedError) RecoveryHint() string {
	return (&domain.Error{Kind: domain.KindRetryExhausted}).RecoveryHint()
}

// PanicError carries a panic recovered from an operation's goroutine.
type PanicError struct {
	Operation string
	Value     any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("%s: panic: %v", e.Operation, e.Value)
}

func isKind(target error, kind domain.ErrorKind) bool {
	var de *domain.Error
	return errors.As(target, &de) && de.Kind == kind
}

func cancelled(op string, err error) error {
	return domain.WrapError(domain.KindCancelled, op, err)
}
