package governor

import (
	"context"

	"github.com/aretw0/axnav/pkg/domain"
	"github.com/aretw0/axnav/pkg/executor"
)

// Fallback produces a cached or synthetic result when a call is refused.
type Fallback[T any] func(ctx context.Context) (T, error)

// Guard runs op through ex if g admits it, and through fallback otherwise.
// The degraded result reports which path was taken. Without a fallback a
// refused call fails with a degraded error.
//
// The slot is released when executor.Run returns, however op ends, including
// by panic. Run gives up on an attempt at its timeout without stopping the
// provider call behind it, so MaxConcurrent bounds governed operations in
// flight, not live provider calls. A nil g admits every call.
func Guard[T any](ctx context.Context, g *Governor, ex *executor.Executor, name string, op executor.Operation[T], fallback Fallback[T]) (T, bool, error) {
	if g == nil {
		res, err := executor.Run(ctx, ex, name, op)
		return res.Value, false, err
	}

	release, ok := g.TryAcquire()
	if !ok {
		if fallback == nil {
			var zero T
			return zero, true, domain.NewError(domain.KindDegraded, name, "call refused and nothing cached")
		}
		v, err := fallback(ctx)
		return v, true, err
	}
	defer release()

	res, err := executor.Run(ctx, ex, name, op)
	return res.Value, false, err
}
