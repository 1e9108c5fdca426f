package axnav

import (
	"log/slog"

	"github.com/aretw0/axnav/pkg/domain"
	"github.com/aretw0/axnav/pkg/executor"
	"github.com/aretw0/axnav/pkg/governor"
	"github.com/aretw0/axnav/pkg/ports"
	"github.com/aretw0/axnav/pkg/session"
	"github.com/aretw0/axnav/pkg/tree"
)

// Option defines a functional option for configuring the Inspector.
type Option func(*Inspector)

// WithGovernor sets the circuit breaker every provider call goes through.
func WithGovernor(g *governor.Governor) Option {
	return func(in *Inspector) {
		in.governor = g
	}
}

// WithExecutor sets the timeout and retry policy.
func WithExecutor(ex *executor.Executor) Option {
	return func(in *Inspector) {
		in.executor = ex
	}
}

// WithSnapshotStore sets where provider results are cached for degraded mode.
func WithSnapshotStore(s ports.SnapshotStore) Option {
	return func(in *Inspector) {
		in.store = s
	}
}

// WithSessions injects a session manager, e.g. one with a distributed locker.
func WithSessions(m *session.Manager) Option {
	return func(in *Inspector) {
		in.sessions = m
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(in *Inspector) {
		in.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(in *Inspector) {
		in.hooks = hooks
	}
}

// WithLoadOptions bounds how many children and levels are materialized.
func WithLoadOptions(opts tree.LoadOptions) Option {
	return func(in *Inspector) {
		in.loadOpts = opts
	}
}

// WithMaxResolveDepth bounds how deep Resolve and Find materialize the tree
// while searching.
func WithMaxResolveDepth(depth int) Option {
	return func(in *Inspector) {
		if depth > 0 {
			in.maxResolveDepth = depth
		}
	}
}
