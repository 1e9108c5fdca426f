package axnav

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/aretw0/axnav/internal/logging"
	"github.com/aretw0/axnav/pkg/adapters/memory"
	"github.com/aretw0/axnav/pkg/domain"
	"github.com/aretw0/axnav/pkg/executor"
	"github.com/aretw0/axnav/pkg/governor"
	"github.com/aretw0/axnav/pkg/ports"
	"github.com/aretw0/axnav/pkg/session"
	"github.com/aretw0/axnav/pkg/tree"
	"golang.org/x/sync/singleflight"
)

// DefaultMaxResolveDepth bounds on-demand materialization during searches.
const DefaultMaxResolveDepth = 8

// Inspector is the service object composing the provider with the governor,
// the executor, the snapshot cache and lazy tree loading.
// Construct it once and share it; it is safe for concurrent use.
type Inspector struct {
	provider        ports.Provider
	governor        *governor.Governor
	executor        *executor.Executor
	store           ports.SnapshotStore
	sessions        *session.Manager
	hooks           domain.LifecycleHooks
	logger          *slog.Logger
	loadOpts        tree.LoadOptions
	maxResolveDepth int

	flights singleflight.Group
}

// New builds an Inspector over provider. Unset collaborators get defaults:
// a governor allowing one call at a time with no CPU sensor, the default
// executor policy and an in-memory snapshot store.
func New(provider ports.Provider, opts ...Option) (*Inspector, error) {
	if provider == nil {
		return nil, fmt.Errorf("axnav: provider is required")
	}
	in := &Inspector{
		provider:        provider,
		loadOpts:        tree.DefaultLoadOptions(),
		maxResolveDepth: DefaultMaxResolveDepth,
	}
	for _, opt := range opts {
		opt(in)
	}

	if in.logger == nil {
		in.logger = logging.NewNop()
	}
	if in.governor == nil {
		in.governor = governor.New(governor.WithLogger(in.logger))
	}
	if in.executor == nil {
		in.executor = executor.New()
		in.executor.Logger = in.logger
	}
	if in.store == nil {
		in.store = memory.NewStore()
	}
	if in.sessions == nil {
		in.sessions = session.NewManager(session.WithLogger(in.logger))
	}
	return in, nil
}

// Governor exposes the circuit breaker, e.g. to start its sample loop.
func (in *Inspector) Governor() *governor.Governor { return in.governor }

// Store exposes the snapshot cache.
func (in *Inspector) Store() ports.SnapshotStore { return in.store }

// Close releases every open application tree.
func (in *Inspector) Close() {
	in.sessions.Close()
}

// guarded runs one provider call through the governor and executor and
// reports it to the lifecycle hooks.
func guarded[T any](ctx context.Context, in *Inspector, ex *executor.Executor, name string, pid int, op executor.Operation[T], fallback governor.Fallback[T]) (T, bool, error) {
	var attempts atomic.Int32
	counted := func(ctx context.Context) (T, error) {
		attempts.Add(1)
		return op(ctx)
	}

	start := time.Now()
	in.hooks.EmitStart(ctx, &domain.OperationEvent{
		EventBase: domain.EventBase{Timestamp: start, Type: domain.EventOperationStart},
		Operation: name,
		PID:       pid,
	})

	v, degraded, err := governor.Guard(ctx, in.governor, ex, name, counted, fallback)

	end := &domain.OperationEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventOperationEnd},
		Operation: name,
		PID:       pid,
		Attempts:  int(attempts.Load()),
		Duration:  time.Since(start),
		Degraded:  degraded,
		Err:       err,
	}
	if degraded {
		end.Type = domain.EventDegraded
	}
	in.hooks.EmitEnd(ctx, end)

	switch {
	case err != nil:
		in.logger.Debug("provider call failed", "operation", name, "pid", pid, "degraded", degraded, "err", err)
	case degraded:
		in.logger.Debug("provider call served from cache", "operation", name, "pid", pid)
	}
	return v, degraded, err
}

// Applications lists the running applications. Concurrent callers share one
// provider call.
func (in *Inspector) Applications(ctx context.Context) ([]domain.AppInfo, error) {
	v, err, _ := in.flights.Do("apps", func() (any, error) {
		apps, degraded, err := guarded(ctx, in, in.executor, "applications", 0,
			func(ctx context.Context) ([]domain.AppInfo, error) {
				return in.provider.Applications(ctx)
			},
			func(ctx context.Context) ([]domain.AppInfo, error) {
				return in.cachedApplications(ctx)
			})
		if err == nil && !degraded {
			in.rememberApplications(ctx, apps)
		}
		return apps, err
	})
	if err != nil {
		return nil, err
	}
	return v.([]domain.AppInfo), nil
}

// FocusedApplication returns the frontmost application.
func (in *Inspector) FocusedApplication(ctx context.Context) (domain.AppInfo, error) {
	app, _, err := guarded(ctx, in, in.executor, "focused application", 0,
		func(ctx context.Context) (domain.AppInfo, error) {
			return in.provider.FocusedApplication(ctx)
		},
		func(ctx context.Context) (domain.AppInfo, error) {
			apps, err := in.cachedApplications(ctx)
			if err != nil {
				return domain.AppInfo{}, err
			}
			for _, a := range apps {
				if a.Focused {
					return a, nil
				}
			}
			return domain.AppInfo{}, domain.NewError(domain.KindDegraded, "focused application", "no focused application cached")
		})
	return app, err
}

// Application returns the root of pid's UI tree, loading it on first use.
// The root stays open until Reopen, CloseApplication or Close.
//
// While degraded, a cached root is returned as a synthetic node and is not
// kept open.
func (in *Inspector) Application(ctx context.Context, pid int) (*tree.Node, error) {
	if root, ok := in.sessions.Root(pid); ok {
		return root, nil
	}
	return in.openRoot(ctx, pid)
}

// Reopen discards pid's current tree, if any, and loads a fresh root.
func (in *Inspector) Reopen(ctx context.Context, pid int) (*tree.Node, error) {
	in.sessions.Discard(pid)
	return in.openRoot(ctx, pid)
}

// CloseApplication releases pid's tree.
func (in *Inspector) CloseApplication(pid int) {
	in.sessions.Discard(pid)
}

func (in *Inspector) openRoot(ctx context.Context, pid int) (*tree.Node, error) {
	if pid <= 0 {
		return nil, domain.Invalidf("open application", "pid must be positive, got %d", pid)
	}
	v, err, _ := in.flights.Do("root:"+strconv.Itoa(pid), func() (any, error) {
		if root, ok := in.sessions.Root(pid); ok {
			return root, nil
		}
		info, degraded, err := guarded(ctx, in, in.executor, "application element", pid,
			func(ctx context.Context) (domain.ElementInfo, error) {
				return in.provider.ApplicationElement(ctx, pid)
			},
			func(ctx context.Context) (domain.ElementInfo, error) {
				return in.cachedRoot(ctx, pid)
			})
		if err != nil {
			return nil, err
		}
		if info.App == nil {
			info.App = &domain.AppInfo{PID: pid, Name: info.Title}
		}
		root := tree.FromInfo(info)
		if degraded {
			return root, nil
		}

		in.sessions.SetRoot(pid, root)
		in.remember(ctx, rootKey(pid), &domain.Snapshot{Element: &info})
		in.hooks.EmitRoot(ctx, &domain.RootEvent{
			EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventRootSelected},
			App:       *info.App,
		})
		in.logger.Info("application opened", "pid", pid, "app", info.App.Name)
		return root, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*tree.Node), nil
}

// Expand materializes n's children, preloading per the load options. It
// reports whether any level was served from cache instead of the provider.
// Expanding an already loaded node does nothing.
func (in *Inspector) Expand(ctx context.Context, n *tree.Node) (bool, error) {
	if n == nil {
		return false, domain.Invalidf("expand", "no node")
	}
	var degraded atomic.Bool
	err := n.LoadChildren(ctx, in.fetcher(&degraded), in.loadOpts)
	return degraded.Load(), err
}

func (in *Inspector) fetcher(degraded *atomic.Bool) tree.Fetcher {
	return func(ctx context.Context, n *tree.Node) ([]domain.ElementInfo, error) {
		pid := pidOf(n)
		key := nodeKey(pid, n)
		if n.Synthetic() {
			degraded.Store(true)
			return in.cachedChildren(ctx, key)
		}
		children, wasDegraded, err := guarded(ctx, in, in.executor, "children", pid,
			func(ctx context.Context) ([]domain.ElementInfo, error) {
				return in.provider.Children(ctx, n.Handle())
			},
			func(ctx context.Context) ([]domain.ElementInfo, error) {
				return in.cachedChildren(ctx, key)
			})
		if err != nil {
			return nil, err
		}
		if wasDegraded {
			degraded.Store(true)
		} else {
			in.remember(ctx, key, &domain.Snapshot{Children: children})
		}
		return children, nil
	}
}

// Materialize expands the tree below root breadth-first, depth levels deep.
// Failures below root are collected and do not stop the walk. A depth past
// the resolve depth limit is rejected before any provider call.
func (in *Inspector) Materialize(ctx context.Context, root *tree.Node, depth int) error {
	if root == nil {
		return domain.Invalidf("materialize", "no node")
	}
	if depth > in.maxResolveDepth {
		return domain.Invalidf("materialize", "depth %d exceeds the limit of %d", depth, in.maxResolveDepth)
	}
	level := []*tree.Node{root}
	var errs []error
	for d := 0; d < depth && len(level) > 0; d++ {
		var next []*tree.Node
		for _, n := range level {
			if err := ctx.Err(); err != nil {
				return errors.Join(append(errs, domain.WrapError(domain.KindCancelled, "materialize", err))...)
			}
			if !n.ChildrenLoaded() && !n.DeclaredHasChildren() && n != root {
				continue
			}
			if _, err := in.Expand(ctx, n); err != nil {
				if n == root {
					return err
				}
				errs = append(errs, fmt.Errorf("%s: %w", n.Label(), err))
				continue
			}
			next = append(next, n.Children()...)
		}
		level = next
	}
	return errors.Join(errs...)
}

// Actions returns n's action names, reading them from the provider the first
// time. The bool reports a cached answer.
func (in *Inspector) Actions(ctx context.Context, n *tree.Node) ([]string, bool, error) {
	if actions, ok := n.Actions(); ok {
		return actions, false, nil
	}
	pid := pidOf(n)
	key := nodeKey(pid, n)
	if n.Synthetic() {
		snap, err := in.cached(ctx, key, "actions")
		if err != nil {
			return nil, true, err
		}
		return snap.Actions, true, nil
	}

	actions, degraded, err := guarded(ctx, in, in.executor, "actions", pid,
		func(ctx context.Context) ([]string, error) {
			return in.provider.ActionNames(ctx, n.Handle())
		},
		func(ctx context.Context) ([]string, error) {
			snap, err := in.cached(ctx, key, "actions")
			if err != nil {
				return nil, err
			}
			return snap.Actions, nil
		})
	if err != nil {
		return nil, degraded, err
	}
	if actions == nil {
		actions = []string{}
	}
	if !degraded {
		n.SetActions(actions)
		in.remember(ctx, key, &domain.Snapshot{Actions: actions})
	}
	return actions, degraded, nil
}

// Attributes reads every attribute of n in one governed call. Attributes
// whose value cannot be read are reported as unknown values carrying the
// error text.
func (in *Inspector) Attributes(ctx context.Context, n *tree.Node) (map[string]domain.Value, bool, error) {
	if attrs, ok := n.Attributes(); ok {
		return attrs, false, nil
	}
	pid := pidOf(n)
	key := nodeKey(pid, n)
	fromCache := func(ctx context.Context) (map[string]domain.Value, error) {
		snap, err := in.cached(ctx, key, "attributes")
		if err != nil {
			return nil, err
		}
		return snap.Attributes, nil
	}
	if n.Synthetic() {
		attrs, err := fromCache(ctx)
		return attrs, true, err
	}

	attrs, degraded, err := guarded(ctx, in, in.executor, "attributes", pid,
		func(ctx context.Context) (map[string]domain.Value, error) {
			names, err := in.provider.AttributeNames(ctx, n.Handle())
			if err != nil {
				return nil, err
			}
			out := make(map[string]domain.Value, len(names))
			for _, name := range names {
				v, err := in.provider.AttributeValue(ctx, n.Handle(), name)
				if err != nil {
					v = domain.UnknownValue("<" + err.Error() + ">")
				}
				out[name] = v
			}
			return out, nil
		},
		fromCache)
	if err != nil {
		return nil, degraded, err
	}
	if !degraded {
		n.SetAttributes(attrs)
		in.remember(ctx, key, &domain.Snapshot{Attributes: attrs})
	}
	return attrs, degraded, nil
}

// Perform executes action on n. Actions have side effects, so they are
// attempted once, never retried, and serialized per application. A refused
// call is not replayed from cache: it fails with a degraded error.
func (in *Inspector) Perform(ctx context.Context, n *tree.Node, action string) error {
	op := "perform " + action
	if action == "" {
		return domain.Invalidf("perform", "action name is empty")
	}
	if n.Synthetic() {
		return &domain.Error{Kind: domain.KindDegraded, Op: op, Detail: n.Label(),
			Hint: "this element was loaded from cache; refresh once the tool is responsive"}
	}
	pid := pidOf(n)

	once := *in.executor
	once.MaxAttempts = 1

	return in.sessions.WithLock(ctx, pid, func(ctx context.Context) error {
		_, _, err := guarded(ctx, in, &once, op, pid,
			func(ctx context.Context) (struct{}, error) {
				return struct{}{}, in.provider.PerformAction(ctx, n.Handle(), action)
			}, nil)
		if err == nil {
			in.logger.Info("action performed", "pid", pid, "element", n.Label(), "action", action)
		}
		return err
	})
}

// Refresh re-reads n from the provider and swaps a fresh node into its
// place, releasing the old subtree. The fresh node's children are loaded
// again. Refreshing a root replaces the application's open tree.
func (in *Inspector) Refresh(ctx context.Context, n *tree.Node) (*tree.Node, error) {
	if n.Synthetic() {
		return nil, &domain.Error{Kind: domain.KindDegraded, Op: "refresh", Detail: n.Label(),
			Hint: "this element was loaded from cache; reopen the application once the tool is responsive"}
	}
	pid := pidOf(n)
	parent := n.Parent()

	var info domain.ElementInfo
	var err error
	if parent == nil && n.Kind() == domain.KindApplication && pid > 0 {
		info, _, err = guarded(ctx, in, in.executor, "application element", pid,
			func(ctx context.Context) (domain.ElementInfo, error) {
				return in.provider.ApplicationElement(ctx, pid)
			}, nil)
	} else {
		info, _, err = guarded(ctx, in, in.executor, "describe", pid,
			func(ctx context.Context) (domain.ElementInfo, error) {
				return in.provider.Describe(ctx, n.Handle())
			}, nil)
	}
	if err != nil {
		return nil, err
	}
	if info.App == nil && n.App() != nil {
		app := *n.App()
		info.App = &app
	}

	fresh := tree.FromInfo(info)
	switch {
	case parent != nil:
		if !parent.ReplaceChild(n, fresh) {
			return nil, domain.NewError(domain.KindNotFound, "refresh", n.Label()+" is no longer attached")
		}
	case pid > 0:
		in.sessions.SetRoot(pid, fresh)
	default:
		n.Release()
	}

	if _, err := in.Expand(ctx, fresh); err != nil {
		return fresh, err
	}
	return fresh, nil
}

func pidOf(n *tree.Node) int {
	if app := tree.Root(n).App(); app != nil {
		return app.PID
	}
	return 0
}
