// Package cli wires a configuration into a ready inspector for the axnav
// commands.
package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/axnav"
	"github.com/aretw0/axnav/internal/config"
	"github.com/aretw0/axnav/pkg/adapters/fixture"
	"github.com/aretw0/axnav/pkg/adapters/memory"
	redisadapter "github.com/aretw0/axnav/pkg/adapters/redis"
	"github.com/aretw0/axnav/pkg/domain"
	"github.com/aretw0/axnav/pkg/executor"
	"github.com/aretw0/axnav/pkg/governor"
	"github.com/aretw0/axnav/pkg/observability"
	"github.com/aretw0/axnav/pkg/persistence/middleware"
	"github.com/aretw0/axnav/pkg/ports"
	"github.com/aretw0/axnav/pkg/sensor"
	"github.com/aretw0/axnav/pkg/session"
	"github.com/prometheus/client_golang/prometheus"
)

// ErrNoProvider is returned when the configuration names no provider.
var ErrNoProvider = errors.New("no accessibility provider: set fixture in the config file or AXNAV_FIXTURE")

// pingTimeout bounds the startup check of a remote snapshot store.
const pingTimeout = 3 * time.Second

// App is a wired inspector with the collaborators the commands need.
type App struct {
	Config    config.Config
	Logger    *slog.Logger
	Inspector *axnav.Inspector
	Governor  *governor.Governor
	Metrics   *observability.Metrics
	Store     ports.SnapshotStore

	closers []func() error
}

// Option adjusts how Build wires the App.
type Option func(*buildOptions)

type buildOptions struct {
	hooks  []domain.LifecycleHooks
	sensor ports.CPUSensor
}

// WithHooks adds lifecycle hooks next to the logging and metrics hooks.
func WithHooks(h domain.LifecycleHooks) Option {
	return func(o *buildOptions) {
		o.hooks = append(o.hooks, h)
	}
}

// WithSensor replaces the process CPU sensor.
func WithSensor(s ports.CPUSensor) Option {
	return func(o *buildOptions) {
		o.sensor = s
	}
}

// Build creates the provider, snapshot store, governor, executor and
// inspector described by cfg. Close the App when done.
func Build(cfg config.Config, logger *slog.Logger, opts ...Option) (*App, error) {
	o := buildOptions{sensor: sensor.NewProcess()}
	for _, opt := range opts {
		opt(&o)
	}

	app := &App{
		Config:  cfg,
		Logger:  logger,
		Metrics: observability.NewMetrics(prometheus.NewRegistry()),
	}

	if cfg.Fixture == "" {
		return nil, ErrNoProvider
	}
	provider, err := fixture.Open(cfg.Fixture)
	if err != nil {
		return nil, fmt.Errorf("open fixture: %w", err)
	}
	app.closers = append(app.closers, provider.Close)

	sessionOpts := []session.Option{session.WithLogger(logger), session.WithLockTTL(cfg.Store.LockTTL)}
	switch cfg.Store.Backend {
	case config.StoreRedis:
		store, err := openRedis(cfg.Store.Redis)
		if err != nil {
			_ = app.Close()
			return nil, err
		}
		app.Store = store
		app.closers = append(app.closers, store.Close)
		sessionOpts = append(sessionOpts, session.WithLocker(redisadapter.NewLocker(store.Client(), cfg.Store.Redis.Prefix)))
		logger.Info("snapshot store ready", "backend", "redis", "addr", cfg.Store.Redis.Addr)
	default:
		app.Store = memory.NewStore()
	}

	mws, err := storeMiddlewares(cfg.Store)
	if err != nil {
		_ = app.Close()
		return nil, err
	}
	app.Store = middleware.Chain(app.Store, mws...)

	app.Governor = governor.New(
		governor.WithConfig(cfg.Governor),
		governor.WithSensor(o.sensor),
		governor.WithLogger(logger),
		governor.OnChange(app.Metrics.ObserveGovernor),
	)

	ex := executor.New()
	cfg.Executor.Apply(ex)
	ex.Logger = logger

	hooks := append([]domain.LifecycleHooks{observability.LogHooks(logger), app.Metrics.Hooks()}, o.hooks...)
	app.Inspector, err = axnav.New(provider,
		axnav.WithGovernor(app.Governor),
		axnav.WithExecutor(ex),
		axnav.WithSnapshotStore(app.Store),
		axnav.WithSessions(session.NewManager(sessionOpts...)),
		axnav.WithLogger(logger),
		axnav.WithLifecycleHooks(domain.Combine(hooks...)),
		axnav.WithLoadOptions(cfg.Tree),
		axnav.WithMaxResolveDepth(cfg.MaxResolveDepth),
	)
	if err != nil {
		_ = app.Close()
		return nil, err
	}
	return app, nil
}

// storeMiddlewares redacts before sealing so masked values never reach
// the ciphertext.
func storeMiddlewares(cfg config.StoreConfig) ([]middleware.Middleware, error) {
	var mws []middleware.Middleware
	if len(cfg.Redact) > 0 {
		redact, err := middleware.NewRedaction(cfg.Redact)
		if err != nil {
			return nil, err
		}
		mws = append(mws, redact)
	}
	if cfg.Encryption.Key != "" {
		active, fallbacks, err := cfg.Encryption.Keys()
		if err != nil {
			return nil, err
		}
		seal, err := middleware.NewEncryption(middleware.EncryptionConfig{ActiveKey: active, FallbackKeys: fallbacks})
		if err != nil {
			return nil, err
		}
		mws = append(mws, seal)
	}
	return mws, nil
}

func openRedis(cfg config.RedisConfig) (*redisadapter.Store, error) {
	store := redisadapter.New(cfg.Addr, cfg.Password, cfg.DB,
		redisadapter.WithPrefix(cfg.Prefix),
		redisadapter.WithTTL(cfg.TTL))
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := store.Ping(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("redis snapshot store at %s: %w", cfg.Addr, err)
	}
	return store, nil
}

// StartGovernor runs the CPU sample loop until the returned stop function
// is called.
func (a *App) StartGovernor(ctx context.Context) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := a.Governor.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			a.Logger.Warn("governor sampling stopped", "err", err)
		}
	}()
	return func() {
		cancel()
		wg.Wait()
	}
}

// Close releases the inspector, the provider and the store.
func (a *App) Close() error {
	if a.Inspector != nil {
		a.Inspector.Close()
	}
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}
