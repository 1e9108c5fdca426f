package governor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/axnav/internal/logging"
	"github.com/aretw0/axnav/pkg/executor"
	"github.com/aretw0/axnav/pkg/ports"
)

// RecoveryPolicy decides how degraded mode is left.
type RecoveryPolicy string

const (
	// RecoverCooldown clears degraded mode after Config.RecoverySamples
	// consecutive samples at or below the threshold.
	RecoverCooldown RecoveryPolicy = "cooldown"
	// RecoverSticky never clears automatically. Only Reset leaves degraded mode.
	RecoverSticky RecoveryPolicy = "sticky"
)

// ErrNoSensor is returned by Sample and Run when no sensor is configured.
var ErrNoSensor = errors.New("governor: no cpu sensor configured")

// Config holds the governor limits.
type Config struct {
	MaxConcurrent    int            `yaml:"max_concurrent" mapstructure:"max_concurrent"`
	HighCPUThreshold float64        `yaml:"high_cpu_threshold" mapstructure:"high_cpu_threshold"`
	SampleInterval   time.Duration  `yaml:"sample_interval" mapstructure:"sample_interval"`
	Recovery         RecoveryPolicy `yaml:"recovery" mapstructure:"recovery"`
	RecoverySamples  int            `yaml:"recovery_samples" mapstructure:"recovery_samples"`
}

// DefaultConfig returns one call at a time, 70% CPU, 2s sampling and
// cooldown recovery after three healthy samples.
func DefaultConfig() Config {
	return Config{
		MaxConcurrent:    1,
		HighCPUThreshold: 70,
		SampleInterval:   2 * time.Second,
		Recovery:         RecoverCooldown,
		RecoverySamples:  3,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.MaxConcurrent < 1 {
		c.MaxConcurrent = def.MaxConcurrent
	}
	if c.HighCPUThreshold <= 0 {
		c.HighCPUThreshold = def.HighCPUThreshold
	}
	if c.SampleInterval <= 0 {
		c.SampleInterval = def.SampleInterval
	}
	if c.Recovery == "" {
		c.Recovery = def.Recovery
	}
	if c.RecoverySamples < 1 {
		c.RecoverySamples = def.RecoverySamples
	}
	return c
}

// Validate rejects unknown recovery policies.
func (c Config) Validate() error {
	switch c.Recovery {
	case "", RecoverCooldown, RecoverSticky:
		return nil
	}
	return fmt.Errorf("governor: unknown recovery policy %q", c.Recovery)
}

// State is a point-in-time view of the governor.
type State struct {
	InFlight      int
	MaxConcurrent int
	Degraded      bool
	LastSample    float64
	Sampled       bool
	Rejected      uint64
}

// Governor gates provider calls. The zero value is not usable; use New.
type Governor struct {
	cfg    Config
	sensor ports.CPUSensor
	clock  executor.Clock
	logger *slog.Logger

	mu            sync.Mutex
	inFlight      int
	degraded      bool
	lastSample    float64
	sampled       bool
	healthyStreak int
	rejected      uint64

	observers []func(State)
}

// Option configures a Governor.
type Option func(*Governor)

// WithConfig replaces the limits. Zero fields keep their defaults.
func WithConfig(cfg Config) Option {
	return func(g *Governor) {
		g.cfg = cfg.withDefaults()
	}
}

// WithSensor sets the CPU source.
func WithSensor(s ports.CPUSensor) Option {
	return func(g *Governor) {
		g.sensor = s
	}
}

// WithClock sets the clock driving Run.
func WithClock(c executor.Clock) Option {
	return func(g *Governor) {
		if c != nil {
			g.clock = c
		}
	}
}

// WithLogger sets the logger used for sampling failures and mode changes.
func WithLogger(l *slog.Logger) Option {
	return func(g *Governor) {
		if l != nil {
			g.logger = l
		}
	}
}

// OnChange registers an observer called after every state change.
// Observers run outside the governor lock and must not block.
func OnChange(fn func(State)) Option {
	return func(g *Governor) {
		if fn != nil {
			g.observers = append(g.observers, fn)
		}
	}
}

// New creates a Governor with the default configuration and no sensor.
func New(opts ...Option) *Governor {
	g := &Governor{
		cfg:    DefaultConfig(),
		clock:  executor.RealClock,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Config returns the effective limits.
func (g *Governor) Config() Config { return g.cfg }

// CanStartOperation reports whether a provider call would be admitted now.
// It does not reserve capacity; use TryAcquire for that.
func (g *Governor) CanStartOperation() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.admitLocked()
}

func (g *Governor) admitLocked() bool {
	if g.degraded {
		return false
	}
	if g.inFlight >= g.cfg.MaxConcurrent {
		return false
	}
	if g.sampled && g.lastSample > g.cfg.HighCPUThreshold {
		return false
	}
	return true
}

// TryAcquire checks admission and reserves a slot in one critical section.
// The returned release is idempotent and must be called exactly when the
// call finishes, whatever its outcome.
func (g *Governor) TryAcquire() (release func(), ok bool) {
	g.mu.Lock()
	if !g.admitLocked() {
		g.rejected++
		st := g.stateLocked()
		g.mu.Unlock()
		g.notify(st)
		return func() {}, false
	}
	g.inFlight++
	st := g.stateLocked()
	g.mu.Unlock()
	g.notify(st)

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			g.inFlight--
			st := g.stateLocked()
			g.mu.Unlock()
			g.notify(st)
		})
	}, true
}

// Sample reads the sensor once and updates degraded mode.
// A failed read keeps the previous sample.
func (g *Governor) Sample(ctx context.Context) (float64, error) {
	if g.sensor == nil {
		return 0, ErrNoSensor
	}
	v, err := g.sensor.Sample(ctx)
	if err != nil {
		g.logger.Warn("cpu sample failed, keeping previous value", "err", err)
		g.mu.Lock()
		prev := g.lastSample
		g.mu.Unlock()
		return prev, err
	}
	g.record(v)
	return v, nil
}

func (g *Governor) record(v float64) {
	g.mu.Lock()
	wasDegraded := g.degraded
	g.lastSample = v
	g.sampled = true

	if v > g.cfg.HighCPUThreshold {
		g.degraded = true
		g.healthyStreak = 0
	} else if g.degraded && g.cfg.Recovery == RecoverCooldown {
		g.healthyStreak++
		if g.healthyStreak >= g.cfg.RecoverySamples {
			g.degraded = false
			g.healthyStreak = 0
		}
	}
	st := g.stateLocked()
	g.mu.Unlock()

	if st.Degraded != wasDegraded {
		if st.Degraded {
			g.logger.Warn("entering degraded mode", "cpu", v, "threshold", g.cfg.HighCPUThreshold)
		} else {
			g.logger.Info("leaving degraded mode", "cpu", v)
		}
	}
	g.notify(st)
}

// Run samples the sensor on the configured interval until ctx is done.
// The first sample is taken immediately.
func (g *Governor) Run(ctx context.Context) error {
	if g.sensor == nil {
		return ErrNoSensor
	}
	for {
		_, _ = g.Sample(ctx)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-g.clock.After(g.cfg.SampleInterval):
		}
	}
}

// Reset leaves degraded mode and forgets the last sample.
func (g *Governor) Reset() {
	g.mu.Lock()
	g.degraded = false
	g.healthyStreak = 0
	g.sampled = false
	g.lastSample = 0
	st := g.stateLocked()
	g.mu.Unlock()
	g.notify(st)
}

// Degraded reports whether calls are currently being bypassed.
func (g *Governor) Degraded() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.degraded
}

// State returns a snapshot of the governor.
func (g *Governor) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.stateLocked()
}

func (g *Governor) stateLocked() State {
	return State{
		InFlight:      g.inFlight,
		MaxConcurrent: g.cfg.MaxConcurrent,
		Degraded:      g.degraded,
		LastSample:    g.lastSample,
		Sampled:       g.sampled,
		Rejected:      g.rejected,
	}
}

func (g *Governor) notify(st State) {
	for _, fn := range g.observers {
		fn(st)
	}
}
