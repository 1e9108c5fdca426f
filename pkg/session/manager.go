package session

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/aretw0/axnav/internal/logging"
	"github.com/aretw0/axnav/pkg/ports"
	"github.com/aretw0/axnav/pkg/tree"
)

// DefaultLockTTL bounds how long a crashed holder can keep a distributed lock.
const DefaultLockTTL = 30 * time.Second

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager owns the per-application roots.
// It uses reference counting to garbage collect unused locks.
type Manager struct {
	mu    sync.Mutex
	locks map[int]*lockEntry
	roots map[int]*tree.Node

	locker  ports.DistributedLocker
	lockTTL time.Duration
	logger  *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables cross-process locking per pid.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL sets the expiry of distributed locks.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.lockTTL = ttl
		}
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewManager creates an empty Manager.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		locks:   make(map[int]*lockEntry),
		roots:   make(map[int]*tree.Node),
		lockTTL: DefaultLockTTL,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller must lock entry.mu, and call release(pid) after unlocking.
func (m *Manager) acquire(pid int) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[pid]
	if !exists {
		entry = &lockEntry{}
		m.locks[pid] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry at zero.
func (m *Manager) release(pid int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[pid]
	if !exists {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, pid)
	}
}

// WithLock runs fn while holding the lock for pid.
func (m *Manager) WithLock(ctx context.Context, pid int, fn func(context.Context) error) error {
	entry := m.acquire(pid)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(pid)
	}()

	if m.locker != nil {
		key := "pid:" + strconv.Itoa(pid)
		unlock, err := m.locker.Lock(ctx, key, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			// The caller's ctx may already be done; the unlock must still go out.
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"pid", pid,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}

// Root returns the open root for pid.
func (m *Manager) Root(pid int) (*tree.Node, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	root, ok := m.roots[pid]
	return root, ok
}

// SetRoot installs root for pid and releases the root it replaces.
func (m *Manager) SetRoot(pid int, root *tree.Node) {
	m.mu.Lock()
	prev := m.roots[pid]
	m.roots[pid] = root
	m.mu.Unlock()

	if prev != nil && prev != root {
		prev.Release()
		m.logger.Debug("released previous root", "pid", pid)
	}
}

// Discard releases and forgets the root for pid.
func (m *Manager) Discard(pid int) {
	m.mu.Lock()
	prev, ok := m.roots[pid]
	delete(m.roots, pid)
	m.mu.Unlock()

	if ok {
		prev.Release()
	}
}

// PIDs lists the applications with an open root, in ascending order.
func (m *Manager) PIDs() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	pids := make([]int, 0, len(m.roots))
	for pid := range m.roots {
		pids = append(pids, pid)
	}
	slices.Sort(pids)
	return pids
}

// Close releases every open root.
func (m *Manager) Close() {
	for _, pid := range m.PIDs() {
		m.Discard(pid)
	}
}
