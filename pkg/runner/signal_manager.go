package runner

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// SignalManager turns interrupts into context cancellation. An interrupt
// comes from SIGINT/SIGTERM when OS signals are enabled, or from a send on
// the optional source channel.
type SignalManager struct {
	parent    context.Context
	source    <-chan struct{}
	osSignals bool

	ctx    context.Context
	cancel context.CancelFunc
}

// NewSignalManager creates a manager and immediately starts listening.
// Cancelling parent cancels every context the manager hands out.
func NewSignalManager(parent context.Context, source <-chan struct{}, osSignals bool) *SignalManager {
	sm := &SignalManager{parent: parent, source: source, osSignals: osSignals}
	sm.Reset()
	return sm
}

// Context returns the current interrupt context.
func (sm *SignalManager) Context() context.Context {
	return sm.ctx
}

// Interrupted reports whether the current context was cancelled by an
// interrupt rather than by the parent.
func (sm *SignalManager) Interrupted() bool {
	return sm.ctx.Err() != nil && sm.parent.Err() == nil
}

// Reset re-arms the listener after an interrupt was handled.
func (sm *SignalManager) Reset() {
	if sm.cancel != nil {
		sm.cancel()
	}

	var ctx context.Context
	var stop context.CancelFunc
	if sm.osSignals {
		ctx, stop = signal.NotifyContext(sm.parent, os.Interrupt, syscall.SIGTERM)
	} else {
		ctx, stop = context.WithCancel(sm.parent)
	}
	ctx, cancel := context.WithCancel(ctx)
	sm.ctx = ctx
	sm.cancel = func() {
		cancel()
		stop()
	}

	if sm.source != nil {
		go func() {
			select {
			case <-sm.source:
				cancel()
			case <-ctx.Done():
			}
		}()
	}
}

// Stop permanently stops the listener.
func (sm *SignalManager) Stop() {
	if sm.cancel != nil {
		sm.cancel()
	}
}
