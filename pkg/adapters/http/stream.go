package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/aretw0/axnav/pkg/domain"
)

// StreamManager fans events out to SSE subscribers. Slow subscribers lose
// events rather than stall the inspector.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[chan<- string]struct{}
	buffer      int
}

func NewStreamManager() *StreamManager {
	return &StreamManager{
		subscribers: make(map[chan<- string]struct{}),
		buffer:      32,
	}
}

// Subscribe returns a channel of encoded events and a function that
// unsubscribes and closes it.
func (sm *StreamManager) Subscribe() (<-chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, sm.buffer)
	sm.subscribers[ch] = struct{}{}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			sm.mu.Lock()
			defer sm.mu.Unlock()
			delete(sm.subscribers, ch)
			close(ch)
		})
	}
}

// Subscribers returns the number of open subscriptions.
func (sm *StreamManager) Subscribers() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.subscribers)
}

func (sm *StreamManager) Broadcast(msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for ch := range sm.subscribers {
		select {
		case ch <- msg:
		default:
			slog.Warn("SSE: client buffer full, dropping event")
		}
	}
}

// Hooks returns lifecycle hooks that broadcast every operation end and
// root selection.
func (sm *StreamManager) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnOperationEnd: func(_ context.Context, e *domain.OperationEvent) {
			sm.publish(operationMessage{OperationEvent: e, Error: errorText(e.Err)})
		},
		OnRootSelected: func(_ context.Context, e *domain.RootEvent) {
			sm.publish(e)
		},
	}
}

type operationMessage struct {
	*domain.OperationEvent
	Error string `json:"error,omitempty"`
}

func errorText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func (sm *StreamManager) publish(v any) {
	if sm.Subscribers() == 0 {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		slog.Warn("SSE: event encode failed", "err", err)
		return
	}
	sm.Broadcast(string(data))
}
