package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventOperationStart EventType = "operation_start"
	EventOperationEnd   EventType = "operation_end"
	EventDegraded       EventType = "degraded"
	EventRootSelected   EventType = "root_selected"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
}

// OperationEvent describes one governed provider call.
type OperationEvent struct {
	EventBase
	Operation string        `json:"operation"`
	PID       int           `json:"pid,omitempty"`
	Attempts  int           `json:"attempts,omitempty"`
	Duration  time.Duration `json:"duration,omitempty"`
	// Degraded is true when the call was refused and a cached or synthetic
	// result was served instead.
	Degraded bool  `json:"degraded,omitempty"`
	Err      error `json:"-"`
}

// RootEvent is emitted when an application root is selected.
type RootEvent struct {
	EventBase
	App AppInfo `json:"app"`
}

// LifecycleHooks defines callbacks for inspector observability.
type LifecycleHooks struct {
	OnOperationStart func(context.Context, *OperationEvent)
	OnOperationEnd   func(context.Context, *OperationEvent)
	OnRootSelected   func(context.Context, *RootEvent)
}

// EmitStart invokes OnOperationStart when set.
func (h LifecycleHooks) EmitStart(ctx context.Context, e *OperationEvent) {
	if h.OnOperationStart != nil {
		h.OnOperationStart(ctx, e)
	}
}

// EmitEnd invokes OnOperationEnd when set.
func (h LifecycleHooks) EmitEnd(ctx context.Context, e *OperationEvent) {
	if h.OnOperationEnd != nil {
		h.OnOperationEnd(ctx, e)
	}
}

// EmitRoot invokes OnRootSelected when set.
func (h LifecycleHooks) EmitRoot(ctx context.Context, e *RootEvent) {
	if h.OnRootSelected != nil {
		h.OnRootSelected(ctx, e)
	}
}

// Combine returns hooks that call every non-nil hook of each input, in order.
func Combine(all ...LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnOperationStart: func(ctx context.Context, e *OperationEvent) {
			for _, h := range all {
				h.EmitStart(ctx, e)
			}
		},
		OnOperationEnd: func(ctx context.Context, e *OperationEvent) {
			for _, h := range all {
				h.EmitEnd(ctx, e)
			}
		},
		OnRootSelected: func(ctx context.Context, e *RootEvent) {
			for _, h := range all {
				h.EmitRoot(ctx, e)
			}
		},
	}
}
