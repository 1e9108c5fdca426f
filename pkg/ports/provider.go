package ports

import (
	"context"

	"github.com/aretw0/axnav/pkg/domain"
)

// Provider is the external UI inspection provider.
//
// Every call is synchronous and blocking. Implementations may ignore ctx:
// the underlying OS call is not assumed to be interruptible, which is why
// callers wrap it with a deadline instead of relying on cancellation.
type Provider interface {
	// Applications lists running applications that can be inspected.
	Applications(ctx context.Context) ([]domain.AppInfo, error)

	// FocusedApplication returns the frontmost application.
	FocusedApplication(ctx context.Context) (domain.AppInfo, error)

	// ApplicationElement returns the root element of the application with the given pid.
	ApplicationElement(ctx context.Context, pid int) (domain.ElementInfo, error)

	// Describe re-reads the description of a live element.
	Describe(ctx context.Context, h domain.Handle) (domain.ElementInfo, error)

	// Children lists the direct children of an element, in provider order.
	Children(ctx context.Context, h domain.Handle) ([]domain.ElementInfo, error)

	// AttributeNames lists the attributes an element exposes.
	AttributeNames(ctx context.Context, h domain.Handle) ([]string, error)

	// AttributeValue reads a single attribute.
	AttributeValue(ctx context.Context, h domain.Handle, name string) (domain.Value, error)

	// ActionNames lists the actions an element supports.
	ActionNames(ctx context.Context, h domain.Handle) ([]string, error)

	// PerformAction executes an action. It is side-effecting and fallible.
	PerformAction(ctx context.Context, h domain.Handle, action string) error
}
