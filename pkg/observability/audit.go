package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/axnav/pkg/domain"
)

// LogHooks returns lifecycle hooks that write an audit trail: operations at
// debug level, failures at warn, root selection at info.
func LogHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnOperationEnd: func(ctx context.Context, e *domain.OperationEvent) {
			attrs := []any{
				"operation", e.Operation,
				"pid", e.PID,
				"attempts", e.Attempts,
				"duration", e.Duration,
			}
			switch {
			case e.Degraded:
				logger.InfoContext(ctx, "operation served degraded", attrs...)
			case e.Err != nil:
				logger.WarnContext(ctx, "operation failed", append(attrs, "err", e.Err, "hint", domain.HintFor(e.Err))...)
			default:
				logger.DebugContext(ctx, "operation completed", attrs...)
			}
		},
		OnRootSelected: func(ctx context.Context, e *domain.RootEvent) {
			logger.InfoContext(ctx, "application root selected", "pid", e.App.PID, "app", e.App.Name)
		},
	}
}
