package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aretw0/axnav/internal/logging"
	"github.com/aretw0/axnav/pkg/navigator"
)

// Runner is the read-eval-print loop over a Navigator.
type Runner struct {
	nav *navigator.Navigator

	// Handler is the IO strategy. Defaults to a TextHandler on stdio.
	Handler IOHandler

	Logger *slog.Logger

	// InitialPID, when positive, is opened before the first prompt.
	InitialPID int

	// CommandTimeout bounds each command. Zero means no bound beyond the
	// inspector's own per-call deadlines.
	CommandTimeout time.Duration

	// InterruptSource delivers interrupts in addition to OS signals.
	InterruptSource <-chan struct{}

	// OSSignals enables SIGINT/SIGTERM handling.
	OSSignals bool
}

// New creates a Runner for nav.
func New(nav *navigator.Navigator, opts ...Option) *Runner {
	r := &Runner{
		nav:    nav,
		Logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes commands until quit, end of input, an interrupt at the
// prompt, or cancellation of ctx. Only the last returns an error. Handlers
// that implement io.Closer are closed on return.
func (r *Runner) Run(ctx context.Context) error {
	handler := r.resolveHandler()
	if c, ok := handler.(io.Closer); ok {
		defer c.Close()
	}

	signals := NewSignalManager(ctx, r.InterruptSource, r.OSSignals)
	defer signals.Stop()

	if r.InitialPID > 0 {
		resp := r.nav.Open(signals.Context(), r.InitialPID)
		if err := handler.Output(ctx, resp); err != nil {
			return fmt.Errorf("output error: %w", err)
		}
	}

	for {
		line, err := handler.Input(signals.Context())
		if err != nil {
			switch {
			case errors.Is(err, io.EOF):
				r.Logger.Debug("input exhausted")
				return nil
			case ctx.Err() != nil:
				return ctx.Err()
			case signals.Interrupted():
				_ = handler.SystemOutput(ctx, "interrupted")
				return nil
			}
			return fmt.Errorf("input error: %w", err)
		}
		if line == "" {
			continue
		}

		resp, interrupted := r.execute(signals, line)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if interrupted {
			signals.Reset()
			_ = handler.SystemOutput(ctx, "command interrupted")
		}
		if err := handler.Output(ctx, resp); err != nil {
			return fmt.Errorf("output error: %w", err)
		}
		if resp.State == navigator.Terminated {
			return nil
		}
	}
}

func (r *Runner) execute(signals *SignalManager, line string) (navigator.Response, bool) {
	ctx := signals.Context()
	if r.CommandTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.CommandTimeout)
		defer cancel()
	}

	start := time.Now()
	resp := r.nav.Execute(ctx, line)
	r.Logger.Debug("command executed",
		"command", line,
		"state", resp.State.String(),
		"failed", resp.Failed(),
		"duration", time.Since(start))
	return resp, signals.Interrupted()
}

func (r *Runner) resolveHandler() IOHandler {
	if r.Handler == nil {
		// Memoized so a second Run does not start another reader.
		r.Handler = NewTextHandler(nil, nil)
	}
	return r.Handler
}
