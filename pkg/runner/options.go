package runner

import (
	"log/slog"
	"time"
)

// Option configures a Runner.
type Option func(*Runner)

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.Logger = logger
		}
	}
}

// WithInputHandler configures the IO strategy.
func WithInputHandler(handler IOHandler) Option {
	return func(r *Runner) {
		r.Handler = handler
	}
}

// WithInitialPID opens pid before the first prompt.
func WithInitialPID(pid int) Option {
	return func(r *Runner) {
		r.InitialPID = pid
	}
}

// WithCommandTimeout bounds each command.
func WithCommandTimeout(d time.Duration) Option {
	return func(r *Runner) {
		r.CommandTimeout = d
	}
}

// WithInterruptSource sets a channel whose sends act like Ctrl+C.
func WithInterruptSource(ch <-chan struct{}) Option {
	return func(r *Runner) {
		r.InterruptSource = ch
	}
}

// WithOSSignals enables SIGINT/SIGTERM handling.
func WithOSSignals(enabled bool) Option {
	return func(r *Runner) {
		r.OSSignals = enabled
	}
}
