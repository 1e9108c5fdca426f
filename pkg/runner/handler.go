package runner

import (
	"context"

	"github.com/aretw0/axnav/pkg/navigator"
)

// IOHandler is the strategy for talking to the user.
// It allows switching between text and JSON interaction.
type IOHandler interface {
	// Output presents the outcome of one command.
	Output(ctx context.Context, resp navigator.Response) error

	// Input reads the next command line. It returns io.EOF when the
	// stream is exhausted.
	Input(ctx context.Context) (string, error)

	// SystemOutput presents a message that is not a command outcome,
	// such as a notice that a command was interrupted.
	SystemOutput(ctx context.Context, msg string) error
}

// ResponseRenderer turns a Response into display text.
// This keeps terminal styling out of the runner.
type ResponseRenderer func(resp navigator.Response) string

// ContentRenderer transforms markdown before it is printed.
type ContentRenderer func(string) (string, error)
