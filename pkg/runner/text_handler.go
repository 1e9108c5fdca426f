package runner

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aretw0/axnav/pkg/navigator"
)

// DefaultPrompt is printed before each command is read.
const DefaultPrompt = "> "

// TextHandler implements the prompt-based text interface.
type TextHandler struct {
	Writer io.Writer
	Prompt string
	// Renderer formats responses. Defaults to PlainText.
	Renderer ResponseRenderer
	// HelpRenderer formats the markdown command reference.
	HelpRenderer ContentRenderer

	lines *lineReader
}

// TextHandlerOption configures a TextHandler.
type TextHandlerOption func(*TextHandler)

// WithResponseRenderer sets the response formatter.
func WithResponseRenderer(renderer ResponseRenderer) TextHandlerOption {
	return func(h *TextHandler) {
		h.Renderer = renderer
	}
}

// WithHelpRenderer sets the markdown renderer used for help.
func WithHelpRenderer(renderer ContentRenderer) TextHandlerOption {
	return func(h *TextHandler) {
		h.HelpRenderer = renderer
	}
}

// WithPrompt replaces the prompt. An empty prompt prints nothing.
func WithPrompt(prompt string) TextHandlerOption {
	return func(h *TextHandler) {
		h.Prompt = prompt
	}
}

// NewTextHandler creates a handler for text IO. Nil streams default to
// stdin and stdout.
func NewTextHandler(r io.Reader, w io.Writer, opts ...TextHandlerOption) *TextHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	h := &TextHandler{
		Writer:   w,
		Prompt:   DefaultPrompt,
		Renderer: PlainText,
		lines:    newLineReader(r),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *TextHandler) Output(ctx context.Context, resp navigator.Response) error {
	if resp.Help {
		help := navigator.HelpMarkdown
		if h.HelpRenderer != nil {
			if rendered, err := h.HelpRenderer(help); err == nil {
				help = rendered
			}
		}
		if _, err := fmt.Fprintln(h.Writer, strings.TrimRight(help, "\n")); err != nil {
			return err
		}
	}
	render := h.Renderer
	if render == nil {
		render = PlainText
	}
	_, err := fmt.Fprintln(h.Writer, strings.TrimRight(render(resp), "\n"))
	return err
}

func (h *TextHandler) Input(ctx context.Context) (string, error) {
	for {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if h.Prompt != "" {
			fmt.Fprint(h.Writer, h.Prompt)
		}

		text, err := h.lines.next(ctx)
		if err != nil {
			return "", err
		}

		clean, err := SanitizeInput(strings.TrimSpace(text))
		if err != nil {
			fmt.Fprintf(h.Writer, "error: %v. Please try again.\n", err)
			continue
		}
		return clean, nil
	}
}

func (h *TextHandler) SystemOutput(ctx context.Context, msg string) error {
	_, err := fmt.Fprintf(h.Writer, "[system] %s\n", msg)
	return err
}

// Close stops the background reader.
func (h *TextHandler) Close() error {
	h.lines.close()
	return nil
}
