package runner

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"strings"

	"github.com/aretw0/axnav/pkg/domain"
	"github.com/aretw0/axnav/pkg/navigator"
)

// JSONHandler implements IOHandler with JSON Lines. Each response is one
// object; each input line is either a JSON string, an object with a
// "command" field, or plain text.
type JSONHandler struct {
	Writer  io.Writer
	Encoder *json.Encoder

	lines *lineReader
}

// NewJSONHandler creates a handler for JSON IO.
func NewJSONHandler(r io.Reader, w io.Writer) *JSONHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	return &JSONHandler{
		Writer:  w,
		Encoder: json.NewEncoder(w),
		lines:   newLineReader(r),
	}
}

// WireError is the JSON form of a failed command.
type WireError struct {
	Kind     domain.ErrorKind `json:"kind,omitempty"`
	Category domain.Category  `json:"category,omitempty"`
	Message  string           `json:"message"`
}

// WireResponse is the JSON form of a navigator response.
type WireResponse struct {
	navigator.Response
	Error *WireError `json:"error,omitempty"`
	Help  string     `json:"help,omitempty"`
}

// NewWireResponse converts resp for encoding.
func NewWireResponse(resp navigator.Response) WireResponse {
	w := WireResponse{Response: resp}
	if resp.Err != nil {
		w.Error = &WireError{Message: resp.Err.Error()}
		var de *domain.Error
		if errors.As(resp.Err, &de) {
			w.Error.Kind = de.Kind
			w.Error.Category = de.Category()
		}
	}
	if resp.Help {
		w.Help = navigator.HelpMarkdown
	}
	return w
}

func (h *JSONHandler) Output(ctx context.Context, resp navigator.Response) error {
	return h.Encoder.Encode(NewWireResponse(resp))
}

type jsonCommand struct {
	Command string `json:"command"`
}

func (h *JSONHandler) Input(ctx context.Context) (string, error) {
	for {
		text, err := h.lines.next(ctx)
		if err != nil {
			return "", err
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}

		var line string
		var cmd jsonCommand
		switch {
		case json.Unmarshal([]byte(text), &line) == nil:
		case json.Unmarshal([]byte(text), &cmd) == nil && cmd.Command != "":
			line = cmd.Command
		default:
			line = text
		}

		clean, err := SanitizeInput(line)
		if err != nil {
			if encErr := h.SystemOutput(ctx, err.Error()); encErr != nil {
				return "", encErr
			}
			continue
		}
		return clean, nil
	}
}

func (h *JSONHandler) SystemOutput(ctx context.Context, msg string) error {
	return h.Encoder.Encode(map[string]string{"system": msg})
}

// Close stops the background reader.
func (h *JSONHandler) Close() error {
	h.lines.close()
	return nil
}

var (
	_ IOHandler = (*TextHandler)(nil)
	_ IOHandler = (*JSONHandler)(nil)
)
