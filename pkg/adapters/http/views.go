package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/aretw0/axnav/pkg/domain"
)

// ErrorBody is the JSON form of a failure.
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
	Hint  string      `json:"hint,omitempty"`
}

type ErrorDetail struct {
	Kind     domain.ErrorKind `json:"kind,omitempty"`
	Category domain.Category  `json:"category,omitempty"`
	Message  string           `json:"message"`
}

var kindStatus = map[domain.ErrorKind]int{
	domain.KindPermissionDenied:  http.StatusForbidden,
	domain.KindAPIMisuse:         http.StatusUnprocessableEntity,
	domain.KindNotFound:          http.StatusNotFound,
	domain.KindNotVisible:        http.StatusConflict,
	domain.KindNotEnabled:        http.StatusConflict,
	domain.KindUnsupportedAction: http.StatusConflict,
	domain.KindTimeout:           http.StatusGatewayTimeout,
	domain.KindRetryExhausted:    http.StatusGatewayTimeout,
	domain.KindDegraded:          http.StatusServiceUnavailable,
	domain.KindCancelled:         http.StatusServiceUnavailable,
	domain.KindMalformedPath:     http.StatusBadRequest,
	domain.KindInvalidArgument:   http.StatusBadRequest,
}

// kindOf names the outermost failure: a retry that gave up on timeouts is
// retry-exhausted.
func kindOf(err error) (domain.ErrorKind, bool) {
	for _, sentinel := range []*domain.Error{domain.ErrRetryExhausted, domain.ErrTimeout} {
		if errors.Is(err, sentinel) {
			return sentinel.Kind, true
		}
	}
	var de *domain.Error
	if errors.As(err, &de) {
		return de.Kind, true
	}
	return "", false
}

// StatusFor maps an error to an HTTP status code.
func StatusFor(err error) int {
	if kind, ok := kindOf(err); ok {
		if code, ok := kindStatus[kind]; ok {
			return code
		}
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("response encode failed", "err", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	body := ErrorBody{Error: ErrorDetail{Message: err.Error()}, Hint: domain.HintFor(err)}
	if kind, ok := kindOf(err); ok {
		body.Error.Kind = kind
		body.Error.Category = domain.CategoryOf(kind)
	}
	writeJSON(w, StatusFor(err), body)
}
