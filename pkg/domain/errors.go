package domain

import (
	"errors"
	"fmt"
)

// Category groups error kinds by how callers should react to them.
type Category string

const (
	// CategoryProvider covers failures reported by the inspection provider itself.
	// They are surfaced to the caller and never retried automatically.
	CategoryProvider Category = "provider"
	// CategoryLookup covers elements that cannot be found or used. Never retried.
	CategoryLookup Category = "lookup"
	// CategoryOperation covers failures produced while executing an operation.
	CategoryOperation Category = "operation"
	// CategoryValidation covers malformed input, caught before any provider call.
	CategoryValidation Category = "validation"
)

// ErrorKind is the precise failure reason.
type ErrorKind string

const (
	KindPermissionDenied  ErrorKind = "permission-denied"
	KindAPIMisuse         ErrorKind = "api-misuse"
	KindNotFound          ErrorKind = "not-found"
	KindNotVisible        ErrorKind = "not-visible"
	KindNotEnabled        ErrorKind = "not-enabled"
	KindTimeout           ErrorKind = "timeout"
	KindRetryExhausted    ErrorKind = "retry-exhausted"
	KindUnsupportedAction ErrorKind = "unsupported-action"
	KindCancelled         ErrorKind = "cancelled"
	KindDegraded          ErrorKind = "degraded"
	KindMalformedPath     ErrorKind = "malformed-path"
	KindInvalidArgument   ErrorKind = "invalid-argument"
)

var kindCategory = map[ErrorKind]Category{
	KindPermissionDenied:  CategoryProvider,
	KindAPIMisuse:         CategoryProvider,
	KindNotFound:          CategoryLookup,
	KindNotVisible:        CategoryLookup,
	KindNotEnabled:        CategoryLookup,
	KindTimeout:           CategoryOperation,
	KindRetryExhausted:    CategoryOperation,
	KindUnsupportedAction: CategoryOperation,
	KindCancelled:         CategoryOperation,
	KindDegraded:          CategoryOperation,
	KindMalformedPath:     CategoryValidation,
	KindInvalidArgument:   CategoryValidation,
}

var kindHint = map[ErrorKind]string{
	KindPermissionDenied:  "grant accessibility permission to this tool in system settings",
	KindAPIMisuse:         "the provider rejected the request; check the element and attribute names",
	KindNotFound:          "element may have been removed — refresh",
	KindNotVisible:        "bring the window to the front or scroll the element into view",
	KindNotEnabled:        "the element is disabled; change the application state first",
	KindTimeout:           "the target application is not responding; try again or raise the timeout",
	KindRetryExhausted:    "the provider kept failing; refresh and try again later",
	KindUnsupportedAction: "list the element's actions and pick one it supports",
	KindCancelled:         "the operation was cancelled",
	KindDegraded:          "the tool is busy or the CPU is saturated; wait a moment and retry",
	KindMalformedPath:     "paths look like role[title]/role[title]",
	KindInvalidArgument:   "check the command arguments",
}

// Error is a categorized failure carrying a human-readable recovery hint.
type Error struct {
	Kind ErrorKind
	// Op names the operation that failed (e.g. "children", "perform AXPress").
	Op string
	// Detail adds context to the message.
	Detail string
	// Hint overrides the default recovery hint for Kind.
	Hint string
	Err  error
}

// NewError builds an Error of the given kind.
func NewError(kind ErrorKind, op, detail string) *Error {
	return &Error{Kind: kind, Op: op, Detail: detail}
}

// WrapError attaches a kind to an underlying error.
func WrapError(kind ErrorKind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Category reports which group the error belongs to.
func (e *Error) Category() Category {
	return CategoryOf(e.Kind)
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error with the same kind, so sentinels work with errors.Is.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return t.Kind == e.Kind
	}
	return false
}

// RecoveryHint returns the explicit hint or the default for the kind.
func (e *Error) RecoveryHint() string {
	if e.Hint != "" {
		return e.Hint
	}
	return kindHint[e.Kind]
}

// Sentinels for errors.Is comparisons.
var (
	ErrPermissionDenied  = &Error{Kind: KindPermissionDenied}
	ErrAPIMisuse         = &Error{Kind: KindAPIMisuse}
	ErrNotFound          = &Error{Kind: KindNotFound}
	ErrNotVisible        = &Error{Kind: KindNotVisible}
	ErrNotEnabled        = &Error{Kind: KindNotEnabled}
	ErrTimeout           = &Error{Kind: KindTimeout}
	ErrRetryExhausted    = &Error{Kind: KindRetryExhausted}
	ErrUnsupportedAction = &Error{Kind: KindUnsupportedAction}
	ErrCancelled         = &Error{Kind: KindCancelled}
	ErrDegraded          = &Error{Kind: KindDegraded}
	ErrMalformedPath     = &Error{Kind: KindMalformedPath}
	ErrInvalidArgument   = &Error{Kind: KindInvalidArgument}
)

// ErrSnapshotNotFound is returned by snapshot stores when no entry exists for a key.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// CategoryOf returns the category of a kind, defaulting to operation.
func CategoryOf(kind ErrorKind) Category {
	if c, ok := kindCategory[kind]; ok {
		return c
	}
	return CategoryOperation
}

// Hinter is implemented by errors that carry their own recovery hint.
type Hinter interface {
	RecoveryHint() string
}

// HintFor walks the error chain and returns the first recovery hint found.
func HintFor(err error) string {
	for err != nil {
		if h, ok := err.(Hinter); ok {
			if hint := h.RecoveryHint(); hint != "" {
				return hint
			}
		}
		err = errors.Unwrap(err)
	}
	return ""
}

// Retryable reports whether an automatic retry could help.
// Provider, lookup and validation failures are surfaced immediately.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	var de *Error
	if errors.As(err, &de) {
		switch de.Category() {
		case CategoryProvider, CategoryLookup, CategoryValidation:
			return false
		}
		return de.Kind != KindCancelled && de.Kind != KindUnsupportedAction
	}
	return true
}

// Invalidf is a shorthand for argument validation failures.
func Invalidf(op, format string, args ...any) *Error {
	return NewError(KindInvalidArgument, op, fmt.Sprintf(format, args...))
}
