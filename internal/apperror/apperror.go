// Package apperror defines the error taxonomy shared by services and
// handlers. Services return *Error values; handlers translate the kind
// into an HTTP status without inspecting message strings.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for transport-level mapping.
type Kind int

const (
	// Unauthenticated: no caller identity.
	Unauthenticated Kind = iota + 1
	// Forbidden: caller identified but insufficient permission.
	Forbidden
	// NotFound: lab/item/tag/member missing.
	NotFound
	// Conflict: duplicate (lab,item), duplicate tag, duplicate membership.
	Conflict
	// InvalidInput: missing or malformed fields.
	InvalidInput
	// Internal: unexpected storage failure.
	Internal
)

func (k Kind) String() string {
	switch k {
	case Unauthenticated:
		return "unauthenticated"
	case Forbidden:
		return "forbidden"
	case NotFound:
		return "not_found"
	case Conflict:
		return "conflict"
	case InvalidInput:
		return "invalid_input"
	default:
		return "internal"
	}
}

// Error carries a kind, a caller-facing message and an optional cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// New builds a plain taxonomy error.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf builds a taxonomy error with a formatted message.
func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a taxonomy kind to an underlying error.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf extracts the kind from an error chain; unknown errors are Internal.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return Internal
}

// Is lets errors.Is match two taxonomy errors by kind.
func (e *Error) Is(target error) bool {
	var ae *Error
	if errors.As(target, &ae) {
		return e.Kind == ae.Kind
	}
	return false
}

// HTTPStatus maps a kind to its transport status code.
func HTTPStatus(kind Kind) int {
	switch kind {
	case Unauthenticated:
		return http.StatusUnauthorized
	case Forbidden:
		return http.StatusForbidden
	case NotFound:
		return http.StatusNotFound
	case Conflict:
		return http.StatusConflict
	case InvalidInput:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
