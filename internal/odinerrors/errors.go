// Package odinerrors defines the typed error taxonomy shared across the
// execution core. Every component returns one of these kinds, wrapped with
// %w so callers can both inspect the kind and read the underlying cause.
package odinerrors

import (
	"errors"
	"fmt"
)

// Kind identifies which branch of the taxonomy an error belongs to.
type Kind string

const (
	KindConfiguration     Kind = "configuration"
	KindTransport         Kind = "transport"
	KindAuthentication    Kind = "authentication"
	KindRateLimited       Kind = "rate_limited"
	KindInvalidResponse   Kind = "invalid_response"
	KindStreaming         Kind = "streaming"
	KindPlanParse         Kind = "plan_parse"
	KindPlanValidation    Kind = "plan_validation"
	KindStorage           Kind = "storage"
	KindGraphMissing      Kind = "graph_missing"
	KindExecutionNotFound Kind = "execution_not_found"
)

// Error wraps a Kind with a message and an optional underlying cause.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Is allows errors.Is(err, odinerrors.KindX) style checks via a sentinel
// built from New(kind, "") when callers only care about the kind.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return t.Kind == e.Kind
	}
	return false
}

func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func Wrap(kind Kind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Cause: cause}
}

// Of reports the Kind of err, if err is (or wraps) an *Error.
func Of(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}

// Is reports whether err is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	k, ok := Of(err)
	return ok && k == kind
}
