// Package errors defines the shared error taxonomy used across every
// component (C1-C6): a small set of kinds that callers can branch on,
// plus a wrapper type that carries a kind, a stable code, a message, and
// an optional cause. It generalizes tarsy's pkg/services sentinel-error
// pattern into one taxonomy shared by multiple packages.
package errors

import (
	"errors"
	"fmt"
)

// Kind classifies an error for callers that need to branch on it (HTTP
// status mapping, retry policy, SSE ErrorEvent codes).
type Kind string

const (
	KindNotFound          Kind = "not_found"
	KindValidation        Kind = "validation"
	KindConflict          Kind = "conflict"
	KindPermissionDenied  Kind = "permission_denied"
	KindUpstreamTransient Kind = "upstream_transient"
	KindUpstreamService   Kind = "upstream_service"
	KindInternal          Kind = "internal"
)

// Error is the concrete error type produced by every component package.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// New builds an *Error with no cause.
func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

// Wrap builds an *Error around an existing cause.
func Wrap(kind Kind, code, message string, cause error) *Error {
	return &Error{Kind: kind, Code: code, Message: message, Cause: cause}
}

// NotFound builds a KindNotFound error, e.g. NotFound("conversation", id).
func NotFound(resource, id string) *Error {
	return New(KindNotFound, "NOT_FOUND", fmt.Sprintf("%s %q not found", resource, id))
}

// Validation builds a KindValidation error for a single field.
func Validation(field, message string) *Error {
	return New(KindValidation, "VALIDATION_ERROR", fmt.Sprintf("%s: %s", field, message))
}

// Conflict builds a KindConflict error, used for status-transition and
// optimistic-locking violations.
func Conflict(message string) *Error {
	return New(KindConflict, "CONFLICT", message)
}

// UpstreamTransient builds a KindUpstreamTransient error for a retryable
// failure calling an external collaborator (legislation service, LLM
// provider, Redis).
func UpstreamTransient(service string, cause error) *Error {
	return Wrap(KindUpstreamTransient, "UPSTREAM_TRANSIENT", service+" is temporarily unavailable", cause)
}

// UpstreamService builds a KindUpstreamService error for a non-retryable
// upstream failure (bad response shape, permanent rejection).
func UpstreamService(service string, cause error) *Error {
	return Wrap(KindUpstreamService, "UPSTREAM_SERVICE_ERROR", service+" returned an error", cause)
}

// Internal builds a KindInternal error for bugs/unexpected states.
func Internal(message string, cause error) *Error {
	return Wrap(KindInternal, "INTERNAL_ERROR", message, cause)
}

// KindOf returns the Kind of err if it is (or wraps) an *Error, and
// KindInternal otherwise.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is reports whether err is (or wraps) an *Error of the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
