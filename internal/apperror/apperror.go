// Package apperror defines the closed set of error kinds surfaced to API
// clients and their mapping to HTTP status codes.
package apperror

import (
	"errors"
	"net/http"
)

// Kind identifies a class of failure. The set is closed; Status switches over
// every value.
type Kind string

const (
	KindValidation      Kind = "VALIDATION_ERROR"
	KindConflict        Kind = "CONFLICT"
	KindNotFound        Kind = "NOT_FOUND"
	KindUnauthorized    Kind = "UNAUTHORIZED"
	KindPayloadTooLarge Kind = "PAYLOAD_TOO_LARGE"
	KindUnavailable     Kind = "SERVICE_UNAVAILABLE"
	KindInternal        Kind = "INTERNAL_ERROR"
)

// Generic messages used when the caller does not supply one.
const (
	MsgInternal     = "An unexpected error occurred"
	MsgNotFound     = "Resource not found"
	MsgUnauthorized = "Unauthorized"
	MsgTooLarge     = "Request body too large"
	MsgUnavailable  = "Service unavailable"
)

// Status returns the HTTP status code for k. Unknown kinds map to 500.
func (k Kind) Status() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindNotFound:
		return http.StatusNotFound
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindPayloadTooLarge:
		return http.StatusRequestEntityTooLarge
	case KindUnavailable:
		return http.StatusServiceUnavailable
	case KindInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// Error is an application error carrying a Kind, a message safe to show to
// clients, and an optional underlying cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return string(e.Kind) + ": " + e.Message + ": " + e.Err.Error()
	}
	return string(e.Kind) + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Status is shorthand for e.Kind.Status().
func (e *Error) Status() int { return e.Kind.Status() }

// New returns an error of kind with a client-facing message.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Wrap is New with an underlying cause.
func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

// Validation reports input that failed a schema rule.
func Validation(msg string) *Error { return New(KindValidation, msg) }

// Conflict reports a uniqueness violation; err is the store error.
func Conflict(msg string, err error) *Error { return Wrap(KindConflict, msg, err) }

// NotFound reports a missing route or record. An empty msg uses MsgNotFound.
func NotFound(msg string) *Error {
	if msg == "" {
		msg = MsgNotFound
	}
	return New(KindNotFound, msg)
}

// Unauthorized reports missing or invalid credentials.
func Unauthorized(msg string) *Error {
	if msg == "" {
		msg = MsgUnauthorized
	}
	return New(KindUnauthorized, msg)
}

// PayloadTooLarge reports a request body over the size limit.
func PayloadTooLarge(err error) *Error { return Wrap(KindPayloadTooLarge, MsgTooLarge, err) }

// Unavailable reports a dependency that is not answering, such as the database.
func Unavailable(msg string, err error) *Error {
	if msg == "" {
		msg = MsgUnavailable
	}
	return Wrap(KindUnavailable, msg, err)
}

// Internal hides err behind the generic MsgInternal message.
func Internal(err error) *Error { return Wrap(KindInternal, MsgInternal, err) }

// As classifies err. An *Error anywhere in the chain is returned unchanged;
// any other error is reported as an internal error wrapping it.
func As(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Internal(err)
}

// Is reports whether err carries an *Error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}
