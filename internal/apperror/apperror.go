package apperror

import (
	"errors"
	"net/http"
)

// Kind classifies an error for the HTTP boundary
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindConflict
	KindNotFound
	KindMalformedID
	KindUnauthorized
)

// Error is the error type returned by the service layer
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Message == "" {
		return e.Err.Error()
	}
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Validation reports a missing or malformed field
func Validation(msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg}
}

// Conflict reports a uniqueness violation
func Conflict(msg string) *Error {
	return &Error{Kind: KindConflict, Message: msg}
}

// NotFound reports an absent record or one not owned by the caller
func NotFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Message: msg}
}

// MalformedID reports an identifier that cannot be parsed
func MalformedID(msg string) *Error {
	return &Error{Kind: KindMalformedID, Message: msg}
}

// Unauthorized reports bad or missing credentials
func Unauthorized(msg string) *Error {
	return &Error{Kind: KindUnauthorized, Message: msg}
}

// Internal wraps an unexpected failure. The cause is kept for logging only.
func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Message: "internal error", Err: err}
}

// KindOf returns the kind of err, KindInternal for foreign errors
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// HTTPStatus maps a kind to its response status
func HTTPStatus(k Kind) int {
	switch k {
	case KindValidation, KindMalformedID:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindNotFound:
		return http.StatusNotFound
	case KindUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// Title returns the short error label used in response bodies
func Title(k Kind) string {
	switch k {
	case KindValidation:
		return "Validation error"
	case KindConflict:
		return "Conflict"
	case KindNotFound:
		return "Not Found"
	case KindMalformedID:
		return "Invalid id"
	case KindUnauthorized:
		return "Unauthorized"
	default:
		return "Internal Server Error"
	}
}

// PublicMessage returns the message safe to send to the caller
func PublicMessage(err error) string {
	var e *Error
	if !errors.As(err, &e) || e.Kind == KindInternal {
		return "Something went wrong, please try again later"
	}
	return e.Message
}
