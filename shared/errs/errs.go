// Package errs defines the error taxonomy shared by every service and its
// mapping onto HTTP status codes.
package errs

import (
	"errors"
	"net/http"
)

// Error kinds. Match them with errors.Is.
var (
	ErrValidation      = errors.New("validation failed")
	ErrConflict        = errors.New("conflict")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")
	ErrPublish         = errors.New("event publish failed")
	ErrPersistence     = errors.New("persistence failure")
	ErrUpstream        = errors.New("upstream provider failure")
)

// GenericDetail is returned to clients in place of any 5xx detail.
const GenericDetail = "Internal server error"

// Error is a classified error. Detail is safe to show to clients for 4xx kinds.
type Error struct {
	Kind   error
	Detail string
	Err    error
}

func (e *Error) Error() string {
	msg := e.Kind.Error()
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// New returns an error of the given kind with a client-facing detail.
func New(kind error, detail string) error {
	return &Error{Kind: kind, Detail: detail}
}

// Wrap classifies err under kind.
func Wrap(kind error, detail string, err error) error {
	return &Error{Kind: kind, Detail: detail, Err: err}
}

// Status maps an error onto the HTTP status code clients receive.
func Status(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrUpstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Detail returns the message for the response body. Server-side failures
// never expose their cause.
func Detail(err error) string {
	if Status(err) >= http.StatusInternalServerError {
		return GenericDetail
	}
	var e *Error
	if errors.As(err, &e) && e.Detail != "" {
		return e.Detail
	}
	if e != nil {
		return e.Kind.Error()
	}
	return err.Error()
}
