// Package apperr defines the error taxonomy shared by services and the HTTP
// boundary. Services return *Error values; the HTTP error handler maps the
// Kind to a status code and writes {"error": Message}.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	KindInternal Kind = iota
	KindUnauthenticated
	KindForbidden
	KindValidation
	KindCrossTenantReference
	KindNotFound
	KindStoreUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindUnauthenticated:
		return "unauthenticated"
	case KindForbidden:
		return "forbidden"
	case KindValidation:
		return "validation"
	case KindCrossTenantReference:
		return "cross_tenant_reference"
	case KindNotFound:
		return "not_found"
	case KindStoreUnavailable:
		return "store_unavailable"
	default:
		return "internal"
	}
}

// HTTPStatus is the status code the HTTP boundary answers with.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindValidation, KindCrossTenantReference:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same Kind, so callers can write
// errors.Is(err, apperr.ErrNotFound).
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind && (t.Message == "" || t.Message == e.Message)
}

// Kind sentinels for errors.Is.
var (
	ErrUnauthenticated      = &Error{Kind: KindUnauthenticated}
	ErrForbidden            = &Error{Kind: KindForbidden}
	ErrValidation           = &Error{Kind: KindValidation}
	ErrCrossTenantReference = &Error{Kind: KindCrossTenantReference}
	ErrNotFound             = &Error{Kind: KindNotFound}
	ErrStoreUnavailable     = &Error{Kind: KindStoreUnavailable}
)

func Unauthenticated(msg string) *Error {
	return &Error{Kind: KindUnauthenticated, Message: msg}
}

func Forbidden(msg string) *Error {
	return &Error{Kind: KindForbidden, Message: msg}
}

func Validation(msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg}
}

func Validationf(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func CrossTenant(msg string) *Error {
	return &Error{Kind: KindCrossTenantReference, Message: msg}
}

func NotFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Message: msg}
}

// Store wraps a failed store call. The operation name ends up in logs via
// Error(); Message stays generic so nothing from the store leaks to clients.
func Store(op string, err error) *Error {
	return &Error{Kind: KindStoreUnavailable, Message: "store unavailable", Err: fmt.Errorf("%s: %w", op, err)}
}

// KindOf returns the Kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// PublicMessage is the text safe to return to a client for err.
func PublicMessage(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return "internal server error"
	}
	switch e.Kind {
	case KindStoreUnavailable, KindInternal:
		return "internal server error"
	}
	if e.Message == "" {
		return e.Kind.String()
	}
	return e.Message
}
