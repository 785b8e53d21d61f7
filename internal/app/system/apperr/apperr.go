// internal/app/system/apperr/apperr.go
//
// Package apperr is the domain error taxonomy. Services return these;
// handlers translate them into HTTP responses through the respond package.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a domain error.
type Kind int

const (
	// KindInternal is anything not classified below.
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindForbidden
	KindConflict
	KindState
	KindDelivery
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindForbidden:
		return "forbidden"
	case KindConflict:
		return "conflict"
	case KindState:
		return "invalid_state"
	case KindDelivery:
		return "delivery"
	}
	return "internal"
}

// Error is a classified domain error.
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

// Validation reports malformed input, rejected before any mutation.
func Validation(format string, args ...any) error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// NotFound reports an id that does not resolve.
func NotFound(what string) error {
	return &Error{Kind: KindNotFound, Message: what + " not found"}
}

// Forbidden reports an actor lacking permission.
func Forbidden(format string, args ...any) error {
	return &Error{Kind: KindForbidden, Message: fmt.Sprintf(format, args...)}
}

// Conflict reports a lost race on a claimed record. Callers may retry.
func Conflict(format string, args ...any) error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

// State reports a transition that is not allowed from the current status.
func State(format string, args ...any) error {
	return &Error{Kind: KindState, Message: fmt.Sprintf(format, args...)}
}

// Delivery wraps a failed best-effort push or email.
func Delivery(channel string, err error) error {
	return &Error{Kind: KindDelivery, Message: channel + " delivery failed", Err: err}
}

// KindOf returns the Kind of err, or KindInternal if err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is reports whether err is classified as k.
func Is(err error, k Kind) bool {
	return err != nil && KindOf(err) == k
}

// HTTPStatus maps a Kind to its response status.
func HTTPStatus(k Kind) int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindForbidden:
		return http.StatusForbidden
	case KindConflict, KindState:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// Code maps a Kind to the stable error code sent to clients.
func Code(k Kind) string {
	switch k {
	case KindValidation:
		return "VALIDATION_ERROR"
	case KindNotFound:
		return "NOT_FOUND"
	case KindForbidden:
		return "FORBIDDEN"
	case KindConflict:
		return "CONFLICT"
	case KindState:
		return "INVALID_STATE"
	}
	return "INTERNAL_ERROR"
}
