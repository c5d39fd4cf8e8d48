// Package errors defines the stable, transport-mappable error taxonomy for the
// authentication core. Every rejection that crosses a component boundary is one
// of the coded errors below; lower-level crypto and codec failures are mapped
// onto these before they leave the session service, so callers can never
// distinguish a bad signature from a wrong key from a truncated payload.
package errors

import (
	"errors"
	"net/http"
)

// Error is an authentication error with a stable uppercase code and the HTTP
// status it maps to at the transport boundary. The JSON shape is identical for
// every cause of a given code and never carries internal state.
type Error struct {
	Code   string `json:"code"`
	Status int    `json:"-"`

	cause error
}

func (e *Error) Error() string { return e.Code }

// Unwrap exposes the cause for logging. It is never serialized.
func (e *Error) Unwrap() error { return e.cause }

// Is matches by code so that errors.Is works across WithCause copies.
func (e *Error) Is(target error) bool {
	var other *Error
	if errors.As(target, &other) {
		return other.Code == e.Code
	}
	return false
}

// WithCause returns a copy of e carrying err as its unexported cause.
// The sentinel itself is never mutated.
func (e *Error) WithCause(err error) *Error {
	return &Error{Code: e.Code, Status: e.Status, cause: err}
}

// Credential errors.
var ErrInvalidCredentials = &Error{Code: "INVALID_CREDENTIALS", Status: http.StatusUnauthorized}

// Session errors.
var (
	ErrSessionNotFound  = &Error{Code: "SESSION_NOT_FOUND", Status: http.StatusUnauthorized}
	ErrInvalidSessionID = &Error{Code: "INVALID_SESSION_ID", Status: http.StatusUnauthorized}
	ErrSessionExpired   = &Error{Code: "SESSION_EXPIRED", Status: http.StatusUnauthorized}
)

// Token errors.
var (
	ErrInvalidAccessToken  = &Error{Code: "INVALID_ACCESS_TOKEN", Status: http.StatusUnauthorized}
	ErrExpiredAccessToken  = &Error{Code: "EXPIRED_ACCESS_TOKEN", Status: http.StatusUnauthorized}
	ErrInvalidRefreshToken = &Error{Code: "INVALID_REFRESH_TOKEN", Status: http.StatusUnauthorized}
	ErrExpiredRefreshToken = &Error{Code: "EXPIRED_REFRESH_TOKEN", Status: http.StatusUnauthorized}
)

// Authorization errors.
var ErrForbidden = &Error{Code: "FORBIDDEN", Status: http.StatusForbidden}

// Crypto errors.
var ErrTamperedToken = &Error{Code: "TAMPERED_OR_INVALID_TOKEN", Status: http.StatusUnauthorized}

// ErrInfrastructure covers store/cache timeouts and unavailability. It is the
// only error kind eligible for automatic retry by callers.
var ErrInfrastructure = &Error{Code: "INFRASTRUCTURE_FAILURE", Status: http.StatusServiceUnavailable}

// Retryable reports whether err is an infrastructure failure the client may
// safely retry. All other coded errors are terminal for the request.
func Retryable(err error) bool {
	return errors.Is(err, ErrInfrastructure)
}

// AsError extracts the coded error from err's chain, if any.
func AsError(err error) (*Error, bool) {
	var coded *Error
	ok := errors.As(err, &coded)
	return coded, ok
}
