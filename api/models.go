// Package api holds the transport-facing request/response shapes and the
// wire-level carriage constants shared by handlers and middleware.
package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/authcore-io/authcore/domain"
	serrors "github.com/authcore-io/authcore/errors"
)

// Carriage contract: the access token travels as a Bearer header, the session
// id as an HTTP-only cookie, the refresh token as a cookie (or request body
// field on the refresh endpoint). All three values are transport-encrypted.
const (
	SessionCookieName = "authcore_sid"
	RefreshCookieName = "authcore_rt"
)

// SignInRequest is the sign-in endpoint's body.
type SignInRequest struct {
	Identifier string `json:"identifier"`
	Secret     string `json:"secret"`
	Platform   string `json:"platform"`
}

// RefreshRequest optionally carries the refresh token when the client does
// not use the cookie.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token,omitempty"`
}

// SessionResponse is returned by sign-in and refresh.
type SessionResponse struct {
	SessionID    string           `json:"session_id"`
	AccessToken  string           `json:"access_token"`
	RefreshToken string           `json:"refresh_token"`
	EndsAt       int64            `json:"ends_at"`
	Principal    domain.Principal `json:"principal"`
}

// SessionInfo is the client-safe projection of a session; token material
// never leaves the server through listings.
type SessionInfo struct {
	ID        string          `json:"id"`
	Platform  domain.Platform `json:"platform"`
	ClientIP  string          `json:"client_ip,omitempty"`
	UserAgent string          `json:"user_agent,omitempty"`
	StartedAt int64           `json:"started_at"`
	EndsAt    int64           `json:"ends_at"`
	Live      bool            `json:"live"`
}

// ErrorResponse is the single error shape: a stable uppercase code, nothing
// else. Identical across all causes of a given code.
type ErrorResponse struct {
	Code string `json:"code"`
}

// WriteError maps an error onto the taxonomy and renders it. Anything that is
// not a coded error is treated as an infrastructure failure; internals never
// reach the client.
func WriteError(c echo.Context, err error) error {
	if coded, ok := serrors.AsError(err); ok {
		return c.JSON(coded.Status, ErrorResponse{Code: coded.Code})
	}
	return c.JSON(http.StatusServiceUnavailable, ErrorResponse{Code: serrors.ErrInfrastructure.Code})
}
