// Package middleware provides the echo authentication and authorization
// middleware for session-guarded routes.
package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/authcore-io/authcore/api"
	"github.com/authcore-io/authcore/domain"
	serrors "github.com/authcore-io/authcore/errors"
	"github.com/authcore-io/authcore/services"
)

// SessionAuth verifies each request against its encrypted session cookie and
// Bearer access token, attaching the principal snapshot and session id to the
// request context. Requests failing verification never reach the handler.
func SessionAuth(sessions *services.SessionService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cookie, err := c.Cookie(api.SessionCookieName)
			if err != nil || cookie.Value == "" {
				return api.WriteError(c, serrors.ErrInvalidSessionID)
			}

			bearer, ok := bearerToken(c.Request().Header.Get("Authorization"))
			if !ok {
				return api.WriteError(c, serrors.ErrInvalidAccessToken)
			}

			ctx := c.Request().Context()
			principal, sessionID, err := sessions.VerifyRequest(ctx, cookie.Value, bearer)
			if err != nil {
				return api.WriteError(c, err)
			}

			ctx = domain.WithPrincipal(ctx, principal)
			ctx = domain.WithSessionID(ctx, sessionID)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}
