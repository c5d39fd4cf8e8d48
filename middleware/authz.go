package middleware

import (
	"context"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/authcore-io/authcore/api"
	"github.com/authcore-io/authcore/domain"
	serrors "github.com/authcore-io/authcore/errors"
	"github.com/authcore-io/authcore/internal/auth/rbac"
)

// GrantSource fetches a principal's aggregated grants. Satisfied by
// services.SessionService.
type GrantSource interface {
	GrantSetFor(ctx context.Context, principalID string) (*domain.GrantSet, error)
}

// RequirePermissions authorizes the request's principal against the declared
// required permission set. It must run after SessionAuth.
func RequirePermissions(grants GrantSource, required ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()

			principal, ok := domain.PrincipalFromContext(ctx)
			if !ok {
				// SessionAuth did not run or did not succeed.
				log.Warn().Str("path", c.Path()).Msg("authorization check without authenticated principal")
				return api.WriteError(c, serrors.ErrInvalidSessionID)
			}

			grantSet, err := grants.GrantSetFor(ctx, principal.ID)
			if err != nil {
				return api.WriteError(c, err)
			}

			if !rbac.HasPermission(grantSet, required) {
				log.Warn().Str("principalID", principal.ID).Strs("required", required).
					Str("path", c.Path()).Msg("Permission denied for principal.")
				return api.WriteError(c, serrors.ErrForbidden)
			}

			return next(c)
		}
	}
}
