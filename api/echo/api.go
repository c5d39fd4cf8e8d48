//nolint:varnamelen
package echo

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/authcore-io/authcore/api"
	"github.com/authcore-io/authcore/domain"
	serrors "github.com/authcore-io/authcore/errors"
	"github.com/authcore-io/authcore/internal/auth/rbac"
	"github.com/authcore-io/authcore/middleware"
	"github.com/authcore-io/authcore/services"
)

// CookieSettings controls how the session id and refresh token cookies are
// written. MaxAge mirrors the configured TTL for each credential class.
type CookieSettings struct {
	// Secure must be set in production so cookies only travel over TLS.
	Secure     bool
	SessionTTL time.Duration
	RefreshTTL time.Duration
}

// AuthAPI exposes the session lifecycle over HTTP.
type AuthAPI struct {
	sessions *services.SessionService
	cookies  CookieSettings
}

// NewAuthAPI initializes the authentication API.
func NewAuthAPI(sessions *services.SessionService, cookies CookieSettings) *AuthAPI {
	return &AuthAPI{
		sessions: sessions,
		cookies:  cookies,
	}
}

// RegisterRoutes registers the authentication routes.
func (a *AuthAPI) RegisterRoutes(e *echo.Echo) {
	e.POST("/auth/sign-in", a.SignInHandler)
	e.POST("/auth/refresh", a.RefreshHandler)

	guarded := e.Group("", middleware.SessionAuth(a.sessions))
	guarded.POST("/auth/sign-out", a.SignOutHandler)
	guarded.GET("/auth/me", a.MeHandler)
	guarded.GET("/auth/sessions", a.ListSessionsHandler,
		middleware.RequirePermissions(a.sessions, rbac.PermSessionsListSelf))
	guarded.DELETE("/auth/sessions", a.ClearSessionsHandler,
		middleware.RequirePermissions(a.sessions, rbac.PermSessionsClearSelf))
}

func (a *AuthAPI) setCookie(c echo.Context, name, value string, ttl time.Duration) {
	c.SetCookie(&http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   a.cookies.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (a *AuthAPI) clearCookie(c echo.Context, name string) {
	c.SetCookie(&http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   a.cookies.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (a *AuthAPI) writeGrant(c echo.Context, grant *services.SessionGrant) error {
	a.setCookie(c, api.SessionCookieName, grant.SessionID, a.cookies.SessionTTL)
	a.setCookie(c, api.RefreshCookieName, grant.RefreshToken, a.cookies.RefreshTTL)
	return c.JSON(http.StatusOK, api.SessionResponse{
		SessionID:    grant.SessionID,
		AccessToken:  grant.AccessToken,
		RefreshToken: grant.RefreshToken,
		EndsAt:       grant.EndsAt,
		Principal:    grant.Principal,
	})
}

// SignInHandler opens a new session from an identifier/secret pair.
func (a *AuthAPI) SignInHandler(c echo.Context) error {
	var req api.SignInRequest
	if err := c.Bind(&req); err != nil {
		return api.WriteError(c, serrors.ErrInvalidCredentials)
	}

	platform, err := domain.ParsePlatform(req.Platform)
	if err != nil {
		return api.WriteError(c, serrors.ErrInvalidCredentials)
	}

	grant, err := a.sessions.SignIn(c.Request().Context(), services.Credentials{
		Identifier: req.Identifier,
		Secret:     req.Secret,
		ClientIP:   c.RealIP(),
		UserAgent:  c.Request().UserAgent(),
		Platform:   platform,
	})
	if err != nil {
		return api.WriteError(c, err)
	}
	return a.writeGrant(c, grant)
}

// RefreshHandler rotates the session's token pair. The refresh token comes
// from its cookie or, failing that, the request body.
func (a *AuthAPI) RefreshHandler(c echo.Context) error {
	sessionCookie, err := c.Cookie(api.SessionCookieName)
	if err != nil || sessionCookie.Value == "" {
		return api.WriteError(c, serrors.ErrInvalidSessionID)
	}

	accessToken, ok := bearerToken(c)
	if !ok {
		return api.WriteError(c, serrors.ErrInvalidAccessToken)
	}

	refreshToken := ""
	if cookie, err := c.Cookie(api.RefreshCookieName); err == nil {
		refreshToken = cookie.Value
	}
	if refreshToken == "" {
		var req api.RefreshRequest
		if err := c.Bind(&req); err == nil {
			refreshToken = req.RefreshToken
		}
	}
	if refreshToken == "" {
		return api.WriteError(c, serrors.ErrInvalidRefreshToken)
	}

	grant, err := a.sessions.Refresh(c.Request().Context(), sessionCookie.Value, accessToken, refreshToken)
	if err != nil {
		return api.WriteError(c, err)
	}
	return a.writeGrant(c, grant)
}

// SignOutHandler tombstones the current session and clears its cookies.
func (a *AuthAPI) SignOutHandler(c echo.Context) error {
	sessionCookie, err := c.Cookie(api.SessionCookieName)
	if err != nil || sessionCookie.Value == "" {
		return api.WriteError(c, serrors.ErrInvalidSessionID)
	}

	if err := a.sessions.SignOut(c.Request().Context(), sessionCookie.Value); err != nil {
		return api.WriteError(c, err)
	}

	a.clearCookie(c, api.SessionCookieName)
	a.clearCookie(c, api.RefreshCookieName)
	return c.NoContent(http.StatusNoContent)
}

// MeHandler returns the authenticated principal snapshot.
func (a *AuthAPI) MeHandler(c echo.Context) error {
	principal, ok := domain.PrincipalFromContext(c.Request().Context())
	if !ok {
		return api.WriteError(c, serrors.ErrInvalidSessionID)
	}
	return c.JSON(http.StatusOK, principal)
}

// ListSessionsHandler lists the caller's live sessions.
func (a *AuthAPI) ListSessionsHandler(c echo.Context) error {
	ctx := c.Request().Context()
	principal, ok := domain.PrincipalFromContext(ctx)
	if !ok {
		return api.WriteError(c, serrors.ErrInvalidSessionID)
	}

	sessions, err := a.sessions.ListSessions(ctx, principal.ID, domain.SessionFilter{})
	if err != nil {
		return api.WriteError(c, err)
	}

	now := time.Now()
	infos := make([]api.SessionInfo, 0, len(sessions))
	for _, s := range sessions {
		infos = append(infos, api.SessionInfo{
			ID:        s.ID,
			Platform:  s.Platform,
			ClientIP:  s.ClientIP,
			UserAgent: s.UserAgent,
			StartedAt: s.StartedAt,
			EndsAt:    s.EndsAt,
			Live:      s.Live(now),
		})
	}
	return c.JSON(http.StatusOK, infos)
}

// ClearSessionsHandler revokes the caller's other sessions on the given
// platform, keeping the current one.
func (a *AuthAPI) ClearSessionsHandler(c echo.Context) error {
	ctx := c.Request().Context()
	principal, ok := domain.PrincipalFromContext(ctx)
	if !ok {
		return api.WriteError(c, serrors.ErrInvalidSessionID)
	}

	platform, err := domain.ParsePlatform(c.QueryParam("platform"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, api.ErrorResponse{Code: "INVALID_PLATFORM"})
	}

	var except []string
	if current, ok := domain.SessionIDFromContext(ctx); ok {
		except = append(except, current)
	}

	revoked, err := a.sessions.RevokeSessions(ctx, principal.ID, platform, except...)
	if err != nil {
		return api.WriteError(c, err)
	}

	log.Info().Str("principalID", principal.ID).Int64("revoked", revoked).Msg("sessions cleared")
	return c.JSON(http.StatusOK, map[string]int64{"revoked": revoked})
}

func bearerToken(c echo.Context) (string, bool) {
	const prefix = "Bearer "
	header := c.Request().Header.Get("Authorization")
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	return header[len(prefix):], true
}
