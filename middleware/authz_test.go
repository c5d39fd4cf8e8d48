package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/authcore-io/authcore/domain"
	serrors "github.com/authcore-io/authcore/errors"
)

type stubGrantSource struct {
	grants *domain.GrantSet
	err    error
}

func (s *stubGrantSource) GrantSetFor(_ context.Context, _ string) (*domain.GrantSet, error) {
	return s.grants, s.err
}

func invokeGuarded(t *testing.T, source *stubGrantSource, principal *domain.Principal, required ...string) *httptest.ResponseRecorder {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
	if principal != nil {
		req = req.WithContext(domain.WithPrincipal(req.Context(), principal))
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := RequirePermissions(source, required...)(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	require.NoError(t, handler(c))
	return rec
}

func TestRequirePermissions_Allows(t *testing.T) {
	source := &stubGrantSource{grants: &domain.GrantSet{
		IncludedPermissions: []string{"iam.authentication.LIST_SESSIONS_SELF"},
	}}

	rec := invokeGuarded(t, source, &domain.Principal{ID: "p1"},
		"iam.authentication.LIST_SESSIONS_SELF")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequirePermissions_DeniesMissingGrant(t *testing.T) {
	source := &stubGrantSource{grants: &domain.GrantSet{}}

	rec := invokeGuarded(t, source, &domain.Principal{ID: "p1"},
		"iam.authentication.LIST_SESSIONS_SELF")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.JSONEq(t, `{"code":"FORBIDDEN"}`, rec.Body.String())
}

func TestRequirePermissions_DeniesExcluded(t *testing.T) {
	// An exclusion from one role vetoes the same permission included by
	// another role.
	source := &stubGrantSource{grants: &domain.GrantSet{
		Roles: []domain.Role{
			{Name: "broad", IncludedPermissions: []string{"iam.authentication.CLEAR_SESSIONS_SELF"}},
			{Name: "narrow", ExcludedPermissions: []string{"iam.authentication.CLEAR_SESSIONS_SELF"}},
		},
	}}

	rec := invokeGuarded(t, source, &domain.Principal{ID: "p1"},
		"iam.authentication.CLEAR_SESSIONS_SELF")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequirePermissions_AdminBypass(t *testing.T) {
	source := &stubGrantSource{grants: &domain.GrantSet{AdministratorAccess: true}}

	rec := invokeGuarded(t, source, &domain.Principal{ID: "root"},
		"iam.authentication.CLEAR_SESSIONS_ALL")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequirePermissions_NoPrincipal(t *testing.T) {
	source := &stubGrantSource{grants: &domain.GrantSet{AdministratorAccess: true}}

	rec := invokeGuarded(t, source, nil, "iam.authentication.LIST_SESSIONS_SELF")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequirePermissions_LookupFailure(t *testing.T) {
	source := &stubGrantSource{err: serrors.ErrInfrastructure}

	rec := invokeGuarded(t, source, &domain.Principal{ID: "p1"},
		"iam.authentication.LIST_SESSIONS_SELF")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"code":"INFRASTRUCTURE_FAILURE"}`, rec.Body.String())
}
