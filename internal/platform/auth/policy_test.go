package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gelson35/GestaoSaude-backend/internal/platform/apierr"
)

var (
	manager  = NewPrincipal(uuid.New(), "000001", "Gestora", false, nil, []string{GroupAdministration})
	nurse    = NewPrincipal(uuid.New(), "000002", "Enfermeira", false, nil, []string{GroupNurse})
	visitor  = NewPrincipal(uuid.New(), "000003", "Sem grupo", false, nil, nil)
	allVerbs = []string{http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete}
)

func TestAllowClinicalSafe(t *testing.T) {
	for _, method := range allVerbs {
		assert.ErrorIs(t, AllowClinicalSafe(nil, method), apierr.ErrUnauthenticated, method)
		assert.NoError(t, AllowClinicalSafe(manager, method), method)
	}

	assert.NoError(t, AllowClinicalSafe(nurse, http.MethodGet))
	assert.NoError(t, AllowClinicalSafe(nurse, http.MethodPost))
	assert.ErrorIs(t, AllowClinicalSafe(nurse, http.MethodPut), apierr.ErrForbidden)
	assert.ErrorIs(t, AllowClinicalSafe(nurse, http.MethodPatch), apierr.ErrForbidden)
	assert.ErrorIs(t, AllowClinicalSafe(nurse, http.MethodDelete), apierr.ErrForbidden)

	assert.NoError(t, AllowClinicalSafe(visitor, http.MethodGet))
	assert.ErrorIs(t, AllowClinicalSafe(visitor, http.MethodPost), apierr.ErrForbidden)
}

func TestAllowManagementOnly(t *testing.T) {
	assert.ErrorIs(t, AllowManagementOnly(nil), apierr.ErrUnauthenticated)
	assert.ErrorIs(t, AllowManagementOnly(nurse), apierr.ErrForbidden)
	assert.NoError(t, AllowManagementOnly(manager))

	super := NewPrincipal(uuid.New(), "000009", "Root", true, nil, nil)
	assert.NoError(t, AllowManagementOnly(super))
}

func TestCheckOwner(t *testing.T) {
	assert.NoError(t, CheckOwner(nurse, nurse.UserID))
	assert.NoError(t, CheckOwner(manager, nurse.UserID))
	assert.ErrorIs(t, CheckOwner(visitor, nurse.UserID), apierr.ErrForbidden)
	assert.ErrorIs(t, CheckOwner(nil, nurse.UserID), apierr.ErrUnauthenticated)
}

func runGuard(t *testing.T, mw echo.MiddlewareFunc, method string, p *Principal) int {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, "/api/v1/ocorrencias", nil)
	if p != nil {
		req = req.WithContext(WithPrincipal(req.Context(), p))
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := mw(func(c echo.Context) error { return c.NoContent(http.StatusOK) })(c)
	if err == nil {
		return rec.Code
	}
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected *echo.HTTPError, got %T", err)
	return he.Code
}

func TestGuards_HTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusUnauthorized, runGuard(t, ManagementOnly(), http.MethodGet, nil))
	assert.Equal(t, http.StatusForbidden, runGuard(t, ManagementOnly(), http.MethodGet, nurse))
	assert.Equal(t, http.StatusOK, runGuard(t, ManagementOnly(), http.MethodGet, manager))

	assert.Equal(t, http.StatusOK, runGuard(t, ClinicalSafe(), http.MethodPost, nurse))
	assert.Equal(t, http.StatusForbidden, runGuard(t, ClinicalSafe(), http.MethodDelete, nurse))

	assert.Equal(t, http.StatusUnauthorized, runGuard(t, OwnerOrManagement(), http.MethodPost, nil))
	assert.Equal(t, http.StatusOK, runGuard(t, OwnerOrManagement(), http.MethodPost, visitor))

	assert.Equal(t, http.StatusOK, runGuard(t, RoleSplit(), http.MethodGet, visitor))
	assert.Equal(t, http.StatusForbidden, runGuard(t, RoleSplit(), http.MethodPost, nurse))
}
