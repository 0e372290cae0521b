package identity

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gelson35/GestaoSaude-backend/internal/platform/auth"
)

// newServer mounts the identity routes behind the real authentication
// middleware.
func newServer(t *testing.T) (*echo.Echo, *testEnv) {
	t.Helper()
	env := newTestEnv(t)
	e := echo.New()
	e.Use(auth.Authenticate(auth.Config{
		Tokens:  env.tokens,
		Revoked: env.revoked,
		Loader:  env.svc,
		Skipper: auth.Skipper,
	}))
	h := NewHandler(env.svc)
	h.RegisterPublic(e)
	h.RegisterRoutes(e.Group("/api/v1"))
	return e, env
}

func do(e *echo.Echo, method, path, body, token string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func login(t *testing.T, e *echo.Echo, registration string) string {
	t.Helper()
	rec := do(e, http.MethodPost, "/auth/token", `{"matricula":"`+registration+`","password":"plantao-seguro"}`, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp TokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.AccessToken
}

func TestHandler_TokenMeLogout(t *testing.T) {
	e, env := newServer(t)
	_, err := env.svc.CreateUser(context.Background(), newUser("000050"), auth.GroupNurse)
	require.NoError(t, err)

	token := login(t, e, "000050")

	rec := do(e, http.MethodGet, "/api/v1/auth/me", "", token)
	require.Equal(t, http.StatusOK, rec.Code)
	var me map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &me))
	assert.Equal(t, "000050", me["matricula"])
	assert.Equal(t, true, me["is_assistencial"])
	assert.Equal(t, false, me["is_gerencial"])
	assert.Equal(t, auth.AccessClinical, me["nivel_acesso"])
	assert.NotContains(t, me, "password_hash")

	rec = do(e, http.MethodPost, "/api/v1/auth/logout", "", token)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(e, http.MethodGet, "/api/v1/auth/me", "", token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandler_Token_WrongPassword(t *testing.T) {
	e, env := newServer(t)
	_, err := env.svc.CreateUser(context.Background(), newUser("000051"))
	require.NoError(t, err)

	rec := do(e, http.MethodPost, "/auth/token", `{"matricula":"000051","password":"errada123"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(e, http.MethodPost, "/auth/token", `{"matricula":"000051"}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_Users_ManagementOnly(t *testing.T) {
	e, env := newServer(t)
	ctx := context.Background()
	_, err := env.svc.CreateUser(ctx, newUser("000060"), auth.GroupAdministration)
	require.NoError(t, err)
	_, err = env.svc.CreateUser(ctx, newUser("000061"), auth.GroupDriver)
	require.NoError(t, err)

	rec := do(e, http.MethodGet, "/api/v1/usuarios", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(e, http.MethodGet, "/api/v1/usuarios", "", login(t, e, "000061"))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(e, http.MethodGet, "/api/v1/usuarios", "", login(t, e, "000060"))
	require.Equal(t, http.StatusOK, rec.Code)
	var page struct {
		Data  []UserRead `json:"data"`
		Total int        `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Equal(t, 2, page.Total)
	levels := map[string]string{}
	for _, u := range page.Data {
		levels[u.Registration] = u.AccessLevel
	}
	assert.Equal(t, map[string]string{"000060": auth.AccessManagement, "000061": auth.AccessClinical}, levels)
}

func TestHandler_InvalidBearer(t *testing.T) {
	e, _ := newServer(t)
	rec := do(e, http.MethodGet, "/api/v1/grupos", "", "not-a-token")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandler_ListGroups(t *testing.T) {
	e, env := newServer(t)
	_, err := env.svc.CreateUser(context.Background(), newUser("000070"))
	require.NoError(t, err)

	rec := do(e, http.MethodGet, "/api/v1/grupos", "", login(t, e, "000070"))
	require.Equal(t, http.StatusOK, rec.Code)
	var groups []GroupRead
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &groups))
	assert.Len(t, groups, 5)
}
