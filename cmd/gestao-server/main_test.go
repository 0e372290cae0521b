package main

import (
	"context"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gelson35/GestaoSaude-backend/internal/config"
	"github.com/gelson35/GestaoSaude-backend/internal/domain/identity"
	"github.com/gelson35/GestaoSaude-backend/internal/domain/incident"
	"github.com/gelson35/GestaoSaude-backend/internal/domain/patient"
	"github.com/gelson35/GestaoSaude-backend/internal/domain/report"
	"github.com/gelson35/GestaoSaude-backend/internal/domain/shift"
	"github.com/gelson35/GestaoSaude-backend/internal/platform/auth"
	"github.com/gelson35/GestaoSaude-backend/internal/platform/blobstore"
	"github.com/gelson35/GestaoSaude-backend/internal/platform/events"
)

// testRouter wires every handler without a database. Requests that reach a
// service would panic, so these tests stay on paths rejected before that.
func testRouter(t *testing.T) *echo.Echo {
	t.Helper()
	revoked := auth.NewMemoryRevocationStore()
	t.Cleanup(revoked.Close)
	tokens := auth.NewTokenIssuer([]byte("router-test-signing-key-0123456789"), "test", time.Hour)
	idSvc := identity.NewService(nil, nil, tokens, revoked, nil, zerolog.Nop())

	return newRouter(&app{
		logger:   zerolog.Nop(),
		cors:     []string{"http://localhost:3000"},
		tokens:   tokens,
		revoked:  revoked,
		identity: idSvc,
		media:    blobstore.NewHandler(blobstore.NewMemoryStore(), "http://localhost/api/v1/midias"),
		handlers: []routeRegistrar{
			shift.NewHandler(nil),
			patient.NewHandler(nil),
			incident.NewHandler(nil),
			report.NewHandler(nil),
			identity.NewHandler(idSvc),
		},
	})
}

func TestRouter_RegistersDomainRoutes(t *testing.T) {
	e := testRouter(t)

	routes := make(map[string]bool)
	for _, r := range e.Routes() {
		routes[r.Method+" "+r.Path] = true
	}

	for _, want := range []string{
		"GET /health",
		"POST /auth/token",
		"GET /api/v1/auth/me",
		"GET /api/v1/equipes",
		"GET /api/v1/ocorrencias",
		"POST /api/v1/ocorrencias",
		"GET /api/v1/pacientes",
		"POST /api/v1/relatorios/gerar",
		"GET /api/v1/relatorios/:id/xlsx",
		"GET /api/v1/usuarios",
		"POST /api/v1/midias",
	} {
		assert.True(t, routes[want], "missing route %s", want)
	}
	assert.False(t, routes["GET /health/db"], "db health needs a pinger")
}

func TestRouter_HealthIsPublic(t *testing.T) {
	e := testRouter(t)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ok"`)
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))
}

func TestRouter_APIRequiresToken(t *testing.T) {
	e := testRouter(t)

	for _, path := range []string{"/api/v1/ocorrencias", "/api/v1/equipes", "/api/v1/relatorios"} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}
}

func TestRouter_TokenEndpointSkipsAuth(t *testing.T) {
	e := testRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/auth/token", strings.NewReader(`{"matricula":""}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBackends_Defaults(t *testing.T) {
	ctx := context.Background()
	cfg := &config.Config{Env: "development", MediaBackend: "memory", EventsBackend: "none"}

	store, err := newMediaStore(ctx, cfg)
	require.NoError(t, err)
	assert.IsType(t, &blobstore.MemoryStore{}, store)

	pub, err := newPublisher(ctx, cfg)
	require.NoError(t, err)
	assert.Equal(t, events.NopPublisher{}, pub)

	revoked, closeFn, err := newRevocationStore(ctx, cfg)
	require.NoError(t, err)
	defer closeFn()
	assert.IsType(t, &auth.MemoryRevocationStore{}, revoked)
}

func TestBackends_Kafka(t *testing.T) {
	cfg := &config.Config{EventsBackend: "kafka", KafkaBrokers: []string{"localhost:9092"}, KafkaTopic: "ocorrencias"}

	pub, err := newPublisher(context.Background(), cfg)
	require.NoError(t, err)
	assert.IsType(t, &events.KafkaPublisher{}, pub)
	assert.NoError(t, pub.Close())
}

func TestMigrationFiles_Embedded(t *testing.T) {
	files, err := fs.Glob(migrationFiles(&config.Config{}), "*.sql")
	require.NoError(t, err)
	assert.Contains(t, files, "001_usuarios.sql")
	assert.Len(t, files, 5)
}
