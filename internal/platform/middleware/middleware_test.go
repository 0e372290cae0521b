package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/gelson35/GestaoSaude-backend/internal/platform/auth"
)

func TestRequestID_GeneratesAndPropagates(t *testing.T) {
	e := echo.New()
	h := RequestID()(func(c echo.Context) error {
		return c.String(http.StatusOK, c.Get("request_id").(string))
	})

	rec := httptest.NewRecorder()
	if err := h(e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)); err != nil {
		t.Fatal(err)
	}
	if _, err := uuid.Parse(rec.Header().Get(HeaderRequestID)); err != nil {
		t.Errorf("expected generated uuid, got %q", rec.Header().Get(HeaderRequestID))
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, "abc-123")
	rec = httptest.NewRecorder()
	if err := h(e.NewContext(req, rec)); err != nil {
		t.Fatal(err)
	}
	if rec.Body.String() != "abc-123" {
		t.Errorf("expected incoming id to be reused, got %q", rec.Body.String())
	}
}

func TestRecovery(t *testing.T) {
	var buf bytes.Buffer
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())

	err := Recovery(zerolog.New(&buf))(func(echo.Context) error { panic("boom") })(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 HTTPError, got %v", err)
	}
	if !strings.Contains(buf.String(), "panic recovered") {
		t.Errorf("expected panic to be logged, got %s", buf.String())
	}
}

func TestAudit_LogsCallerAndResource(t *testing.T) {
	var buf bytes.Buffer
	var recorded []AuditEntry
	rec := AuditRecorderFunc(func(e AuditEntry) error {
		recorded = append(recorded, e)
		return nil
	})

	id := uuid.New()
	p := auth.NewPrincipal(uuid.New(), "654321", "Dr. Silva", false, nil, []string{auth.GroupDoctor})
	e := echo.New()
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/ocorrencias/"+id.String(), nil)
	req = req.WithContext(auth.WithPrincipal(req.Context(), p))
	c := e.NewContext(req, httptest.NewRecorder())

	h := Audit(zerolog.New(&buf), rec)(func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusForbidden)
	})
	_ = h(c)

	if len(recorded) != 1 {
		t.Fatalf("expected 1 audit entry, got %d", len(recorded))
	}
	got := recorded[0]
	if got.Resource != "ocorrencias" || got.RecordID != id.String() {
		t.Errorf("unexpected resource %q / %q", got.Resource, got.RecordID)
	}
	if got.Action != "update" || got.StatusCode != http.StatusForbidden {
		t.Errorf("unexpected action %q status %d", got.Action, got.StatusCode)
	}
	if got.AccessLevel != auth.AccessClinical || got.Registration != "654321" {
		t.Errorf("unexpected caller %+v", got)
	}

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("expected one JSON log line: %v", err)
	}
	if line["resource"] != "ocorrencias" {
		t.Errorf("expected resource in log line, got %v", line["resource"])
	}
}

func TestAudit_SkipsNonAPIPaths(t *testing.T) {
	var buf bytes.Buffer
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/health", nil), httptest.NewRecorder())
	_ = Audit(zerolog.New(&buf))(func(c echo.Context) error { return c.NoContent(http.StatusOK) })(c)
	if buf.Len() != 0 {
		t.Errorf("expected no audit line for /health, got %s", buf.String())
	}
}

func TestLogger_UsesErrorStatus(t *testing.T) {
	var buf bytes.Buffer
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/v1/usuarios", nil), httptest.NewRecorder())
	c.Set("request_id", "rid-1")

	_ = Logger(zerolog.New(&buf))(func(echo.Context) error {
		return echo.NewHTTPError(http.StatusForbidden, "nope")
	})(c)

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("expected JSON log line: %v", err)
	}
	if line["status"] != float64(http.StatusForbidden) {
		t.Errorf("expected status 403, got %v", line["status"])
	}
	if line["level"] != "warn" {
		t.Errorf("expected warn level, got %v", line["level"])
	}
}
