package report

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newContext(e *echo.Echo, method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func statusOf(t *testing.T, err error) int {
	t.Helper()
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected *echo.HTTPError, got %T", err)
	return he.Code
}

func TestHandler_Generate(t *testing.T) {
	svc, _, stats := newTestService()
	stats.incidents = []incidentAt{{at(time.May, 2, 10), "Centro"}}
	h, e := NewHandler(svc), echo.New()

	c, rec := newContext(e, http.MethodPost, "/", `{"tipo_relatorio":"Mensal","data_referencia":"2024-05-10"}`)
	require.NoError(t, h.Generate(c))
	assert.Equal(t, http.StatusCreated, rec.Code)

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.EqualValues(t, 1, got["total_ocorrencias"])
	assert.Equal(t, map[string]interface{}{"Centro": float64(1)}, got["estatistica_tipo"])
	assert.Equal(t, "2024-05-10", got["data_referencia"])
}

func TestHandler_Generate_BadPeriod(t *testing.T) {
	svc, _, _ := newTestService()
	h, e := NewHandler(svc), echo.New()
	c, _ := newContext(e, http.MethodPost, "/", `{"tipo_relatorio":"Anual","data_referencia":"2024-05-10"}`)
	assert.Equal(t, http.StatusBadRequest, statusOf(t, h.Generate(c)))
}

func TestHandler_CreateAndPatch(t *testing.T) {
	svc, repo, _ := newTestService()
	h, e := NewHandler(svc), echo.New()

	c, rec := newContext(e, http.MethodPost, "/",
		`{"tipo_relatorio":"Diário","data_referencia":"2024-05-10","estatistica_tipo":{"Centro":2},"data_geracao":"1999-01-01T00:00:00Z"}`)
	require.NoError(t, h.Create(c))
	assert.Equal(t, http.StatusCreated, rec.Code)
	var created Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, repo.now, created.GeneratedAt)

	c, rec = newContext(e, http.MethodPatch, "/", `{"total_ocorrencias":2}`)
	c.SetParamNames("id")
	c.SetParamValues(created.ID.String())
	require.NoError(t, h.Patch(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	stored := repo.reports[created.ID]
	assert.Equal(t, "Diário", stored.Type)
	assert.Equal(t, 2, *stored.TotalIncidents)
	assert.Equal(t, map[string]float64{"Centro": 2}, stored.Statistics)
}

func TestHandler_Export(t *testing.T) {
	svc, _, _ := newTestService()
	h, e := NewHandler(svc), echo.New()
	r, err := svc.Generate(context.Background(), GenerateRequest{Type: PeriodDaily, ReferenceDate: date(2024, time.May, 10)})
	require.NoError(t, err)

	c, rec := newContext(e, http.MethodGet, "/", "")
	c.SetParamNames("id")
	c.SetParamValues(r.ID.String())
	require.NoError(t, h.Export(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, mimeXLSX, rec.Header().Get(echo.HeaderContentType))
	assert.Contains(t, rec.Header().Get(echo.HeaderContentDisposition), "attachment")
	assert.NotZero(t, rec.Body.Len())
}

func TestHandler_GetDelete(t *testing.T) {
	svc, repo, _ := newTestService()
	h, e := NewHandler(svc), echo.New()

	c, _ := newContext(e, http.MethodGet, "/", "")
	c.SetParamNames("id")
	c.SetParamValues(uuid.New().String())
	assert.Equal(t, http.StatusNotFound, statusOf(t, h.Get(c)))

	r, err := svc.Generate(context.Background(), GenerateRequest{Type: PeriodDaily, ReferenceDate: date(2024, time.May, 10)})
	require.NoError(t, err)
	c, rec := newContext(e, http.MethodDelete, "/", "")
	c.SetParamNames("id")
	c.SetParamValues(r.ID.String())
	require.NoError(t, h.Delete(c))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, repo.reports)
}

func TestHandler_List_BadDate(t *testing.T) {
	svc, _, _ := newTestService()
	h, e := NewHandler(svc), echo.New()
	c, _ := newContext(e, http.MethodGet, "/?desde=10/05/2024", "")
	assert.Equal(t, http.StatusBadRequest, statusOf(t, h.List(c)))
}
