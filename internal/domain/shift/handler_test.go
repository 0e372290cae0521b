package shift

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gelson35/GestaoSaude-backend/internal/platform/auth"
)

func newTestHandler() (*Handler, *testEnv, *echo.Echo) {
	env := newTestEnv()
	return NewHandler(env.svc), env, echo.New()
}

func newContext(e *echo.Echo, method, body string, p *auth.Principal) (echo.Context, *httptest.ResponseRecorder) {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, "/", nil)
	} else {
		req = httptest.NewRequest(method, "/", strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if p != nil {
		req = req.WithContext(auth.WithPrincipal(req.Context(), p))
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

func TestHandler_CreateTeam(t *testing.T) {
	h, _, e := newTestHandler()
	body := `{"vtr_sigla":"USA-01","data_plantao":"2024-05-01","condutor":"` + uuid.New().String() +
		`","tecnico_enf":"` + uuid.New().String() + `"}`
	c, rec := newContext(e, http.MethodPost, body, manager())

	require.NoError(t, h.CreateTeam(c))
	assert.Equal(t, http.StatusCreated, rec.Code)

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "2024-05-01", got["data_plantao"])
	assert.Nil(t, got["medico"])
}

func TestHandler_CreateTeam_BadRequest(t *testing.T) {
	h, _, e := newTestHandler()
	c, _ := newContext(e, http.MethodPost, `{"vtr_sigla":"USA-01"}`, manager())
	assert.Equal(t, http.StatusBadRequest, statusOf(t, h.CreateTeam(c)))
}

func TestHandler_PatchTeam_ClearsDoctor(t *testing.T) {
	h, env, e := newTestHandler()
	team := validTeam()
	doc := uuid.New()
	team.DoctorID = &doc
	require.NoError(t, env.svc.CreateTeam(context.Background(), team))

	c, rec := newContext(e, http.MethodPatch, `{"medico":null}`, manager())
	c.SetParamNames("id")
	c.SetParamValues(team.ID.String())
	require.NoError(t, h.PatchTeam(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	stored, err := env.svc.GetTeam(context.Background(), team.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.DoctorID)
	assert.Equal(t, "USA-01", stored.VehicleTag)
}

func TestHandler_GetTeam_InvalidID(t *testing.T) {
	h, _, e := newTestHandler()
	c, _ := newContext(e, http.MethodGet, "", manager())
	c.SetParamNames("id")
	c.SetParamValues("not-a-uuid")
	assert.Equal(t, http.StatusBadRequest, statusOf(t, h.GetTeam(c)))
}

func TestHandler_GetTeam_NotFound(t *testing.T) {
	h, _, e := newTestHandler()
	c, _ := newContext(e, http.MethodGet, "", manager())
	c.SetParamNames("id")
	c.SetParamValues(uuid.New().String())
	assert.Equal(t, http.StatusNotFound, statusOf(t, h.GetTeam(c)))
}

func TestHandler_CreateChecklist_NestedRead(t *testing.T) {
	h, env, e := newTestHandler()
	gloves := env.item(t, "Luvas", &groupDoctor)
	body := `{"equipe_id":"` + uuid.New().String() + `","vtr_observacao":"ok","detalhes":[` +
		`{"item_id":"` + gloves.ID.String() + `","quantidade":4,"status_alerta":"AMARELO"}]}`
	c, rec := newContext(e, http.MethodPost, body, doctor())

	require.NoError(t, h.CreateChecklist(c))
	assert.Equal(t, http.StatusCreated, rec.Code)

	var got ChecklistRead
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got.Lines, 1)
	assert.Equal(t, 4, got.Lines[0].Quantity)
	assert.Equal(t, "Luvas", got.Lines[0].Item.Name)
	require.NotNil(t, got.Lines[0].AlertStatus)
	assert.Equal(t, AlertYellow, *got.Lines[0].AlertStatus)
}

func TestHandler_CreateChecklist_IgnoresClientSubmitter(t *testing.T) {
	h, _, e := newTestHandler()
	p := doctor()
	body := `{"equipe_id":"` + uuid.New().String() + `","usuario_id":"` + uuid.New().String() + `"}`
	c, rec := newContext(e, http.MethodPost, body, p)

	require.NoError(t, h.CreateChecklist(c))
	var got ChecklistRead
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, p.UserID, got.SubmittedByID)
}

func TestHandler_GetChecklist_Forbidden(t *testing.T) {
	h, env, e := newTestHandler()
	cl, err := env.svc.CreateChecklist(context.Background(), doctor(), checklistOp(t, uuid.New()))
	require.NoError(t, err)

	c, _ := newContext(e, http.MethodGet, "", driver())
	c.SetParamNames("id")
	c.SetParamValues(cl.ID.String())
	assert.Equal(t, http.StatusForbidden, statusOf(t, h.GetChecklist(c)))
}

func TestHandler_PatchChecklist_KeepsLinesWhenAbsent(t *testing.T) {
	h, env, e := newTestHandler()
	gloves := env.item(t, "Luvas", nil)
	p := doctor()
	cl, err := env.svc.CreateChecklist(context.Background(), p, checklistOp(t, uuid.New(), lineW(gloves.ID, 1, AlertGreen)))
	require.NoError(t, err)

	c, rec := newContext(e, http.MethodPatch, `{"vtr_observacao":"farol queimado"}`, p)
	c.SetParamNames("id")
	c.SetParamValues(cl.ID.String())
	require.NoError(t, h.PatchChecklist(c))

	var got ChecklistRead
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "farol queimado", got.VehicleNote)
	assert.Equal(t, cl.TeamID, got.TeamID)
	assert.Len(t, got.Lines, 1)
}

func TestHandler_ListItems_FilteredForClinical(t *testing.T) {
	h, env, e := newTestHandler()
	env.item(t, "Luvas", nil)
	env.item(t, "Adrenalina", &groupDoctor)

	c, rec := newContext(e, http.MethodGet, "", driver())
	require.NoError(t, h.ListItems(c))

	var got struct {
		Data  []InventoryItem `json:"data"`
		Total int             `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, 1, got.Total)
	require.Len(t, got.Data, 1)
	assert.Equal(t, "Luvas", got.Data[0].Name)
}

func TestHandler_DeleteLine(t *testing.T) {
	h, env, e := newTestHandler()
	gloves := env.item(t, "Luvas", nil)
	p := doctor()
	cl, err := env.svc.CreateChecklist(context.Background(), p, checklistOp(t, uuid.New(), lineW(gloves.ID, 1, AlertGreen)))
	require.NoError(t, err)

	c, rec := newContext(e, http.MethodDelete, "", p)
	c.SetParamNames("id")
	c.SetParamValues(cl.Lines[0].ID.String())
	require.NoError(t, h.DeleteLine(c))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, env.checklists.lines)
}
