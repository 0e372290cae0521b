package shift

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/gelson35/GestaoSaude-backend/internal/platform/apierr"
	"github.com/gelson35/GestaoSaude-backend/internal/platform/auth"
	"github.com/gelson35/GestaoSaude-backend/pkg/civil"
	"github.com/gelson35/GestaoSaude-backend/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	teams := api.Group("/equipes", auth.ClinicalSafe())
	teams.POST("", h.CreateTeam)
	teams.GET("", h.ListTeams)
	teams.GET("/:id", h.GetTeam)
	teams.PUT("/:id", h.UpdateTeam)
	teams.PATCH("/:id", h.PatchTeam)
	teams.DELETE("/:id", h.DeleteTeam)

	items := api.Group("/itens-inventario", auth.RoleSplit())
	items.POST("", h.CreateItem)
	items.GET("", h.ListItems)
	items.GET("/:id", h.GetItem)
	items.PUT("/:id", h.UpdateItem)
	items.PATCH("/:id", h.PatchItem)
	items.DELETE("/:id", h.DeleteItem)

	checklists := api.Group("/checklists", auth.OwnerOrManagement())
	checklists.POST("", h.CreateChecklist)
	checklists.GET("", h.ListChecklists)
	checklists.GET("/:id", h.GetChecklist)
	checklists.PUT("/:id", h.UpdateChecklist)
	checklists.PATCH("/:id", h.PatchChecklist)
	checklists.DELETE("/:id", h.DeleteChecklist)

	lines := api.Group("/checklist-detalhes", auth.OwnerOrManagement())
	lines.POST("", h.CreateLine)
	lines.GET("", h.ListLines)
	lines.GET("/:id", h.GetLine)
	lines.PUT("/:id", h.UpdateLine)
	lines.PATCH("/:id", h.PatchLine)
	lines.DELETE("/:id", h.DeleteLine)
}

func parseID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, apierr.BadRequest("invalid id")
	}
	return id, nil
}

func principal(c echo.Context) *auth.Principal {
	return auth.PrincipalFromContext(c.Request().Context())
}

// -- Shift Team Handlers --

func (h *Handler) CreateTeam(c echo.Context) error {
	var t ShiftTeam
	if err := c.Bind(&t); err != nil {
		return apierr.BadRequest("malformed request body")
	}
	if err := h.svc.CreateTeam(c.Request().Context(), &t); err != nil {
		return apierr.HTTP(err)
	}
	return c.JSON(http.StatusCreated, t)
}

func (h *Handler) GetTeam(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	t, err := h.svc.GetTeam(c.Request().Context(), id)
	if err != nil {
		return apierr.HTTP(err)
	}
	return c.JSON(http.StatusOK, t)
}

func (h *Handler) ListTeams(c echo.Context) error {
	pg := pagination.FromContext(c)
	f := TeamFilter{VehicleTag: c.QueryParam("vtr_sigla")}
	if v := c.QueryParam("data_plantao"); v != "" {
		d, err := civil.ParseDate(v)
		if err != nil {
			return apierr.HTTP(apierr.NewValidationError("data_plantao", "date must be YYYY-MM-DD"))
		}
		f.Date = &d
	}
	items, total, err := h.svc.ListTeams(c.Request().Context(), f, pg.Limit, pg.Offset)
	if err != nil {
		return apierr.HTTP(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) UpdateTeam(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var t ShiftTeam
	if err := c.Bind(&t); err != nil {
		return apierr.BadRequest("malformed request body")
	}
	t.ID = id
	if err := h.svc.UpdateTeam(c.Request().Context(), &t); err != nil {
		return apierr.HTTP(err)
	}
	return c.JSON(http.StatusOK, t)
}

func (h *Handler) PatchTeam(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	t, err := h.svc.GetTeam(c.Request().Context(), id)
	if err != nil {
		return apierr.HTTP(err)
	}
	if err := c.Bind(t); err != nil {
		return apierr.BadRequest("malformed request body")
	}
	t.ID = id
	if err := h.svc.UpdateTeam(c.Request().Context(), t); err != nil {
		return apierr.HTTP(err)
	}
	return c.JSON(http.StatusOK, t)
}

func (h *Handler) DeleteTeam(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.svc.DeleteTeam(c.Request().Context(), id); err != nil {
		return apierr.HTTP(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// -- Inventory Item Handlers --

func (h *Handler) CreateItem(c echo.Context) error {
	var it InventoryItem
	if err := c.Bind(&it); err != nil {
		return apierr.BadRequest("malformed request body")
	}
	if err := h.svc.CreateItem(c.Request().Context(), &it); err != nil {
		return apierr.HTTP(err)
	}
	return h.itemResponse(c, http.StatusCreated, it.ID)
}

// itemResponse re-reads the item so the owning group name is current.
func (h *Handler) itemResponse(c echo.Context, status int, id uuid.UUID) error {
	it, err := h.svc.GetItem(c.Request().Context(), principal(c), id)
	if err != nil {
		return apierr.HTTP(err)
	}
	return c.JSON(status, it)
}

func (h *Handler) GetItem(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	return h.itemResponse(c, http.StatusOK, id)
}

func (h *Handler) ListItems(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListItems(c.Request().Context(), principal(c), pg.Limit, pg.Offset)
	if err != nil {
		return apierr.HTTP(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) UpdateItem(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var it InventoryItem
	if err := c.Bind(&it); err != nil {
		return apierr.BadRequest("malformed request body")
	}
	it.ID = id
	if err := h.svc.UpdateItem(c.Request().Context(), &it); err != nil {
		return apierr.HTTP(err)
	}
	return h.itemResponse(c, http.StatusOK, id)
}

func (h *Handler) PatchItem(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	it, err := h.svc.GetItem(c.Request().Context(), principal(c), id)
	if err != nil {
		return apierr.HTTP(err)
	}
	if err := c.Bind(it); err != nil {
		return apierr.BadRequest("malformed request body")
	}
	it.ID = id
	if err := h.svc.UpdateItem(c.Request().Context(), it); err != nil {
		return apierr.HTTP(err)
	}
	return h.itemResponse(c, http.StatusOK, id)
}

func (h *Handler) DeleteItem(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.svc.DeleteItem(c.Request().Context(), id); err != nil {
		return apierr.HTTP(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// -- Checklist Handlers --

func (h *Handler) CreateChecklist(c echo.Context) error {
	var w ChecklistWrite
	if err := c.Bind(&w); err != nil {
		return apierr.BadRequest("malformed request body")
	}
	op, err := FromChecklistWrite(w)
	if err != nil {
		return apierr.HTTP(err)
	}
	cl, err := h.svc.CreateChecklist(c.Request().Context(), principal(c), op)
	if err != nil {
		return apierr.HTTP(err)
	}
	return c.JSON(http.StatusCreated, ToChecklistRead(cl))
}

func (h *Handler) GetChecklist(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	cl, err := h.svc.GetChecklist(c.Request().Context(), principal(c), id)
	if err != nil {
		return apierr.HTTP(err)
	}
	return c.JSON(http.StatusOK, ToChecklistRead(cl))
}

func (h *Handler) ListChecklists(c echo.Context) error {
	pg := pagination.FromContext(c)
	var teamID *uuid.UUID
	if v := c.QueryParam("equipe"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return apierr.HTTP(apierr.NewValidationError("equipe", "must be a valid UUID"))
		}
		teamID = &id
	}
	items, total, err := h.svc.ListChecklists(c.Request().Context(), principal(c), teamID, pg.Limit, pg.Offset)
	if err != nil {
		return apierr.HTTP(err)
	}
	views := make([]ChecklistRead, 0, len(items))
	for _, cl := range items {
		views = append(views, ToChecklistRead(cl))
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(views, total, pg.Limit, pg.Offset))
}

func (h *Handler) UpdateChecklist(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var w ChecklistWrite
	if err := c.Bind(&w); err != nil {
		return apierr.BadRequest("malformed request body")
	}
	return h.saveChecklist(c, id, w)
}

func (h *Handler) PatchChecklist(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	existing, err := h.svc.GetChecklist(c.Request().Context(), principal(c), id)
	if err != nil {
		return apierr.HTTP(err)
	}
	w := ToChecklistWrite(existing)
	if err := c.Bind(&w); err != nil {
		return apierr.BadRequest("malformed request body")
	}
	return h.saveChecklist(c, id, w)
}

func (h *Handler) saveChecklist(c echo.Context, id uuid.UUID, w ChecklistWrite) error {
	op, err := FromChecklistWrite(w)
	if err != nil {
		return apierr.HTTP(err)
	}
	cl, err := h.svc.UpdateChecklist(c.Request().Context(), principal(c), id, op)
	if err != nil {
		return apierr.HTTP(err)
	}
	return c.JSON(http.StatusOK, ToChecklistRead(cl))
}

func (h *Handler) DeleteChecklist(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.svc.DeleteChecklist(c.Request().Context(), principal(c), id); err != nil {
		return apierr.HTTP(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// -- Checklist Line Handlers --

func (h *Handler) CreateLine(c echo.Context) error {
	var w LineWrite
	if err := c.Bind(&w); err != nil {
		return apierr.BadRequest("malformed request body")
	}
	l, err := FromLineWrite(w)
	if err != nil {
		return apierr.HTTP(err)
	}
	created, err := h.svc.CreateLine(c.Request().Context(), principal(c), l)
	if err != nil {
		return apierr.HTTP(err)
	}
	return c.JSON(http.StatusCreated, ToLineRead(created))
}

func (h *Handler) GetLine(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	l, err := h.svc.GetLine(c.Request().Context(), principal(c), id)
	if err != nil {
		return apierr.HTTP(err)
	}
	return c.JSON(http.StatusOK, ToLineRead(l))
}

func (h *Handler) ListLines(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListLines(c.Request().Context(), principal(c), pg.Limit, pg.Offset)
	if err != nil {
		return apierr.HTTP(err)
	}
	views := make([]ChecklistLineRead, 0, len(items))
	for _, l := range items {
		views = append(views, ToLineRead(l))
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(views, total, pg.Limit, pg.Offset))
}

func (h *Handler) UpdateLine(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var w LineWrite
	if err := c.Bind(&w); err != nil {
		return apierr.BadRequest("malformed request body")
	}
	return h.saveLine(c, id, w)
}

func (h *Handler) PatchLine(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	existing, err := h.svc.GetLine(c.Request().Context(), principal(c), id)
	if err != nil {
		return apierr.HTTP(err)
	}
	w := ToLineWrite(existing)
	if err := c.Bind(&w); err != nil {
		return apierr.BadRequest("malformed request body")
	}
	return h.saveLine(c, id, w)
}

func (h *Handler) saveLine(c echo.Context, id uuid.UUID, w LineWrite) error {
	l, err := FromLineWrite(w)
	if err != nil {
		return apierr.HTTP(err)
	}
	updated, err := h.svc.UpdateLine(c.Request().Context(), principal(c), id, l)
	if err != nil {
		return apierr.HTTP(err)
	}
	return c.JSON(http.StatusOK, ToLineRead(updated))
}

func (h *Handler) DeleteLine(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.svc.DeleteLine(c.Request().Context(), principal(c), id); err != nil {
		return apierr.HTTP(err)
	}
	return c.NoContent(http.StatusNoContent)
}
