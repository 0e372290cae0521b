package incident

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/gelson35/GestaoSaude-backend/internal/platform/apierr"
	"github.com/gelson35/GestaoSaude-backend/internal/platform/auth"
	"github.com/gelson35/GestaoSaude-backend/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	incidents := api.Group("/ocorrencias", auth.ClinicalSafe())
	incidents.POST("", h.CreateIncident)
	incidents.GET("", h.ListIncidents)
	incidents.GET("/:id", h.GetIncident)
	incidents.PUT("/:id", h.UpdateIncident)
	incidents.PATCH("/:id", h.PatchIncident)
	incidents.DELETE("/:id", h.DeleteIncident)

	locations := api.Group("/localizacoes", auth.ClinicalSafe())
	locations.POST("", h.CreateLocation)
	locations.GET("", h.ListLocations)
	locations.GET("/:id", h.GetLocation)
	locations.PUT("/:id", h.UpdateLocation)
	locations.PATCH("/:id", h.PatchLocation)
	locations.DELETE("/:id", h.DeleteLocation)

	materials := api.Group("/materiais-utilizados", auth.ClinicalSafe())
	materials.POST("", h.CreateMaterial)
	materials.GET("", h.ListMaterials)
	materials.GET("/:id", h.GetMaterial)
	materials.PUT("/:id", h.UpdateMaterial)
	materials.PATCH("/:id", h.PatchMaterial)
	materials.DELETE("/:id", h.DeleteMaterial)

	support := api.Group("/apoios-ocorrencia", auth.ClinicalSafe())
	support.POST("", h.CreateSupport)
	support.GET("", h.ListSupport)
	support.GET("/:id", h.GetSupport)
	support.PUT("/:id", h.UpdateSupport)
	support.PATCH("/:id", h.PatchSupport)
	support.DELETE("/:id", h.DeleteSupport)
}

func parseID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, apierr.BadRequest("invalid id")
	}
	return id, nil
}

func queryUUID(c echo.Context, name string) (*uuid.UUID, error) {
	v := c.QueryParam(name)
	if v == "" {
		return nil, nil
	}
	id, err := uuid.Parse(v)
	if err != nil {
		return nil, apierr.HTTP(apierr.NewValidationError(name, "must be a valid UUID"))
	}
	return &id, nil
}

func principal(c echo.Context) *auth.Principal {
	return auth.PrincipalFromContext(c.Request().Context())
}

// -- Incident Handlers --

func (h *Handler) CreateIncident(c echo.Context) error {
	var w IncidentWrite
	if err := c.Bind(&w); err != nil {
		return apierr.BadRequest("malformed request body")
	}
	op, err := w.Validate(true)
	if err != nil {
		return apierr.HTTP(err)
	}
	inc, err := h.svc.CreateIncident(c.Request().Context(), op)
	if err != nil {
		return apierr.HTTP(err)
	}
	return c.JSON(http.StatusCreated, inc)
}

func (h *Handler) GetIncident(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	inc, err := h.svc.GetIncident(c.Request().Context(), id)
	if err != nil {
		return apierr.HTTP(err)
	}
	return c.JSON(http.StatusOK, inc)
}

func (h *Handler) ListIncidents(c echo.Context) error {
	pg := pagination.FromContext(c)
	var f Filter
	teamID, err := queryUUID(c, "equipe")
	if err != nil {
		return err
	}
	f.TeamID = teamID
	if v := c.QueryParam("finalizada"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return apierr.HTTP(apierr.NewValidationError("finalizada", "must be true or false"))
		}
		f.Finalized = &b
	}
	items, total, err := h.svc.ListIncidents(c.Request().Context(), f, pg.Limit, pg.Offset)
	if err != nil {
		return apierr.HTTP(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) UpdateIncident(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var w IncidentWrite
	if err := c.Bind(&w); err != nil {
		return apierr.BadRequest("malformed request body")
	}
	return h.saveIncident(c, id, w)
}

func (h *Handler) PatchIncident(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	existing, err := h.svc.GetIncidentRecord(c.Request().Context(), id)
	if err != nil {
		return apierr.HTTP(err)
	}
	w := ToIncidentWrite(existing)
	if err := c.Bind(&w); err != nil {
		return apierr.BadRequest("malformed request body")
	}
	return h.saveIncident(c, id, w)
}

func (h *Handler) saveIncident(c echo.Context, id uuid.UUID, w IncidentWrite) error {
	op, err := w.Validate(false)
	if err != nil {
		return apierr.HTTP(err)
	}
	inc, err := h.svc.UpdateIncident(c.Request().Context(), id, op)
	if err != nil {
		return apierr.HTTP(err)
	}
	return c.JSON(http.StatusOK, inc)
}

func (h *Handler) DeleteIncident(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.svc.DeleteIncident(c.Request().Context(), id); err != nil {
		return apierr.HTTP(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// -- Location Handlers --

func (h *Handler) CreateLocation(c echo.Context) error {
	var l Location
	if err := c.Bind(&l); err != nil {
		return apierr.BadRequest("malformed request body")
	}
	if err := h.svc.CreateLocation(c.Request().Context(), &l); err != nil {
		return apierr.HTTP(err)
	}
	return c.JSON(http.StatusCreated, l)
}

func (h *Handler) GetLocation(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	l, err := h.svc.GetLocation(c.Request().Context(), id)
	if err != nil {
		return apierr.HTTP(err)
	}
	return c.JSON(http.StatusOK, l)
}

func (h *Handler) ListLocations(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListLocations(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return apierr.HTTP(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) UpdateLocation(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var l Location
	if err := c.Bind(&l); err != nil {
		return apierr.BadRequest("malformed request body")
	}
	l.ID = id
	if err := h.svc.UpdateLocation(c.Request().Context(), &l); err != nil {
		return apierr.HTTP(err)
	}
	return c.JSON(http.StatusOK, l)
}

func (h *Handler) PatchLocation(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	l, err := h.svc.GetLocation(c.Request().Context(), id)
	if err != nil {
		return apierr.HTTP(err)
	}
	if err := c.Bind(l); err != nil {
		return apierr.BadRequest("malformed request body")
	}
	l.ID = id
	if err := h.svc.UpdateLocation(c.Request().Context(), l); err != nil {
		return apierr.HTTP(err)
	}
	return c.JSON(http.StatusOK, l)
}

func (h *Handler) DeleteLocation(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.svc.DeleteLocation(c.Request().Context(), id); err != nil {
		return apierr.HTTP(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// -- Material Used Handlers --

func (h *Handler) CreateMaterial(c echo.Context) error {
	var w MaterialWrite
	if err := c.Bind(&w); err != nil {
		return apierr.BadRequest("malformed request body")
	}
	m, err := w.Validate()
	if err != nil {
		return apierr.HTTP(err)
	}
	created, err := h.svc.RecordMaterial(c.Request().Context(), principal(c), m)
	if err != nil {
		return apierr.HTTP(err)
	}
	return c.JSON(http.StatusCreated, created)
}

func (h *Handler) GetMaterial(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	m, err := h.svc.GetMaterial(c.Request().Context(), principal(c), id)
	if err != nil {
		return apierr.HTTP(err)
	}
	return c.JSON(http.StatusOK, m)
}

func (h *Handler) ListMaterials(c echo.Context) error {
	pg := pagination.FromContext(c)
	incidentID, err := queryUUID(c, "ocorrencia")
	if err != nil {
		return err
	}
	items, total, err := h.svc.ListMaterials(c.Request().Context(), principal(c), incidentID, pg.Limit, pg.Offset)
	if err != nil {
		return apierr.HTTP(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) UpdateMaterial(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var w MaterialWrite
	if err := c.Bind(&w); err != nil {
		return apierr.BadRequest("malformed request body")
	}
	return h.saveMaterial(c, id, w)
}

func (h *Handler) PatchMaterial(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	existing, err := h.svc.GetMaterial(c.Request().Context(), principal(c), id)
	if err != nil {
		return apierr.HTTP(err)
	}
	w := ToMaterialWrite(existing)
	if err := c.Bind(&w); err != nil {
		return apierr.BadRequest("malformed request body")
	}
	return h.saveMaterial(c, id, w)
}

func (h *Handler) saveMaterial(c echo.Context, id uuid.UUID, w MaterialWrite) error {
	m, err := w.Validate()
	if err != nil {
		return apierr.HTTP(err)
	}
	updated, err := h.svc.UpdateMaterial(c.Request().Context(), principal(c), id, m)
	if err != nil {
		return apierr.HTTP(err)
	}
	return c.JSON(http.StatusOK, updated)
}

func (h *Handler) DeleteMaterial(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.svc.DeleteMaterial(c.Request().Context(), principal(c), id); err != nil {
		return apierr.HTTP(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// -- Support Vehicle Handlers --

func (h *Handler) CreateSupport(c echo.Context) error {
	var sv SupportVehicle
	if err := c.Bind(&sv); err != nil {
		return apierr.BadRequest("malformed request body")
	}
	created, err := h.svc.CreateSupport(c.Request().Context(), &sv)
	if err != nil {
		return apierr.HTTP(err)
	}
	return c.JSON(http.StatusCreated, created)
}

func (h *Handler) GetSupport(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	sv, err := h.svc.GetSupport(c.Request().Context(), id)
	if err != nil {
		return apierr.HTTP(err)
	}
	return c.JSON(http.StatusOK, sv)
}

func (h *Handler) ListSupport(c echo.Context) error {
	pg := pagination.FromContext(c)
	incidentID, err := queryUUID(c, "ocorrencia_mestre")
	if err != nil {
		return err
	}
	items, total, err := h.svc.ListSupport(c.Request().Context(), incidentID, pg.Limit, pg.Offset)
	if err != nil {
		return apierr.HTTP(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) UpdateSupport(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var sv SupportVehicle
	if err := c.Bind(&sv); err != nil {
		return apierr.BadRequest("malformed request body")
	}
	sv.ID = id
	updated, err := h.svc.UpdateSupport(c.Request().Context(), &sv)
	if err != nil {
		return apierr.HTTP(err)
	}
	return c.JSON(http.StatusOK, updated)
}

func (h *Handler) PatchSupport(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	sv, err := h.svc.GetSupport(c.Request().Context(), id)
	if err != nil {
		return apierr.HTTP(err)
	}
	if err := c.Bind(sv); err != nil {
		return apierr.BadRequest("malformed request body")
	}
	sv.ID = id
	updated, err := h.svc.UpdateSupport(c.Request().Context(), sv)
	if err != nil {
		return apierr.HTTP(err)
	}
	return c.JSON(http.StatusOK, updated)
}

func (h *Handler) DeleteSupport(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.svc.DeleteSupport(c.Request().Context(), id); err != nil {
		return apierr.HTTP(err)
	}
	return c.NoContent(http.StatusNoContent)
}
