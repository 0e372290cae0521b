package patient

import (
	"context"
	"net/http"

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
	patients := api.Group("/pacientes", auth.ClinicalSafe())
	patients.POST("", h.CreatePatient)
	patients.GET("", h.ListPatients)
	patients.GET("/:id", h.GetPatient)
	patients.PUT("/:id", h.UpdatePatient)
	patients.PATCH("/:id", h.PatchPatient)
	patients.DELETE("/:id", h.DeletePatient)

	detailRoutes[Belongings]{
		get:    h.svc.GetBelongings,
		insert: h.svc.CreateBelongings,
		upsert: h.svc.UpsertBelongings,
		del:    h.svc.DeleteBelongings,
		list:   h.svc.ListBelongings,
		key:    func(b *Belongings) *uuid.UUID { return &b.PatientID },
	}.register(api.Group("/pertences", auth.ClinicalSafe()))

	detailRoutes[ClinicalInfo]{
		get:    h.svc.GetClinicalInfo,
		insert: h.svc.CreateClinicalInfo,
		upsert: h.svc.UpsertClinicalInfo,
		del:    h.svc.DeleteClinicalInfo,
		list:   h.svc.ListClinicalInfo,
		key:    func(c *ClinicalInfo) *uuid.UUID { return &c.PatientID },
	}.register(api.Group("/info-clinicas", auth.ClinicalSafe()))

	detailRoutes[SpecificData]{
		get:    h.svc.GetSpecificData,
		insert: h.svc.CreateSpecificData,
		upsert: h.svc.UpsertSpecificData,
		del:    h.svc.DeleteSpecificData,
		list:   h.svc.ListSpecificData,
		key:    func(s *SpecificData) *uuid.UUID { return &s.PatientID },
	}.register(api.Group("/dados-especificos", auth.ClinicalSafe()))
}

func parseID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, apierr.BadRequest("invalid id")
	}
	return id, nil
}

// -- Patient Handlers --

func (h *Handler) CreatePatient(c echo.Context) error {
	var w PatientWrite
	if err := c.Bind(&w); err != nil {
		return apierr.BadRequest("malformed request body")
	}
	op, verr := w.Validate(false)
	if verr != nil {
		return apierr.HTTP(verr)
	}
	p, err := h.svc.CreatePatient(c.Request().Context(), op)
	if err != nil {
		return apierr.HTTP(err)
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) GetPatient(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	p, err := h.svc.GetPatient(c.Request().Context(), id)
	if err != nil {
		return apierr.HTTP(err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) ListPatients(c echo.Context) error {
	pg := pagination.FromContext(c)
	var f Filter
	if v := c.QueryParam("ocorrencia"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return apierr.HTTP(apierr.NewValidationError("ocorrencia", "must be a valid UUID"))
		}
		f.IncidentID = &id
	}
	items, total, err := h.svc.ListPatients(c.Request().Context(), f, pg.Limit, pg.Offset)
	if err != nil {
		return apierr.HTTP(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) UpdatePatient(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var w PatientWrite
	if err := c.Bind(&w); err != nil {
		return apierr.BadRequest("malformed request body")
	}
	return h.savePatient(c, id, w)
}

func (h *Handler) PatchPatient(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	existing, err := h.svc.GetPatient(c.Request().Context(), id)
	if err != nil {
		return apierr.HTTP(err)
	}
	w := ToPatientWrite(existing.Patient)
	if err := c.Bind(&w); err != nil {
		return apierr.BadRequest("malformed request body")
	}
	return h.savePatient(c, id, w)
}

func (h *Handler) savePatient(c echo.Context, id uuid.UUID, w PatientWrite) error {
	op, verr := w.Validate(false)
	if verr != nil {
		return apierr.HTTP(verr)
	}
	p, err := h.svc.UpdatePatient(c.Request().Context(), id, op)
	if err != nil {
		return apierr.HTTP(err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) DeletePatient(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.svc.DeletePatient(c.Request().Context(), id); err != nil {
		return apierr.HTTP(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// -- Detail Record Handlers --

// detailRoutes serves one of the one-to-one patient records. The path id is
// the patient id. POST only creates; PUT and PATCH upsert.
type detailRoutes[T any] struct {
	get    func(ctx context.Context, patientID uuid.UUID) (*T, error)
	insert func(ctx context.Context, rec *T) error
	upsert func(ctx context.Context, rec *T) error
	del    func(ctx context.Context, patientID uuid.UUID) error
	list   func(ctx context.Context, limit, offset int) ([]*T, int, error)
	key    func(rec *T) *uuid.UUID
}

func (d detailRoutes[T]) register(g *echo.Group) {
	g.POST("", d.create)
	g.GET("", d.index)
	g.GET("/:id", d.show)
	g.PUT("/:id", d.replace)
	g.PATCH("/:id", d.patch)
	g.DELETE("/:id", d.destroy)
}

func (d detailRoutes[T]) create(c echo.Context) error {
	rec := new(T)
	if err := c.Bind(rec); err != nil {
		return apierr.BadRequest("malformed request body")
	}
	if err := d.insert(c.Request().Context(), rec); err != nil {
		return apierr.HTTP(err)
	}
	return c.JSON(http.StatusCreated, rec)
}

func (d detailRoutes[T]) index(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := d.list(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return apierr.HTTP(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (d detailRoutes[T]) show(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	rec, err := d.get(c.Request().Context(), id)
	if err != nil {
		return apierr.HTTP(err)
	}
	return c.JSON(http.StatusOK, rec)
}

func (d detailRoutes[T]) replace(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	rec := new(T)
	if err := c.Bind(rec); err != nil {
		return apierr.BadRequest("malformed request body")
	}
	return d.save(c, id, rec)
}

func (d detailRoutes[T]) patch(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	rec, err := d.get(c.Request().Context(), id)
	if err != nil {
		return apierr.HTTP(err)
	}
	if err := c.Bind(rec); err != nil {
		return apierr.BadRequest("malformed request body")
	}
	return d.save(c, id, rec)
}

func (d detailRoutes[T]) save(c echo.Context, id uuid.UUID, rec *T) error {
	*d.key(rec) = id
	if err := d.upsert(c.Request().Context(), rec); err != nil {
		return apierr.HTTP(err)
	}
	return c.JSON(http.StatusOK, rec)
}

func (d detailRoutes[T]) destroy(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := d.del(c.Request().Context(), id); err != nil {
		return apierr.HTTP(err)
	}
	return c.NoContent(http.StatusNoContent)
}
