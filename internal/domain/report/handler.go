package report

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/gelson35/GestaoSaude-backend/internal/platform/apierr"
	"github.com/gelson35/GestaoSaude-backend/internal/platform/auth"
	"github.com/gelson35/GestaoSaude-backend/pkg/civil"
	"github.com/gelson35/GestaoSaude-backend/pkg/pagination"
)

const mimeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/relatorios", auth.ManagementOnly())
	g.POST("", h.Create)
	g.GET("", h.List)
	g.POST("/gerar", h.Generate)
	g.GET("/:id", h.Get)
	g.GET("/:id/xlsx", h.Export)
	g.PUT("/:id", h.Update)
	g.PATCH("/:id", h.Patch)
	g.DELETE("/:id", h.Delete)
}

func parseID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, apierr.BadRequest("invalid id")
	}
	return id, nil
}

func queryDate(c echo.Context, name string) (*civil.Date, error) {
	v := c.QueryParam(name)
	if v == "" {
		return nil, nil
	}
	d, err := civil.ParseDate(v)
	if err != nil {
		return nil, apierr.HTTP(apierr.NewValidationError(name, "date has wrong format, use YYYY-MM-DD"))
	}
	return &d, nil
}

func (h *Handler) Create(c echo.Context) error {
	var w ReportWrite
	if err := c.Bind(&w); err != nil {
		return apierr.BadRequest("malformed request body")
	}
	r := w.Report()
	if err := h.svc.Create(c.Request().Context(), r); err != nil {
		return apierr.HTTP(err)
	}
	return c.JSON(http.StatusCreated, r)
}

func (h *Handler) Generate(c echo.Context) error {
	var req GenerateRequest
	if err := c.Bind(&req); err != nil {
		return apierr.BadRequest("malformed request body")
	}
	r, err := h.svc.Generate(c.Request().Context(), req)
	if err != nil {
		return apierr.HTTP(err)
	}
	return c.JSON(http.StatusCreated, r)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	r, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return apierr.HTTP(err)
	}
	return c.JSON(http.StatusOK, r)
}

func (h *Handler) Export(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	data, name, err := h.svc.Export(c.Request().Context(), id)
	if err != nil {
		return apierr.HTTP(err)
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", name))
	return c.Blob(http.StatusOK, mimeXLSX, data)
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)
	f := Filter{Type: c.QueryParam("tipo_relatorio")}
	var err error
	if f.From, err = queryDate(c, "desde"); err != nil {
		return err
	}
	if f.To, err = queryDate(c, "ate"); err != nil {
		return err
	}
	items, total, err := h.svc.List(c.Request().Context(), f, pg.Limit, pg.Offset)
	if err != nil {
		return apierr.HTTP(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) Update(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var w ReportWrite
	if err := c.Bind(&w); err != nil {
		return apierr.BadRequest("malformed request body")
	}
	return h.save(c, id, w)
}

func (h *Handler) Patch(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	existing, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return apierr.HTTP(err)
	}
	w := ToReportWrite(existing)
	if err := c.Bind(&w); err != nil {
		return apierr.BadRequest("malformed request body")
	}
	return h.save(c, id, w)
}

func (h *Handler) save(c echo.Context, id uuid.UUID, w ReportWrite) error {
	r := w.Report()
	r.ID = id
	if err := h.svc.Update(c.Request().Context(), r); err != nil {
		return apierr.HTTP(err)
	}
	updated, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return apierr.HTTP(err)
	}
	return c.JSON(http.StatusOK, updated)
}

func (h *Handler) Delete(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return apierr.HTTP(err)
	}
	return c.NoContent(http.StatusNoContent)
}
