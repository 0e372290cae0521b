package identity

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/samber/lo"

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

// RegisterPublic mounts the token endpoint outside the API group.
func (h *Handler) RegisterPublic(e *echo.Echo) {
	e.POST("/auth/token", h.Token)
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	session := api.Group("/auth", auth.RequireAuthenticated())
	session.POST("/logout", h.Logout)
	session.GET("/me", h.Me)

	users := api.Group("/usuarios", auth.ManagementOnly())
	users.GET("", h.ListUsers)
	users.GET("/:id", h.GetUser)

	api.GET("/grupos", h.ListGroups, auth.RequireAuthenticated())
}

func (h *Handler) Token(c echo.Context) error {
	var req TokenRequest
	if err := c.Bind(&req); err != nil {
		return apierr.BadRequest("malformed request body")
	}
	v := &apierr.ValidationError{}
	if req.Registration == "" {
		v.Add("matricula", "this field is required")
	}
	if req.Password == "" {
		v.Add("password", "this field is required")
	}
	if err := v.Err(); err != nil {
		return apierr.HTTP(err)
	}
	resp, err := h.svc.Login(c.Request().Context(), req.Registration, req.Password)
	if err != nil {
		return apierr.HTTP(err)
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *Handler) Logout(c echo.Context) error {
	if err := h.svc.Logout(c.Request().Context(), auth.PrincipalFromContext(c.Request().Context())); err != nil {
		return apierr.HTTP(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) Me(c echo.Context) error {
	p := auth.PrincipalFromContext(c.Request().Context())
	if p == nil {
		return apierr.HTTP(apierr.ErrUnauthenticated)
	}
	u, err := h.svc.GetUser(c.Request().Context(), p.UserID)
	if err != nil {
		return apierr.HTTP(err)
	}
	return c.JSON(http.StatusOK, ToMeRead(u))
}

func (h *Handler) ListUsers(c echo.Context) error {
	pg := pagination.FromContext(c)
	users, total, err := h.svc.ListUsers(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return apierr.HTTP(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(lo.Map(users, func(u *User, _ int) *UserRead {
		return ToUserRead(u)
	}), total, pg.Limit, pg.Offset))
}

func (h *Handler) GetUser(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apierr.BadRequest("invalid id")
	}
	u, err := h.svc.GetUser(c.Request().Context(), id)
	if err != nil {
		return apierr.HTTP(err)
	}
	return c.JSON(http.StatusOK, ToUserRead(u))
}

func (h *Handler) ListGroups(c echo.Context) error {
	groups, err := h.svc.ListGroups(c.Request().Context())
	if err != nil {
		return apierr.HTTP(err)
	}
	return c.JSON(http.StatusOK, lo.Map(groups, func(g Group, _ int) GroupRead { return GroupRead{Name: g.Name} }))
}
