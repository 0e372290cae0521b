package auth

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/gelson35/GestaoSaude-backend/internal/platform/apierr"
)

func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}

// AllowManagementOnly admits management callers only.
func AllowManagementOnly(p *Principal) error {
	if p == nil {
		return apierr.ErrUnauthenticated
	}
	if !p.IsManagement {
		return apierr.ErrForbidden
	}
	return nil
}

// AllowClinicalSafe admits any authenticated caller for safe methods, clinical
// or management callers for POST and management callers for every other
// method.
func AllowClinicalSafe(p *Principal, method string) error {
	if p == nil {
		return apierr.ErrUnauthenticated
	}
	switch {
	case isSafeMethod(method):
		return nil
	case method == http.MethodPost:
		if p.IsClinical || p.IsManagement {
			return nil
		}
	case p.IsManagement:
		return nil
	}
	return apierr.ErrForbidden
}

// AllowAuthenticated admits any authenticated caller. It is the route-level
// half of owner-or-management; the object-level half is CheckOwner.
func AllowAuthenticated(p *Principal) error {
	if p == nil {
		return apierr.ErrUnauthenticated
	}
	return nil
}

// CheckOwner admits management callers and the record's owning user.
func CheckOwner(p *Principal, ownerID uuid.UUID) error {
	if p == nil {
		return apierr.ErrUnauthenticated
	}
	if p.IsManagement || p.UserID == ownerID {
		return nil
	}
	return apierr.ErrForbidden
}

func guard(check func(c echo.Context, p *Principal) error) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if err := check(c, PrincipalFromContext(c.Request().Context())); err != nil {
				return apierr.HTTP(err)
			}
			return next(c)
		}
	}
}

func ManagementOnly() echo.MiddlewareFunc {
	return guard(func(_ echo.Context, p *Principal) error { return AllowManagementOnly(p) })
}

func ClinicalSafe() echo.MiddlewareFunc {
	return guard(func(c echo.Context, p *Principal) error { return AllowClinicalSafe(p, c.Request().Method) })
}

// OwnerOrManagement guards routes whose mutations are checked per object
// with CheckOwner inside the service.
func OwnerOrManagement() echo.MiddlewareFunc {
	return guard(func(_ echo.Context, p *Principal) error { return AllowAuthenticated(p) })
}

func RequireAuthenticated() echo.MiddlewareFunc {
	return guard(func(_ echo.Context, p *Principal) error { return AllowAuthenticated(p) })
}

// RoleSplit guards a route group whose reads are open to any authenticated
// caller and whose writes require management.
func RoleSplit() echo.MiddlewareFunc {
	return guard(func(c echo.Context, p *Principal) error {
		if isSafeMethod(c.Request().Method) {
			return AllowAuthenticated(p)
		}
		return AllowManagementOnly(p)
	})
}
