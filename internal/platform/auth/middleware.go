package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/gelson35/GestaoSaude-backend/internal/platform/apierr"
)

// PrincipalLoader resolves a user id from a token into a Principal. It
// returns apierr.ErrNotFound for unknown users and apierr.ErrUnauthenticated
// for inactive ones.
type PrincipalLoader interface {
	LoadPrincipal(ctx context.Context, userID uuid.UUID) (*Principal, error)
}

type Config struct {
	Tokens  *TokenIssuer
	Revoked RevocationStore
	Loader  PrincipalLoader
	Skipper func(echo.Context) bool
}

func unauthenticated(msg string) error {
	return echo.NewHTTPError(http.StatusUnauthorized, apierr.Body{Message: msg})
}

// Authenticate resolves the bearer token into a Principal on the request
// context. Requests without an Authorization header continue anonymously so
// that the policies can answer 401 themselves and role-filtered listings can
// return empty results.
func Authenticate(cfg Config) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if cfg.Skipper != nil && cfg.Skipper(c) {
				return next(c)
			}

			header := c.Request().Header.Get("Authorization")
			if header == "" {
				return next(c)
			}
			scheme, token, ok := strings.Cut(header, " ")
			if !ok || !strings.EqualFold(scheme, "bearer") || strings.TrimSpace(token) == "" {
				return unauthenticated("invalid authorization format")
			}

			ctx := c.Request().Context()
			claims, err := cfg.Tokens.Parse(strings.TrimSpace(token))
			if err != nil {
				return unauthenticated("invalid token")
			}
			if cfg.Revoked != nil {
				revoked, err := cfg.Revoked.IsRevoked(ctx, claims.ID)
				if err != nil {
					return echo.NewHTTPError(http.StatusServiceUnavailable, apierr.Body{Message: "token store unavailable"}).SetInternal(err)
				}
				if revoked {
					return unauthenticated("token has been revoked")
				}
			}

			userID, err := claims.UserID()
			if err != nil {
				return unauthenticated("invalid token subject")
			}
			p, err := cfg.Loader.LoadPrincipal(ctx, userID)
			if err != nil {
				if errors.Is(err, apierr.ErrNotFound) || errors.Is(err, apierr.ErrUnauthenticated) {
					return unauthenticated("user not found or inactive")
				}
				return apierr.HTTP(err)
			}
			p.TokenID = claims.ID
			if claims.ExpiresAt != nil {
				p.TokenExpiresAt = claims.ExpiresAt.Time
			} else {
				p.TokenExpiresAt = time.Now()
			}

			c.Set("principal", p)
			c.SetRequest(c.Request().WithContext(WithPrincipal(ctx, p)))
			return next(c)
		}
	}
}
