package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/gelson35/GestaoSaude-backend/internal/platform/auth"
)

// AuditEntry describes one access to an /api/v1 resource.
type AuditEntry struct {
	Timestamp    time.Time
	RequestID    string
	UserID       string
	Registration string
	AccessLevel  string
	Resource     string
	RecordID     string
	Action       string
	Method       string
	Path         string
	IPAddress    string
	StatusCode   int
}

// AuditRecorder persists audit entries beyond the log stream.
type AuditRecorder interface {
	RecordAccess(entry AuditEntry) error
}

type AuditRecorderFunc func(entry AuditEntry) error

func (f AuditRecorderFunc) RecordAccess(entry AuditEntry) error { return f(entry) }

// Audit logs every /api/v1 request after the handler ran, with the caller's
// registration id and the collection touched. Patient records and incidents
// are sensitive, so reads are audited as well as writes.
func Audit(logger zerolog.Logger, recorders ...AuditRecorder) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if !strings.HasPrefix(req.URL.Path, "/api/v1/") {
				return next(c)
			}

			err := next(c)

			status := c.Response().Status
			if he, ok := err.(*echo.HTTPError); ok {
				status = he.Code
			}
			entry := AuditEntry{
				Timestamp:   time.Now().UTC(),
				Method:      req.Method,
				Path:        req.URL.Path,
				IPAddress:   c.RealIP(),
				StatusCode:  status,
				Action:      methodToAction(req.Method),
				AccessLevel: auth.AccessNone,
			}
			entry.RequestID, _ = c.Get("request_id").(string)
			entry.Resource, entry.RecordID = splitResource(req.URL.Path)
			if p := auth.PrincipalFromContext(req.Context()); p != nil {
				entry.UserID = p.UserID.String()
				entry.Registration = p.Registration
				entry.AccessLevel = auth.AccessLevel(p.IsManagement, p.IsClinical)
			}

			for _, r := range recorders {
				if r == nil {
					continue
				}
				if recErr := r.RecordAccess(entry); recErr != nil {
					logger.Error().Err(recErr).Str("request_id", entry.RequestID).Msg("failed to record audit entry")
				}
			}

			logger.Info().
				Str("type", "audit").
				Str("request_id", entry.RequestID).
				Str("user_id", entry.UserID).
				Str("matricula", entry.Registration).
				Str("nivel_acesso", entry.AccessLevel).
				Str("resource", entry.Resource).
				Str("record_id", entry.RecordID).
				Str("action", entry.Action).
				Str("method", entry.Method).
				Str("path", entry.Path).
				Str("remote_ip", entry.IPAddress).
				Int("status", entry.StatusCode).
				Msg("access")

			return err
		}
	}
}

func methodToAction(method string) string {
	switch method {
	case http.MethodPost:
		return "create"
	case http.MethodPut, http.MethodPatch:
		return "update"
	case http.MethodDelete:
		return "delete"
	default:
		return "read"
	}
}

// splitResource turns /api/v1/ocorrencias/<uuid>/... into ("ocorrencias", "<uuid>").
func splitResource(path string) (resource, id string) {
	segments := strings.Split(strings.TrimPrefix(path, "/api/v1/"), "/")
	resource = segments[0]
	if resource == "" {
		resource = "unknown"
	}
	if len(segments) > 1 {
		if _, err := uuid.Parse(segments[1]); err == nil {
			id = segments[1]
		}
	}
	return resource, id
}
