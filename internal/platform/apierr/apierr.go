// Package apierr defines the error values services return and their mapping
// onto HTTP responses.
package apierr

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/labstack/echo/v4"
)

var (
	ErrUnauthenticated = errors.New("authentication credentials were not provided or are invalid")
	ErrForbidden       = errors.New("you do not have permission to perform this action")
	ErrNotFound        = errors.New("not found")
	ErrProtected       = errors.New("record is referenced by other records and cannot be deleted")
)

// ValidationError collects field-level messages. The key "non_field_errors"
// holds messages that concern the payload as a whole.
type ValidationError struct {
	Fields map[string][]string
}

func NewValidationError(field, msg string) *ValidationError {
	v := &ValidationError{}
	v.Add(field, msg)
	return v
}

func (v *ValidationError) Add(field, msg string) {
	if v.Fields == nil {
		v.Fields = make(map[string][]string)
	}
	v.Fields[field] = append(v.Fields[field], msg)
}

func (v *ValidationError) Empty() bool { return v == nil || len(v.Fields) == 0 }

// Err returns v as an error, or nil when no field was added.
func (v *ValidationError) Err() error {
	if v.Empty() {
		return nil
	}
	return v
}

// Merge copies other's messages under prefix ("pacientes.0.").
func (v *ValidationError) Merge(prefix string, other *ValidationError) {
	if other.Empty() {
		return
	}
	for field, msgs := range other.Fields {
		for _, m := range msgs {
			v.Add(prefix+field, m)
		}
	}
}

func (v *ValidationError) Error() string {
	keys := make([]string, 0, len(v.Fields))
	for k := range v.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, strings.Join(v.Fields[k], "; ")))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

// ConflictError reports a uniqueness violation on Fields.
type ConflictError struct {
	Fields []string
}

func (c *ConflictError) Error() string {
	return fmt.Sprintf("a record with the same %s already exists", strings.Join(c.Fields, ", "))
}

// Body is the JSON envelope of every error response.
type Body struct {
	Message string              `json:"message"`
	Fields  map[string][]string `json:"fields,omitempty"`
}

// HTTP converts err to an *echo.HTTPError. Unknown errors become 500s with
// the cause kept in Internal for the logger.
func HTTP(err error) *echo.HTTPError {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he
	}

	var verr *ValidationError
	if errors.As(err, &verr) {
		return echo.NewHTTPError(http.StatusBadRequest, Body{Message: "validation failed", Fields: verr.Fields})
	}

	var cerr *ConflictError
	if errors.As(err, &cerr) {
		fields := make(map[string][]string, len(cerr.Fields))
		for _, f := range cerr.Fields {
			fields[f] = []string{"must be unique"}
		}
		return echo.NewHTTPError(http.StatusConflict, Body{Message: cerr.Error(), Fields: fields})
	}

	switch {
	case errors.Is(err, ErrUnauthenticated):
		return echo.NewHTTPError(http.StatusUnauthorized, Body{Message: ErrUnauthenticated.Error()})
	case errors.Is(err, ErrForbidden):
		return echo.NewHTTPError(http.StatusForbidden, Body{Message: ErrForbidden.Error()})
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, Body{Message: ErrNotFound.Error()})
	case errors.Is(err, ErrProtected):
		return echo.NewHTTPError(http.StatusConflict, Body{Message: err.Error()})
	}

	return echo.NewHTTPError(http.StatusInternalServerError, Body{Message: "internal server error"}).SetInternal(err)
}

// BadRequest is the response for malformed bodies and path parameters.
func BadRequest(msg string) *echo.HTTPError {
	return echo.NewHTTPError(http.StatusBadRequest, Body{Message: msg})
}
