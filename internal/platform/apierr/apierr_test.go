package apierr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTP_StatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"unauthenticated", ErrUnauthenticated, http.StatusUnauthorized},
		{"forbidden", fmt.Errorf("update checklist: %w", ErrForbidden), http.StatusForbidden},
		{"not found", fmt.Errorf("get: %w", ErrNotFound), http.StatusNotFound},
		{"protected", fmt.Errorf("%w: itens_inventario", ErrProtected), http.StatusConflict},
		{"validation", NewValidationError("status_final", "required"), http.StatusBadRequest},
		{"conflict", &ConflictError{Fields: []string{"num_reg_central"}}, http.StatusConflict},
		{"echo passthrough", echo.NewHTTPError(http.StatusTeapot, "x"), http.StatusTeapot},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, HTTP(tt.err).Code)
		})
	}
}

func TestHTTP_ValidationBodyCarriesFields(t *testing.T) {
	verr := NewValidationError("status_final", "required when finalizada is true")
	verr.Add("data_hora_finalizacao", "required when finalizada is true")

	he := HTTP(fmt.Errorf("create incident: %w", verr))
	body, ok := he.Message.(Body)
	require.True(t, ok)
	assert.Len(t, body.Fields, 2)
	assert.Contains(t, body.Fields, "status_final")
}

func TestValidationError_MergeAndErr(t *testing.T) {
	var v ValidationError
	assert.NoError(t, v.Err())

	inner := NewValidationError("idade", "must be positive")
	v.Merge("pacientes.0.", inner)
	require.Error(t, v.Err())
	assert.Equal(t, []string{"must be positive"}, v.Fields["pacientes.0.idade"])
}

func TestHTTP_InternalKeepsCause(t *testing.T) {
	cause := errors.New("connection reset")
	he := HTTP(cause)
	assert.ErrorIs(t, he.Internal, cause)
}
