package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", NotFound("missing", nil), http.StatusNotFound},
		{"validation", ValidationError("bad thresholds", nil), http.StatusBadRequest},
		{"invalid input", InvalidInput("bad json", nil), http.StatusBadRequest},
		{"unauthorized", Unauthorized("no token", nil), http.StatusUnauthorized},
		{"service", ServiceError("lookup failed", nil), http.StatusBadGateway},
		{"database", DatabaseError("insert failed", nil), http.StatusInternalServerError},
		{"wrapped", fmt.Errorf("outer: %w", NotFound("inner", nil)), http.StatusNotFound},
		{"plain", fmt.Errorf("plain"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := fmt.Errorf("root cause")
	err := DatabaseError("save failed", cause).WithOperation("Save").WithDetails("reservation res-1")

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "Save", err.Operation)
	assert.Contains(t, err.Error(), "DATABASE_ERROR")
	assert.True(t, IsCode(err, ErrCodeDatabaseError))
	assert.False(t, IsCode(cause, ErrCodeDatabaseError))
}
