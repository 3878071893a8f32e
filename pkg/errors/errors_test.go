package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorCodes(t *testing.T) {
	err := fmt.Errorf("lookup: %w", New(ErrCodeRoleNotFound, "role not found: ghost"))

	assert.True(t, IsCode(err, ErrCodeRoleNotFound))
	assert.True(t, IsNotFound(err))
	assert.False(t, IsInvalidArgument(err))
	assert.Equal(t, ErrCodeInternal, GetCode(fmt.Errorf("plain")))

	wrapped := InternalWrap(fmt.Errorf("db down"), "failed to list roles")
	assert.EqualError(t, wrapped, "[INTERNAL_ERROR] failed to list roles: db down")
	assert.Nil(t, Wrap(nil, ErrCodeInternal, "nothing"))
}

func TestToBody(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   ErrorCode
	}{
		{"InvalidRole", New(ErrCodeInvalidRole, "bad"), http.StatusBadRequest, ErrCodeInvalidRole},
		{"UserUnavailable", New(ErrCodeUserUnavailable, "gone"), http.StatusNotFound, ErrCodeUserUnavailable},
		{"Unavailable", Unavailable("no manager"), http.StatusServiceUnavailable, ErrCodeUnavailable},
		{"Wrapped", fmt.Errorf("x: %w", NotFound("user", "7")), http.StatusNotFound, ErrCodeNotFound},
		{"Unstructured", fmt.Errorf("secret detail"), http.StatusInternalServerError, ErrCodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := ToBody(tt.err)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantCode, body.Code)
			assert.NotContains(t, body.Error, "secret")
		})
	}

	_, body := ToBody(New(ErrCodeInvalidRole, "bad").WithDetail("role", "x"))
	assert.Equal(t, "x", body.Details["role"])
}
