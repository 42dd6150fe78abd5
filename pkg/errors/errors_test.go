package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want int
	}{
		{"not found", NewNotFound("action", nil), http.StatusNotFound},
		{"bad request", NewBadRequest("invalid id", nil), http.StatusBadRequest},
		{"validation", NewValidation("targetOrgId", "targetOrgId is required"), http.StatusBadRequest},
		{"conflict", NewConflict("illegal transition", nil), http.StatusConflict},
		{"unauthorized", Unauthorized(nil), http.StatusUnauthorized},
		{"forbidden", Forbidden("role not allowed"), http.StatusForbidden},
		{"internal", NewInternal(stderrors.New("boom")), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.HTTPStatus())
		})
	}
}

func TestAsFindsWrappedError(t *testing.T) {
	wrapped := fmt.Errorf("failed to update action: %w", NewNotFound("action", nil))

	appErr, ok := As(wrapped)
	assert.True(t, ok)
	assert.Equal(t, ErrNotFound, appErr.Code)
	assert.True(t, IsNotFound(wrapped))
	assert.False(t, IsConflict(wrapped))

	_, ok = As(stderrors.New("plain"))
	assert.False(t, ok)
}

func TestErrorMessageIncludesCause(t *testing.T) {
	err := NewConflict("organization code already exists", stderrors.New("duplicate key"))
	assert.Equal(t, "organization code already exists: duplicate key", err.Error())
	assert.Equal(t, "organization code already exists", NewConflict("organization code already exists", nil).Error())
}
