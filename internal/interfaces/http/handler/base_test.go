package handler

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fieldservice/backend/internal/domain/shared"
	"github.com/fieldservice/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBaseHandler_HandleError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		code    string
		message string
	}{
		{
			name:    "validation",
			err:     shared.NewValidationError("NO_LINES_SELECTED", "No line items selected to bill."),
			status:  http.StatusBadRequest,
			code:    "NO_LINES_SELECTED",
			message: "No line items selected to bill.",
		},
		{
			name:    "not found wrapped",
			err:     fmt.Errorf("load estimate: %w", shared.NewNotFoundError("ESTIMATE_NOT_FOUND", "Estimate not found")),
			status:  http.StatusNotFound,
			code:    "ESTIMATE_NOT_FOUND",
			message: "Estimate not found",
		},
		{
			name:    "conflict",
			err:     shared.NewConflictError("CIRCULAR_BUNDLE", "Circular bundle reference detected"),
			status:  http.StatusConflict,
			code:    "CIRCULAR_BUNDLE",
			message: "Circular bundle reference detected",
		},
		{
			name:    "invalid state",
			err:     shared.NewInvalidStateError("", "Estimate already converted"),
			status:  http.StatusUnprocessableEntity,
			code:    dto.ErrCodeInvalidState,
			message: "Estimate already converted",
		},
		{
			name:    "unknown error is hidden",
			err:     errBoom,
			status:  http.StatusInternalServerError,
			code:    dto.ErrCodeInternal,
			message: "An unexpected error occurred",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			h := &BaseHandler{}
			h.HandleError(c, tt.err)

			assert.Equal(t, tt.status, w.Code)
			resp := envelope(t, w, nil)
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
			assert.Equal(t, tt.message, resp.Error.Message)
			assert.NotContains(t, w.Body.String(), "connection reset")
		})
	}
}

func TestBaseHandler_HandleError_Nil(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	(&BaseHandler{}).HandleError(c, nil)
	assert.Empty(t, w.Body.String())
}
