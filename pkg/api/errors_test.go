package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	ierrors "github.com/aldergate-legal/core/internal/errors"
)

func TestWriteErrorMapsKindToStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"not found", ierrors.NotFound("conversation", "abc"), http.StatusNotFound},
		{"validation", ierrors.Validation("query", "must not be empty"), http.StatusBadRequest},
		{"conflict", ierrors.Conflict("already cancelled"), http.StatusConflict},
		{"upstream transient", ierrors.UpstreamTransient("legislation service", assert.AnError), http.StatusBadGateway},
		{"upstream service", ierrors.UpstreamService("legislation service", assert.AnError), http.StatusBadGateway},
		{"internal", ierrors.Internal("unexpected", assert.AnError), http.StatusInternalServerError},
		{"plain error defaults to internal", assert.AnError, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			writeError(c, tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}
