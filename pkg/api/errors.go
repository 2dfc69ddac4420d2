package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	ierrors "github.com/aldergate-legal/core/internal/errors"
)

// writeError maps the shared error taxonomy (internal/errors.Kind) onto
// an HTTP status and writes a JSON error body, following tarsy
// handlers.go's gin.H{"error": ...} convention.
func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch ierrors.KindOf(err) {
	case ierrors.KindNotFound:
		status = http.StatusNotFound
	case ierrors.KindValidation:
		status = http.StatusBadRequest
	case ierrors.KindConflict:
		status = http.StatusConflict
	case ierrors.KindPermissionDenied:
		status = http.StatusForbidden
	case ierrors.KindUpstreamTransient, ierrors.KindUpstreamService:
		status = http.StatusBadGateway
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
