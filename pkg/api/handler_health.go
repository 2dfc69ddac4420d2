package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// healthHandler handles GET /health. It is intentionally shallow: a
// process-liveness check, not a dependency health check, so an external
// orchestrator never restarts the process because the legislation
// service or the LLM provider is degraded (pkg/legislation.HealthManager
// already tracks that independently).
func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
