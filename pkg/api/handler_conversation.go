package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/aldergate-legal/core/pkg/agent"
	"github.com/aldergate-legal/core/pkg/eventbus"
	"github.com/aldergate-legal/core/pkg/models"
)

// createConversationRequest is the body of POST /v1/conversations.
type createConversationRequest struct {
	TenantID   string `json:"tenant_id" binding:"required"`
	UserID     string `json:"user_id" binding:"required"`
	TemplateID string `json:"template_id"`
}

// createConversationHandler handles POST /v1/conversations.
func (s *Server) createConversationHandler(c *gin.Context) {
	var req createConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	now := time.Now()
	conv := &models.Conversation{
		ID:         uuid.New().String(),
		TenantID:   req.TenantID,
		UserID:     req.UserID,
		State:      models.ConversationPending,
		TemplateID: req.TemplateID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.conversations.Create(c.Request.Context(), conv); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, conv)
}

// invokeRequest is the body of POST /v1/conversations/:id/messages.
type invokeRequest struct {
	TenantID  string `json:"tenant_id" binding:"required"`
	UserID    string `json:"user_id" binding:"required"`
	Query     string `json:"query" binding:"required"`
	PersonaID string `json:"persona_id"`
}

// invokeHandler handles POST /v1/conversations/:id/messages. The agent
// pipeline (C5) runs for the lifetime of the invocation, well beyond any
// reasonable HTTP timeout, so this trigger detaches the pipeline run
// from the request context and returns as soon as it is accepted; the
// play-by-play is delivered over the conversation's SSE stream.
func (s *Server) invokeHandler(c *gin.Context) {
	conversationID := c.Param("id")

	var req invokeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	invokeReq := agent.InvokeRequest{
		TenantID:       req.TenantID,
		UserID:         req.UserID,
		ConversationID: conversationID,
		Query:          req.Query,
		PersonaID:      req.PersonaID,
	}

	go func() {
		if _, err := s.agentEngine.Invoke(context.Background(), invokeReq); err != nil {
			s.logger.Warn("invocation failed", "conversation_id", conversationID, "error", err)
		}
	}()

	c.JSON(http.StatusAccepted, gin.H{"conversation_id": conversationID, "accepted": true})
}

// conversationEventsHandler handles GET /v1/conversations/:id/events, an
// SSE stream of the conversation channel's agent-pipeline events.
func (s *Server) conversationEventsHandler(c *gin.Context) {
	tenantID := c.Query("tenant_id")
	if tenantID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "tenant_id query parameter is required"})
		return
	}

	ch := eventbus.ForConversation(tenantID, c.Param("id"))
	streamSSE(c, s.subscriber, ch, s.heartbeatInterval())
}
