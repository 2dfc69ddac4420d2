package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/aldergate-legal/core/pkg/eventbus"
	"github.com/aldergate-legal/core/pkg/policyreview"
)

// createReviewRequest is the body of POST /v1/policy-reviews.
type createReviewRequest struct {
	TenantID           string `json:"tenant_id" binding:"required"`
	UserID             string `json:"user_id" binding:"required"`
	PolicyDefinitionID string `json:"policy_definition_id"`
	DocumentText       string `json:"document_text" binding:"required"`
	DocumentURI        string `json:"document_uri"`
}

// createReviewHandler handles POST /v1/policy-reviews. The review ID is
// minted here, before the engine starts, so the caller can subscribe to
// its event stream and issue a cancel immediately without waiting for
// the (long-running) review to reach a checkpoint that would otherwise
// reveal its own ID.
func (s *Server) createReviewHandler(c *gin.Context) {
	var req createReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	reviewID := uuid.New().String()
	reviewReq := policyreview.ReviewRequest{
		TenantID:           req.TenantID,
		UserID:             req.UserID,
		ReviewID:           reviewID,
		PolicyDefinitionID: req.PolicyDefinitionID,
		DocumentText:       req.DocumentText,
		DocumentURI:        req.DocumentURI,
	}

	go func() {
		if _, err := s.reviewEngine.Run(context.Background(), reviewReq); err != nil {
			s.logger.Warn("policy review failed", "review_id", reviewID, "error", err)
		}
	}()

	c.JSON(http.StatusAccepted, gin.H{"review_id": reviewID, "accepted": true})
}

// cancelReviewRequest is the body of POST /v1/policy-reviews/:id/cancel.
type cancelReviewRequest struct {
	TenantID string `json:"tenant_id" binding:"required"`
}

// cancelReviewHandler handles POST /v1/policy-reviews/:id/cancel.
func (s *Server) cancelReviewHandler(c *gin.Context) {
	var req cancelReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := s.reviewEngine.Cancel(c.Request.Context(), req.TenantID, c.Param("id")); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "cancelled"})
}

// reviewEventsHandler handles GET /v1/policy-reviews/:id/events, an SSE
// stream of the review channel's progress events.
func (s *Server) reviewEventsHandler(c *gin.Context) {
	tenantID := c.Query("tenant_id")
	if tenantID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "tenant_id query parameter is required"})
		return
	}

	ch := eventbus.ForReview(tenantID, c.Param("id"))
	streamSSE(c, s.subscriber, ch, s.heartbeatInterval())
}
