// Package api is the minimal HTTP surface described in spec.md §1: an
// SSE stream endpoint per conversation/policy-review channel, plus the
// invoke/review trigger endpoints needed to exercise C1-C6 end to end.
// The rest of the REST surface (auth, conversation listing, document
// management, PDF rendering) is out of scope; see DESIGN.md. Grounded
// on tarsy's pkg/api/handlers.go: a Server struct holding every
// collaborator, one method per route, gin.H for JSON bodies.
package api

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aldergate-legal/core/pkg/agent"
	"github.com/aldergate-legal/core/pkg/database"
	"github.com/aldergate-legal/core/pkg/eventbus"
	"github.com/aldergate-legal/core/pkg/policyreview"
)

// HeartbeatInterval is the default SSE keep-alive cadence when the
// caller doesn't override it with Server.HeartbeatInterval.
const HeartbeatInterval = 15 * time.Second

// Server bundles every collaborator the HTTP layer dispatches to.
type Server struct {
	agentEngine  *agent.Engine
	reviewEngine *policyreview.Engine
	subscriber   *eventbus.Subscriber

	conversations *database.ConversationRepository
	reviews       *database.PolicyReviewRepository

	registry *prometheus.Registry

	// HeartbeatInterval overrides the SSE keep-alive cadence; zero uses
	// HeartbeatInterval (the package default).
	HeartbeatInterval time.Duration

	logger *slog.Logger
}

// NewServer constructs a Server wired to the given collaborators.
func NewServer(
	agentEngine *agent.Engine,
	reviewEngine *policyreview.Engine,
	subscriber *eventbus.Subscriber,
	conversations *database.ConversationRepository,
	reviews *database.PolicyReviewRepository,
	registry *prometheus.Registry,
) *Server {
	return &Server{
		agentEngine:   agentEngine,
		reviewEngine:  reviewEngine,
		subscriber:    subscriber,
		conversations: conversations,
		reviews:       reviews,
		registry:      registry,
		logger:        slog.With("component", "api.server"),
	}
}

// RegisterRoutes mounts every handler on router.
func (s *Server) RegisterRoutes(router *gin.Engine) {
	router.GET("/health", s.healthHandler)
	if s.registry != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})))
	}

	v1 := router.Group("/v1")
	{
		v1.POST("/conversations", s.createConversationHandler)
		v1.POST("/conversations/:id/messages", s.invokeHandler)
		v1.GET("/conversations/:id/events", s.conversationEventsHandler)

		v1.POST("/policy-reviews", s.createReviewHandler)
		v1.POST("/policy-reviews/:id/cancel", s.cancelReviewHandler)
		v1.GET("/policy-reviews/:id/events", s.reviewEventsHandler)
	}
}

func (s *Server) heartbeatInterval() time.Duration {
	if s.HeartbeatInterval > 0 {
		return s.HeartbeatInterval
	}
	return HeartbeatInterval
}
