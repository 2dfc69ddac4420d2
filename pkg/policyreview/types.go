// Package policyreview is the Review Engine (C6): it takes an uploaded
// policy document, identifies (or is told) which policy type it is,
// evaluates it criterion by criterion against the Legislation Gateway
// and Retrieval Core, rolls the criterion ratings up into an overall
// red/amber/green verdict, and persists the result. Grounded on
// original_source/policy/review_engine.py::PolicyReviewEngine's stage
// sequence and tarsy's staged-controller idiom (each stage a method,
// context.Context threaded throughout, errors propagate with a stable
// code attached).
package policyreview

import (
	"context"

	"github.com/aldergate-legal/core/pkg/eventbus"
	"github.com/aldergate-legal/core/pkg/llm"
	"github.com/aldergate-legal/core/pkg/models"
)

// Generator is the subset of *llm.Client used for single-shot
// JSON-constrained completions (type identification, criterion
// evaluation), kept as an interface so tests can substitute a scripted
// fake, mirroring pkg/agent.Generator.
type Generator interface {
	Generate(ctx context.Context, systemPrompt string, messages []llm.Message) (string, error)
}

// ReviewRequest is the input to Engine.Run. PolicyDefinitionID is
// optional: when empty, the type-identification stage selects one from
// the tenant's active definitions.
type ReviewRequest struct {
	TenantID           string
	UserID             string
	ReviewID           string
	PolicyDefinitionID string
	DocumentText       string
	DocumentURI        string
}

// DefinitionStore loads tenant-scoped policy definitions.
type DefinitionStore interface {
	ListActive(ctx context.Context, tenantID string) ([]models.PolicyDefinition, error)
	Get(ctx context.Context, tenantID, definitionID string) (*models.PolicyDefinition, error)
}

// ReviewStore persists PolicyReview rows across the review's lifecycle.
type ReviewStore interface {
	Create(ctx context.Context, review *models.PolicyReview) error
	UpdateState(ctx context.Context, tenantID, reviewID string, state models.PolicyReviewState) error
	SetResult(ctx context.Context, tenantID, reviewID string, result *models.PolicyReviewResult) error
	Get(ctx context.Context, tenantID, reviewID string) (*models.PolicyReview, error)
	// ListForDefinition returns every completed review against
	// definitionID, newest first, used by Compare and Trends.
	ListForDefinition(ctx context.Context, tenantID, definitionID string, limit int) ([]models.PolicyReview, error)
}

// Publisher is the subset of *eventbus.Publisher the engine needs.
// Mirrors pkg/agent.Publisher; kept as its own narrow interface so
// pkg/policyreview does not depend on pkg/agent.
type Publisher interface {
	Publish(ctx context.Context, ch eventbus.Channel, ev eventbus.Event) (string, error)
}
