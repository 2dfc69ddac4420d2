package policyreview

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ierrors "github.com/aldergate-legal/core/internal/errors"
	"github.com/aldergate-legal/core/pkg/eventbus"
	"github.com/aldergate-legal/core/pkg/models"
)

type fakeDefinitionStore struct {
	active      []models.PolicyDefinition
	byID        map[string]*models.PolicyDefinition
}

func (f *fakeDefinitionStore) ListActive(ctx context.Context, tenantID string) ([]models.PolicyDefinition, error) {
	return f.active, nil
}

func (f *fakeDefinitionStore) Get(ctx context.Context, tenantID, definitionID string) (*models.PolicyDefinition, error) {
	d, ok := f.byID[definitionID]
	if !ok {
		return nil, ierrors.NotFound("policy definition", definitionID)
	}
	return d, nil
}

type fakeReviewStore struct {
	mu   sync.Mutex
	byID map[string]*models.PolicyReview
}

func newFakeReviewStore() *fakeReviewStore {
	return &fakeReviewStore{byID: make(map[string]*models.PolicyReview)}
}

func (f *fakeReviewStore) Create(ctx context.Context, review *models.PolicyReview) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byID[review.ID] = review
	return nil
}

func (f *fakeReviewStore) UpdateState(ctx context.Context, tenantID, reviewID string, state models.PolicyReviewState) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.byID[reviewID]
	if !ok {
		return ierrors.NotFound("policy review", reviewID)
	}
	r.State = state
	return nil
}

func (f *fakeReviewStore) SetResult(ctx context.Context, tenantID, reviewID string, result *models.PolicyReviewResult) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.byID[reviewID]
	if !ok {
		return ierrors.NotFound("policy review", reviewID)
	}
	r.Result = result
	return nil
}

func (f *fakeReviewStore) Get(ctx context.Context, tenantID, reviewID string) (*models.PolicyReview, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.byID[reviewID]
	if !ok {
		return nil, ierrors.NotFound("policy review", reviewID)
	}
	cp := *r
	return &cp, nil
}

func (f *fakeReviewStore) ListForDefinition(ctx context.Context, tenantID, definitionID string, limit int) ([]models.PolicyReview, error) {
	return nil, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []eventbus.Event
}

func (p *recordingPublisher) Publish(ctx context.Context, ch eventbus.Channel, ev eventbus.Event) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return "1", nil
}

func testDefinition() *models.PolicyDefinition {
	return &models.PolicyDefinition{
		ID:   "def-1",
		Name: "Rent Arrears Policy",
		ComplianceCriteria: []models.ComplianceCriterion{
			{Name: "Escalation process", Priority: models.PriorityHigh},
			{Name: "Notice periods", Priority: models.PriorityMedium},
		},
		RequiredSections: []string{"Escalation"},
	}
}

func newTestReviewEngine(t *testing.T, evaluatorGen, summaryGen *fakeGenerator) (*Engine, *fakeReviewStore) {
	t.Helper()

	identifier := NewTypeIdentifier(&fakeGenerator{response: `{"policy_definition_id": "def-1", "confidence": 0.9, "reasoning": "x"}`})
	evaluator := NewEvaluator(nil, nil, evaluatorGen)
	reviews := newFakeReviewStore()
	definitions := &fakeDefinitionStore{
		active: []models.PolicyDefinition{*testDefinition()},
		byID:   map[string]*models.PolicyDefinition{"def-1": testDefinition()},
	}
	pub := &recordingPublisher{}

	engine := NewEngine(identifier, evaluator, summaryGen, definitions, reviews, pub, EngineConfig{})
	return engine, reviews
}

func TestEngineRunHappyPathWithExplicitDefinition(t *testing.T) {
	evaluatorGen := &fakeGenerator{response: `{"rating": "green", "evidence": "covered", "recommendation": ""}`}
	summaryGen := &fakeGenerator{response: "The policy is fully compliant."}
	engine, reviews := newTestReviewEngine(t, evaluatorGen, summaryGen)

	result, err := engine.Run(context.Background(), ReviewRequest{
		TenantID: "t1", UserID: "u1", ReviewID: "r1", PolicyDefinitionID: "def-1", DocumentText: "this policy covers escalation",
	})
	require.NoError(t, err)
	assert.Equal(t, models.RatingGreen, result.Overall)
	assert.Len(t, result.Criteria, 2)

	review, err := reviews.Get(context.Background(), "t1", "r1")
	require.NoError(t, err)
	assert.Equal(t, models.PolicyReviewComplete, review.State)
}

func TestEngineRunIdentifiesTypeWhenDefinitionNotGiven(t *testing.T) {
	evaluatorGen := &fakeGenerator{response: `{"rating": "amber", "evidence": "partial", "recommendation": "add timelines"}`}
	summaryGen := &fakeGenerator{response: "Mostly compliant."}
	engine, _ := newTestReviewEngine(t, evaluatorGen, summaryGen)

	result, err := engine.Run(context.Background(), ReviewRequest{
		TenantID: "t1", UserID: "u1", ReviewID: "r2", DocumentText: "a document with no declared type",
	})
	require.NoError(t, err)
	assert.Equal(t, models.RatingAmber, result.Overall)
}

func TestEngineRunRejectsMissingFields(t *testing.T) {
	engine, _ := newTestReviewEngine(t, &fakeGenerator{}, &fakeGenerator{})

	_, err := engine.Run(context.Background(), ReviewRequest{TenantID: "t1"})
	assert.True(t, ierrors.Is(err, ierrors.KindValidation))
}

func TestEngineRunTransitionsToErrorOnEvaluationFailure(t *testing.T) {
	evaluatorGen := &fakeGenerator{err: assert.AnError}
	engine, reviews := newTestReviewEngine(t, evaluatorGen, &fakeGenerator{})

	_, err := engine.Run(context.Background(), ReviewRequest{
		TenantID: "t1", UserID: "u1", ReviewID: "r3", PolicyDefinitionID: "def-1", DocumentText: "text",
	})
	require.Error(t, err)

	review, getErr := reviews.Get(context.Background(), "t1", "r3")
	require.NoError(t, getErr)
	assert.Equal(t, models.PolicyReviewError, review.State)
}

func TestEngineCancelOnTerminalReviewIsConflict(t *testing.T) {
	engine, reviews := newTestReviewEngine(t, &fakeGenerator{}, &fakeGenerator{})
	reviews.byID["done"] = &models.PolicyReview{ID: "done", TenantID: "t1", State: models.PolicyReviewComplete}

	err := engine.Cancel(context.Background(), "t1", "done")
	assert.True(t, ierrors.Is(err, ierrors.KindConflict))
}

func TestEngineCancelRunningReviewTransitionsState(t *testing.T) {
	engine, reviews := newTestReviewEngine(t, &fakeGenerator{}, &fakeGenerator{})
	reviews.byID["running"] = &models.PolicyReview{ID: "running", TenantID: "t1", State: models.PolicyReviewProcessing}

	err := engine.Cancel(context.Background(), "t1", "running")
	require.NoError(t, err)
	assert.Equal(t, models.PolicyReviewCancelled, reviews.byID["running"].State)
}
