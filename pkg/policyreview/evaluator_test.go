package policyreview

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ierrors "github.com/aldergate-legal/core/internal/errors"
	"github.com/aldergate-legal/core/pkg/legislation"
	"github.com/aldergate-legal/core/pkg/models"
	"github.com/aldergate-legal/core/pkg/retrieval"
)

type fakeEmbedder struct{ vector []float64 }

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	return f.vector, nil
}

type emptyVectorStore struct{}

func (emptyVectorStore) Search(ctx context.Context, tenantID string, embedding []float64, filter retrieval.Filter, limit int) ([]string, error) {
	return nil, nil
}
func (emptyVectorStore) Upsert(ctx context.Context, tenantID, chunkID string, embedding []float64) error {
	return nil
}
func (emptyVectorStore) DeleteByDocument(ctx context.Context, tenantID, documentID string) error {
	return nil
}

type emptyKeywordStore struct{}

func (emptyKeywordStore) Search(ctx context.Context, tenantID, query string, filter retrieval.Filter, limit int) ([]string, error) {
	return nil, nil
}

type noopEnricher struct{}

func (noopEnricher) Enrich(ctx context.Context, tenantID string, fused []retrieval.FusedChunk) ([]retrieval.EnrichedResult, error) {
	return nil, nil
}

type emptyLegislationSearcher struct{}

func (emptyLegislationSearcher) SearchLegislation(ctx context.Context, p legislation.SearchLegislationParams) (*legislation.SearchResponse, error) {
	return &legislation.SearchResponse{}, nil
}

func testRetrievalService() *retrieval.Service {
	return retrieval.NewService(&fakeEmbedder{vector: []float64{0.1, 0.2}}, emptyVectorStore{}, emptyKeywordStore{}, noopEnricher{}, nil)
}

func testCriterion() models.ComplianceCriterion {
	return models.ComplianceCriterion{Name: "Escalation process", Priority: models.PriorityHigh, Description: "arrears must escalate through defined stages"}
}

func TestEvaluatorParsesWellFormedJudgement(t *testing.T) {
	gen := &fakeGenerator{response: `{"rating": "amber", "evidence": "no timelines given", "recommendation": "add explicit timelines"}`}
	ev := NewEvaluator(testRetrievalService(), emptyLegislationSearcher{}, gen)

	result, err := ev.Evaluate(context.Background(), "t1", "this policy describes escalation", testCriterion())
	require.NoError(t, err)
	assert.Equal(t, models.RatingAmber, result.Rating)
	assert.Equal(t, "add explicit timelines", result.Recommendation)
}

func TestEvaluatorRejectsUnparseableResponse(t *testing.T) {
	gen := &fakeGenerator{response: "not json"}
	ev := NewEvaluator(testRetrievalService(), emptyLegislationSearcher{}, gen)

	_, err := ev.Evaluate(context.Background(), "t1", "text", testCriterion())
	assert.True(t, ierrors.Is(err, ierrors.KindValidation))
}

func TestEvaluatorRejectsUnrecognisedRating(t *testing.T) {
	gen := &fakeGenerator{response: `{"rating": "purple", "evidence": "x", "recommendation": "y"}`}
	ev := NewEvaluator(testRetrievalService(), emptyLegislationSearcher{}, gen)

	_, err := ev.Evaluate(context.Background(), "t1", "text", testCriterion())
	assert.True(t, ierrors.Is(err, ierrors.KindValidation))
}

func TestEvaluatorPropagatesModelFailureAsUpstreamTransient(t *testing.T) {
	gen := &fakeGenerator{err: assert.AnError}
	ev := NewEvaluator(testRetrievalService(), emptyLegislationSearcher{}, gen)

	_, err := ev.Evaluate(context.Background(), "t1", "text", testCriterion())
	assert.True(t, ierrors.Is(err, ierrors.KindUpstreamTransient))
}

func TestEvaluatorToleratesNilLegislationAndRetrieval(t *testing.T) {
	gen := &fakeGenerator{response: `{"rating": "green", "evidence": "covered", "recommendation": ""}`}
	ev := NewEvaluator(nil, nil, gen)

	result, err := ev.Evaluate(context.Background(), "t1", "text", testCriterion())
	require.NoError(t, err)
	assert.Equal(t, models.RatingGreen, result.Rating)
}
