package policyreview

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aldergate-legal/core/pkg/models"
)

func criteriaList(n int) []models.ComplianceCriterion {
	out := make([]models.ComplianceCriterion, n)
	for i := range out {
		out[i] = models.ComplianceCriterion{Name: fmt.Sprintf("criterion-%d", i)}
	}
	return out
}

func TestEvaluateAllPreservesOrder(t *testing.T) {
	gen := &fakeGenerator{response: `{"rating": "green", "evidence": "ok", "recommendation": ""}`}
	ev := NewEvaluator(nil, nil, gen)

	results, err := ev.EvaluateAll(context.Background(), "t1", "document", criteriaList(8), 3)
	require.NoError(t, err)
	require.Len(t, results, 8)
	for i, r := range results {
		assert.Equal(t, fmt.Sprintf("criterion-%d", i), r.Criterion.Name)
	}
}

func TestEvaluateAllFailsFastOnFirstError(t *testing.T) {
	gen := &fakeGenerator{err: assert.AnError}
	ev := NewEvaluator(nil, nil, gen)

	_, err := ev.EvaluateAll(context.Background(), "t1", "document", criteriaList(5), 2)
	assert.Error(t, err)
}

func TestEvaluateAllDefaultsConcurrencyWhenNotPositive(t *testing.T) {
	gen := &fakeGenerator{response: `{"rating": "red", "evidence": "missing", "recommendation": "add section"}`}
	ev := NewEvaluator(nil, nil, gen)

	results, err := ev.EvaluateAll(context.Background(), "t1", "document", criteriaList(2), 0)
	require.NoError(t, err)
	assert.Len(t, results, 2)
	assert.Equal(t, models.RatingRed, results[0].Rating)
}
