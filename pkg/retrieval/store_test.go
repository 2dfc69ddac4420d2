package retrieval

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, cosineSimilarity([]float64{1, 0, 0}, []float64{1, 0, 0}), 1e-9)
	assert.InDelta(t, 0.0, cosineSimilarity([]float64{1, 0}, []float64{0, 1}), 1e-9)
	assert.InDelta(t, -1.0, cosineSimilarity([]float64{1, 0}, []float64{-1, 0}), 1e-9)
	assert.Equal(t, 0.0, cosineSimilarity([]float64{}, []float64{1, 2}))
}

func TestFilterClause_NoFilter(t *testing.T) {
	clause, args := filterClause("tenant-1", Filter{})
	assert.Equal(t, "dc.tenant_id = $1", clause)
	assert.Equal(t, []any{"tenant-1"}, args)
}

func TestFilterClause_WithCategoriesAndKnowledgeBases(t *testing.T) {
	clause, args := filterClause("tenant-1", Filter{
		Categories:       []string{"housing"},
		KnowledgeBaseIDs: []string{"kb-1", "kb-2"},
	})
	assert.Equal(t, "dc.tenant_id = $1 AND kb.category = ANY($2) AND kb.id = ANY($3)", clause)
	require := assert.New(t)
	require.Len(args, 3)
	require.Equal("tenant-1", args[0])
}
