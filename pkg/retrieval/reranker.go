package retrieval

import "context"

// IdentityReranker is the default Reranker: candidates already arrive
// ordered by RRF score, so this only truncates to limit (spec.md §4.2
// step 5: "the default is identity-by-RRF-score").
type IdentityReranker struct{}

func NewIdentityReranker() *IdentityReranker { return &IdentityReranker{} }

func (r *IdentityReranker) Rerank(_ context.Context, _ string, candidates []EnrichedResult, limit int) ([]EnrichedResult, error) {
	if limit <= 0 || limit >= len(candidates) {
		return candidates, nil
	}
	return candidates[:limit], nil
}
