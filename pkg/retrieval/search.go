package retrieval

import (
	"context"
	"log/slog"
	"sync"
	"time"

	ierrors "github.com/aldergate-legal/core/internal/errors"
	"github.com/aldergate-legal/core/pkg/metrics"
)

// DefaultCandidateLimit is the k used for both the vector and keyword
// legs of the hybrid search, per spec.md §4.2 step 2.
const DefaultCandidateLimit = 200

// DefaultResultLimit is the number of results returned when the caller
// does not specify one, per spec.md §4.2 contract.
const DefaultResultLimit = 10

// Query is the input contract for HybridSearch.
type Query struct {
	Text               string
	TenantID           string
	Filter             Filter
	Limit              int // 1..200
	MinSimilarity      *float64
}

// Service runs the five-step hybrid search pipeline described in
// spec.md §4.2, mirroring original_source's SearchService.hybrid_search:
// embed -> parallel vector+keyword search -> RRF fuse -> enrich ->
// rerank+truncate.
type Service struct {
	embedder Embedder
	vectors  VectorStore
	keywords KeywordStore
	enricher Enricher
	reranker Reranker
	logger   *slog.Logger
	metrics  *metrics.Registry
}

// SetMetrics attaches a metrics.Registry so each HybridSearch call
// records its wall-clock latency. Optional; skips instrumentation when
// unset.
func (s *Service) SetMetrics(m *metrics.Registry) {
	s.metrics = m
}

// NewService wires the five collaborators. reranker may be nil, in
// which case IdentityReranker is used.
func NewService(embedder Embedder, vectors VectorStore, keywords KeywordStore, enricher Enricher, reranker Reranker) *Service {
	if reranker == nil {
		reranker = NewIdentityReranker()
	}
	return &Service{
		embedder: embedder,
		vectors:  vectors,
		keywords: keywords,
		enricher: enricher,
		reranker: reranker,
		logger:   slog.With("component", "retrieval.service"),
	}
}

// HybridSearch executes the pipeline and returns up to q.Limit (default
// DefaultResultLimit) enriched, reranked results.
func (s *Service) HybridSearch(ctx context.Context, q Query) ([]EnrichedResult, error) {
	if q.Text == "" {
		return nil, ierrors.Validation("text", "query text must not be empty")
	}
	if q.TenantID == "" {
		return nil, ierrors.Validation("tenant_id", "tenant id is required")
	}
	limit := q.Limit
	if limit <= 0 {
		limit = DefaultResultLimit
	}
	if s.metrics != nil {
		start := time.Now()
		defer func() { s.metrics.RetrievalDuration.WithLabelValues("hybrid_search").Observe(time.Since(start).Seconds()) }()
	}

	embedding, err := s.embedder.Embed(ctx, q.Text)
	if err != nil {
		return nil, ierrors.UpstreamTransient("embedding provider", err)
	}

	var vectorIDs, keywordIDs []string
	var vectorErr, keywordErr error
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		vectorIDs, vectorErr = s.vectors.Search(ctx, q.TenantID, embedding, q.Filter, DefaultCandidateLimit)
	}()
	go func() {
		defer wg.Done()
		keywordIDs, keywordErr = s.keywords.Search(ctx, q.TenantID, q.Text, q.Filter, DefaultCandidateLimit)
	}()
	wg.Wait()

	if vectorErr != nil {
		return nil, ierrors.UpstreamTransient("vector store", vectorErr)
	}
	if keywordErr != nil {
		return nil, ierrors.UpstreamTransient("keyword store", keywordErr)
	}

	fused := Fuse(RRFConstant, RankedFromIDs(vectorIDs), RankedFromIDs(keywordIDs))
	if len(fused) == 0 {
		return []EnrichedResult{}, nil
	}

	enriched, err := s.enricher.Enrich(ctx, q.TenantID, fused)
	if err != nil {
		return nil, ierrors.Internal("enrich retrieval results", err)
	}

	if q.MinSimilarity != nil {
		enriched = filterByMinScore(enriched, *q.MinSimilarity)
	}

	reranked, err := s.reranker.Rerank(ctx, q.Text, enriched, limit)
	if err != nil {
		return nil, ierrors.Internal("rerank retrieval results", err)
	}
	return reranked, nil
}

func filterByMinScore(results []EnrichedResult, min float64) []EnrichedResult {
	out := make([]EnrichedResult, 0, len(results))
	for _, r := range results {
		if r.Score >= min {
			out = append(out, r)
		}
	}
	return out
}
