package agent

import (
	"context"
	"encoding/json"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/aldergate-legal/core/pkg/models"
	"github.com/aldergate-legal/core/pkg/retrieval"
)

// CacheStore persists and scans semantic cache entries, grounded on
// original_source/agents/semantic_cache.py::SemanticCacheManager's
// three operations (find a live match, record a new entry, bump a
// hit counter).
type CacheStore interface {
	Candidates(ctx context.Context, tenantID string) ([]models.SemanticCacheEntry, error)
	Save(ctx context.Context, entry *models.SemanticCacheEntry) error
	IncrementHit(ctx context.Context, tenantID, entryID string) error
}

// SemanticCache short-circuits the pipeline when a near-identical query
// was already answered for the same tenant, per spec.md §4.5's optional
// pre-stage-2 cache check.
type SemanticCache struct {
	store     CacheStore
	embedder  retrieval.Embedder
	threshold float64
	ttl       time.Duration
	logger    *slog.Logger
}

// NewSemanticCache constructs a SemanticCache. threshold is the cosine
// similarity cutoff at or above which a cached entry counts as a match
// (spec.md default 0.95); ttl bounds how long an entry stays live.
func NewSemanticCache(store CacheStore, embedder retrieval.Embedder, threshold float64, ttl time.Duration) *SemanticCache {
	return &SemanticCache{store: store, embedder: embedder, threshold: threshold, ttl: ttl, logger: slog.With("component", "agent.cache")}
}

// Lookup embeds query and scans the tenant's live candidates for the
// closest match at or above the configured threshold. A cache lookup failure
// is logged and treated as a miss rather than failing the invocation:
// the cache is a latency optimisation, not a correctness dependency.
func (c *SemanticCache) Lookup(ctx context.Context, tenantID, query string) (*models.SemanticCacheEntry, bool) {
	embedding, err := c.embedder.Embed(ctx, query)
	if err != nil {
		c.logger.Warn("cache embedding failed", "error", err)
		return nil, false
	}

	candidates, err := c.store.Candidates(ctx, tenantID)
	if err != nil {
		c.logger.Warn("cache candidate scan failed", "error", err)
		return nil, false
	}

	now := time.Now()
	var best *models.SemanticCacheEntry
	bestScore := c.threshold
	for i := range candidates {
		entry := candidates[i]
		if !entry.Live(tenantID, now) {
			continue
		}
		score := cosineSimilarity(embedding, entry.Embedding)
		if score >= bestScore {
			bestScore = score
			best = &candidates[i]
		}
	}
	if best == nil {
		return nil, false
	}

	if err := c.store.IncrementHit(ctx, tenantID, best.ID); err != nil {
		c.logger.Warn("cache hit-count update failed", "error", err)
	}
	return best, true
}

// Store records a new cache entry for query/response, tagged with the
// given cited sources for replay on a later hit.
func (c *SemanticCache) Store(ctx context.Context, tenantID, query, response string, sources []KnowledgeSource) {
	embedding, err := c.embedder.Embed(ctx, query)
	if err != nil {
		c.logger.Warn("cache store embedding failed", "error", err)
		return
	}

	payload, err := json.Marshal(sources)
	if err != nil {
		c.logger.Warn("cache store source marshal failed", "error", err)
		payload = nil
	}

	entry := &models.SemanticCacheEntry{
		ID:        uuid.New().String(),
		TenantID:  tenantID,
		Embedding: embedding,
		Response:  response,
		Sources:   payload,
		TTL:       c.ttl,
		CreatedAt: time.Now(),
	}
	if err := c.store.Save(ctx, entry); err != nil {
		c.logger.Warn("cache store save failed", "error", err)
	}
}

// cosineSimilarity computes the cosine similarity between two equal-
// length embeddings, returning 0 for mismatched lengths or a zero
// vector rather than dividing by zero.
func cosineSimilarity(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
