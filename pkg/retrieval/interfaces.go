package retrieval

import "context"

// Embedder turns text into a dense vector, following tarsy's
// interface-per-external-dependency convention (compare pkg/llm.Client).
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// Filter narrows a search to specific categories/knowledge bases.
type Filter struct {
	Categories      []string
	KnowledgeBaseIDs []string
}

// VectorStore runs cosine-similarity k-NN over a tenant's chunk
// embeddings.
type VectorStore interface {
	// Search returns up to limit chunk IDs ordered best-match-first.
	Search(ctx context.Context, tenantID string, embedding []float64, filter Filter, limit int) ([]string, error)
	// Upsert stores or replaces a chunk's embedding.
	Upsert(ctx context.Context, tenantID, chunkID string, embedding []float64) error
	// DeleteByDocument removes every chunk embedding belonging to
	// documentID, used when a knowledge base or document is deleted.
	DeleteByDocument(ctx context.Context, tenantID, documentID string) error
}

// KeywordStore runs a full-text search over a tenant's chunk text.
type KeywordStore interface {
	Search(ctx context.Context, tenantID, query string, filter Filter, limit int) ([]string, error)
}

// EnrichedResult is a search result enriched with relational metadata.
type EnrichedResult struct {
	ChunkID                string
	DocumentID              string
	DocumentName            string
	DocumentURI             string
	KnowledgeBaseCategory   string
	ChunkOrdinal            int
	Content                 string
	ContextualPrefix        string
	Score                   float64
	Metadata                map[string]any
}

// Enricher joins fused chunk identifiers back to the relational store,
// dropping any identifier no longer present (eventual consistency is
// tolerated per spec.md §4.2).
type Enricher interface {
	Enrich(ctx context.Context, tenantID string, fused []FusedChunk) ([]EnrichedResult, error)
}

// Reranker reorders enriched candidates. The default implementation is
// identity-by-RRF-score (see reranker.go).
type Reranker interface {
	Rerank(ctx context.Context, query string, candidates []EnrichedResult, limit int) ([]EnrichedResult, error)
}
