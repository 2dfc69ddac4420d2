package retrieval

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/jackc/pgx/v5/pgxpool"

	ierrors "github.com/aldergate-legal/core/internal/errors"
)

// PgVectorStore is the concrete VectorStore backed by Postgres, storing
// each chunk's embedding as a `double precision[]` column and computing
// cosine similarity in process. No vector-database client library
// appears anywhere in the example corpus, so pgx/v5 plus an in-process
// distance calculation is the grounded choice (see DESIGN.md).
type PgVectorStore struct {
	pool *pgxpool.Pool
}

// NewPgVectorStore constructs a PgVectorStore over pool.
func NewPgVectorStore(pool *pgxpool.Pool) *PgVectorStore {
	return &PgVectorStore{pool: pool}
}

type scoredChunk struct {
	id    string
	score float64
}

// Search returns up to limit chunk IDs for tenantID, ordered by
// descending cosine similarity to embedding.
func (s *PgVectorStore) Search(ctx context.Context, tenantID string, embedding []float64, filter Filter, limit int) ([]string, error) {
	where, args := filterClause(tenantID, filter)
	query := fmt.Sprintf(`
		SELECT dc.id, dc.embedding FROM document_chunks dc
		JOIN documents d ON d.id = dc.document_id
		JOIN knowledge_bases kb ON kb.id = d.knowledge_base_id
		WHERE %s`, where)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, ierrors.UpstreamTransient("vector store", err)
	}
	defer rows.Close()

	var candidates []scoredChunk
	for rows.Next() {
		var id string
		var vec []float64
		if err := rows.Scan(&id, &vec); err != nil {
			return nil, ierrors.Internal("scan chunk embedding", err)
		}
		if len(vec) == 0 {
			continue
		}
		candidates = append(candidates, scoredChunk{id: id, score: cosineSimilarity(embedding, vec)})
	}
	if err := rows.Err(); err != nil {
		return nil, ierrors.UpstreamTransient("vector store", err)
	}

	sort.Slice(candidates, func(i, j int) bool { return candidates[i].score > candidates[j].score })
	if limit > 0 && limit < len(candidates) {
		candidates = candidates[:limit]
	}

	ids := make([]string, len(candidates))
	for i, c := range candidates {
		ids[i] = c.id
	}
	return ids, nil
}

// Upsert stores or replaces a chunk's embedding.
func (s *PgVectorStore) Upsert(ctx context.Context, tenantID, chunkID string, embedding []float64) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE document_chunks SET embedding = $1 WHERE id = $2 AND tenant_id = $3`,
		embedding, chunkID, tenantID,
	)
	if err != nil {
		return ierrors.UpstreamTransient("vector store", err)
	}
	return nil
}

// DeleteByDocument removes every chunk embedding belonging to
// documentID by deleting the chunk rows outright.
func (s *PgVectorStore) DeleteByDocument(ctx context.Context, tenantID, documentID string) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM document_chunks WHERE document_id = $1 AND tenant_id = $2`,
		documentID, tenantID,
	)
	if err != nil {
		return ierrors.UpstreamTransient("vector store", err)
	}
	return nil
}

func cosineSimilarity(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// PgKeywordStore is the concrete KeywordStore backed by Postgres
// full-text search over the content_tsv generated column, grounded on
// tarsy's GIN-indexed full-text search pattern
// (pkg/database/migrations.go) adapted to the chunk table.
type PgKeywordStore struct {
	pool *pgxpool.Pool
}

// NewPgKeywordStore constructs a PgKeywordStore over pool.
func NewPgKeywordStore(pool *pgxpool.Pool) *PgKeywordStore {
	return &PgKeywordStore{pool: pool}
}

// Search returns up to limit chunk IDs for tenantID matching query,
// ordered by descending ts_rank.
func (s *PgKeywordStore) Search(ctx context.Context, tenantID, query string, filter Filter, limit int) ([]string, error) {
	where, args := filterClause(tenantID, filter)
	args = append(args, query)
	queryPlaceholder := fmt.Sprintf("$%d", len(args))

	sqlQuery := fmt.Sprintf(`
		SELECT dc.id FROM document_chunks dc
		JOIN documents d ON d.id = dc.document_id
		JOIN knowledge_bases kb ON kb.id = d.knowledge_base_id
		WHERE %s AND dc.content_tsv @@ plainto_tsquery('english', %s)
		ORDER BY ts_rank(dc.content_tsv, plainto_tsquery('english', %s)) DESC`,
		where, queryPlaceholder, queryPlaceholder)

	if limit > 0 {
		args = append(args, limit)
		sqlQuery += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := s.pool.Query(ctx, sqlQuery, args...)
	if err != nil {
		return nil, ierrors.UpstreamTransient("keyword store", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, ierrors.Internal("scan chunk id", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, ierrors.UpstreamTransient("keyword store", err)
	}
	return ids, nil
}

// PgEnricher joins fused chunk identifiers back to their owning
// document and knowledge base, dropping any identifier no longer
// present (eventual consistency is tolerated per spec.md §4.2).
type PgEnricher struct {
	pool *pgxpool.Pool
}

// NewPgEnricher constructs a PgEnricher over pool.
func NewPgEnricher(pool *pgxpool.Pool) *PgEnricher {
	return &PgEnricher{pool: pool}
}

func (e *PgEnricher) Enrich(ctx context.Context, tenantID string, fused []FusedChunk) ([]EnrichedResult, error) {
	if len(fused) == 0 {
		return nil, nil
	}

	ids := make([]string, len(fused))
	scoreByID := make(map[string]float64, len(fused))
	for i, f := range fused {
		ids[i] = f.ChunkID
		scoreByID[f.ChunkID] = f.Score
	}

	rows, err := e.pool.Query(ctx,
		`SELECT dc.id, dc.document_id, d.name, d.blob_ref, kb.category, dc.ordinal, dc.content, dc.contextual_prefix
		 FROM document_chunks dc
		 JOIN documents d ON d.id = dc.document_id
		 JOIN knowledge_bases kb ON kb.id = d.knowledge_base_id
		 WHERE dc.tenant_id = $1 AND dc.id = ANY($2)`,
		tenantID, ids,
	)
	if err != nil {
		return nil, ierrors.Internal("enrich retrieval results", err)
	}
	defer rows.Close()

	byID := make(map[string]EnrichedResult, len(ids))
	for rows.Next() {
		var r EnrichedResult
		if err := rows.Scan(&r.ChunkID, &r.DocumentID, &r.DocumentName, &r.DocumentURI,
			&r.KnowledgeBaseCategory, &r.ChunkOrdinal, &r.Content, &r.ContextualPrefix); err != nil {
			return nil, ierrors.Internal("scan enriched result", err)
		}
		r.Score = scoreByID[r.ChunkID]
		byID[r.ChunkID] = r
	}
	if err := rows.Err(); err != nil {
		return nil, ierrors.Internal("enrich retrieval results", err)
	}

	// Preserve fused order; silently drop ids no longer present (a
	// chunk deleted between fuse and enrich).
	out := make([]EnrichedResult, 0, len(fused))
	for _, f := range fused {
		if r, ok := byID[f.ChunkID]; ok {
			out = append(out, r)
		}
	}
	return out, nil
}

// filterClause builds a "dc.tenant_id = $1 [AND kb.category = ANY($2)]
// [AND kb.id = ANY($n)]" predicate and its positional args.
func filterClause(tenantID string, filter Filter) (string, []any) {
	clause := "dc.tenant_id = $1"
	args := []any{tenantID}
	if len(filter.Categories) > 0 {
		args = append(args, filter.Categories)
		clause += fmt.Sprintf(" AND kb.category = ANY($%d)", len(args))
	}
	if len(filter.KnowledgeBaseIDs) > 0 {
		args = append(args, filter.KnowledgeBaseIDs)
		clause += fmt.Sprintf(" AND kb.id = ANY($%d)", len(args))
	}
	return clause, args
}
