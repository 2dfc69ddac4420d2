package database

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	ierrors "github.com/aldergate-legal/core/internal/errors"
	"github.com/aldergate-legal/core/pkg/models"
)

// SemanticCacheRepository is the pgx-backed implementation of
// pkg/agent.CacheStore.
type SemanticCacheRepository struct {
	client *Client
}

// NewSemanticCacheRepository wraps client.
func NewSemanticCacheRepository(client *Client) *SemanticCacheRepository {
	return &SemanticCacheRepository{client: client}
}

// Candidates returns every cache entry for tenantID, including expired
// ones: liveness is the caller's concern (models.SemanticCacheEntry.Live),
// matching the contract pkg/agent.SemanticCache.Lookup already assumes.
func (r *SemanticCacheRepository) Candidates(ctx context.Context, tenantID string) ([]models.SemanticCacheEntry, error) {
	var entries []models.SemanticCacheEntry
	err := r.client.WithTenant(ctx, tenantID, func(ctx context.Context, tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `
			SELECT id, tenant_id, embedding, response, sources, hit_count, ttl_seconds, created_at
			FROM semantic_cache_entries WHERE tenant_id = $1`,
			tenantID)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var e models.SemanticCacheEntry
			var ttlSeconds int64
			if err := rows.Scan(&e.ID, &e.TenantID, &e.Embedding, &e.Response, &e.Sources, &e.HitCount, &ttlSeconds, &e.CreatedAt); err != nil {
				return err
			}
			e.TTL = time.Duration(ttlSeconds) * time.Second
			entries = append(entries, e)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, ierrors.Internal("load semantic cache candidates", err)
	}
	return entries, nil
}

// Save inserts a new cache entry.
func (r *SemanticCacheRepository) Save(ctx context.Context, entry *models.SemanticCacheEntry) error {
	return r.client.WithTenant(ctx, entry.TenantID, func(ctx context.Context, tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO semantic_cache_entries (id, tenant_id, embedding, response, sources, hit_count, ttl_seconds, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			entry.ID, entry.TenantID, entry.Embedding, entry.Response, entry.Sources, entry.HitCount, int64(entry.TTL/time.Second), entry.CreatedAt)
		return err
	})
}

// DeleteExpired removes every cache entry for tenantID whose TTL has
// elapsed, and reports how many rows were removed. Run periodically by
// pkg/cleanup rather than on every lookup, since expired entries are
// otherwise harmless besides the storage they occupy.
func (r *SemanticCacheRepository) DeleteExpired(ctx context.Context, tenantID string) (int64, error) {
	var affected int64
	err := r.client.WithTenant(ctx, tenantID, func(ctx context.Context, tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			DELETE FROM semantic_cache_entries
			WHERE tenant_id = $1 AND created_at + make_interval(secs => ttl_seconds) < now()`,
			tenantID)
		if err != nil {
			return err
		}
		affected = tag.RowsAffected()
		return nil
	})
	if err != nil {
		return 0, ierrors.Internal("delete expired semantic cache entries", err)
	}
	return affected, nil
}

// IncrementHit bumps an entry's hit counter on a cache hit.
func (r *SemanticCacheRepository) IncrementHit(ctx context.Context, tenantID, entryID string) error {
	return r.client.WithTenant(ctx, tenantID, func(ctx context.Context, tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `UPDATE semantic_cache_entries SET hit_count = hit_count + 1 WHERE tenant_id = $1 AND id = $2`,
			tenantID, entryID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ierrors.NotFound("semantic cache entry", entryID)
		}
		return nil
	})
}
