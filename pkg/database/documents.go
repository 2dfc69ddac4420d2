package database

import (
	"context"

	"github.com/jackc/pgx/v5"

	ierrors "github.com/aldergate-legal/core/internal/errors"
	"github.com/aldergate-legal/core/pkg/models"
)

// DocumentRepository is the pgx-backed store for documents moving
// through the ingestion pipeline, including the dead-letter bookkeeping
// described in spec.md §7.
type DocumentRepository struct {
	client *Client
}

// NewDocumentRepository wraps client.
func NewDocumentRepository(client *Client) *DocumentRepository {
	return &DocumentRepository{client: client}
}

// Create inserts a new document at version 1 of its lineage, or as a
// successor in an existing one when PredecessorVersionID is set.
func (r *DocumentRepository) Create(ctx context.Context, d *models.Document) error {
	return r.client.WithTenant(ctx, d.TenantID, func(ctx context.Context, tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO documents (
				id, tenant_id, knowledge_base_id, name, blob_ref, content_type, size_bytes,
				content_hash, state, version, predecessor_version_id, retry_count, dead_lettered,
				last_error, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NULLIF($11, '')::uuid, $12, $13, $14, $15, $16)`,
			d.ID, d.TenantID, d.KnowledgeBaseID, d.Name, d.BlobRef, d.ContentType, d.SizeBytes,
			d.ContentHash, d.State, d.Version, d.PredecessorVersionID, d.RetryCount, d.DeadLettered,
			d.LastError, d.CreatedAt, d.UpdatedAt)
		return err
	})
}

// Get loads a document by ID, scoped to tenantID.
func (r *DocumentRepository) Get(ctx context.Context, tenantID, documentID string) (*models.Document, error) {
	var d models.Document
	err := r.client.WithTenant(ctx, tenantID, func(ctx context.Context, tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `
			SELECT id, tenant_id, knowledge_base_id, name, blob_ref, content_type, size_bytes,
			       content_hash, state, version, COALESCE(predecessor_version_id::text, ''),
			       retry_count, dead_lettered, last_error, created_at, updated_at
			FROM documents WHERE tenant_id = $1 AND id = $2`, tenantID, documentID)
		var err error
		d, err = scanDocumentRow(row)
		return err
	})
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ierrors.NotFound("document", documentID)
		}
		return nil, ierrors.Internal("load document", err)
	}
	return &d, nil
}

// UpdateState transitions a document to a new ingestion-pipeline state.
func (r *DocumentRepository) UpdateState(ctx context.Context, tenantID, documentID string, state models.DocumentState) error {
	return r.client.WithTenant(ctx, tenantID, func(ctx context.Context, tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `UPDATE documents SET state = $1, updated_at = now() WHERE tenant_id = $2 AND id = $3`,
			state, tenantID, documentID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ierrors.NotFound("document", documentID)
		}
		return nil
	})
}

// RecordFailure persists a failed ingestion attempt: increments the
// retry counter, stores the error, and dead-letters the document once
// models.MaxDocumentRetries consecutive failures have accrued.
func (r *DocumentRepository) RecordFailure(ctx context.Context, tenantID, documentID, message string) error {
	return r.client.WithTenant(ctx, tenantID, func(ctx context.Context, tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE documents
			SET retry_count = retry_count + 1,
			    last_error = $1,
			    state = $2,
			    dead_lettered = (retry_count + 1) >= $3,
			    updated_at = now()
			WHERE tenant_id = $4 AND id = $5`,
			message, models.DocumentFailed, models.MaxDocumentRetries, tenantID, documentID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ierrors.NotFound("document", documentID)
		}
		return nil
	})
}

// ResetRetries clears the dead-letter flag and retry counter, used by
// the administrative retry endpoint to re-enqueue a document.
func (r *DocumentRepository) ResetRetries(ctx context.Context, tenantID, documentID string) error {
	return r.client.WithTenant(ctx, tenantID, func(ctx context.Context, tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE documents
			SET retry_count = 0, dead_lettered = false, last_error = '', state = $1, updated_at = now()
			WHERE tenant_id = $2 AND id = $3`,
			models.DocumentUploaded, tenantID, documentID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ierrors.NotFound("document", documentID)
		}
		return nil
	})
}

// ListDeadLettered returns every dead-lettered document for tenantID,
// the candidate set the administrative retry endpoint operates on.
func (r *DocumentRepository) ListDeadLettered(ctx context.Context, tenantID string) ([]models.Document, error) {
	var docs []models.Document
	err := r.client.WithTenant(ctx, tenantID, func(ctx context.Context, tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `
			SELECT id, tenant_id, knowledge_base_id, name, blob_ref, content_type, size_bytes,
			       content_hash, state, version, COALESCE(predecessor_version_id::text, ''),
			       retry_count, dead_lettered, last_error, created_at, updated_at
			FROM documents WHERE tenant_id = $1 AND dead_lettered = true`, tenantID)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			d, err := scanDocument(rows)
			if err != nil {
				return err
			}
			docs = append(docs, d)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, ierrors.Internal("list dead-lettered documents", err)
	}
	return docs, nil
}

// ListStaleProcessing returns documents still stuck in a non-terminal
// ingestion state, not dead-lettered, and not updated for
// olderThanSeconds, the candidate set the cleanup service treats as
// abandoned.
func (r *DocumentRepository) ListStaleProcessing(ctx context.Context, tenantID string, olderThanSeconds int) ([]models.Document, error) {
	var docs []models.Document
	err := r.client.WithTenant(ctx, tenantID, func(ctx context.Context, tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `
			SELECT id, tenant_id, knowledge_base_id, name, blob_ref, content_type, size_bytes,
			       content_hash, state, version, COALESCE(predecessor_version_id::text, ''),
			       retry_count, dead_lettered, last_error, created_at, updated_at
			FROM documents
			WHERE tenant_id = $1
			  AND dead_lettered = false
			  AND state NOT IN ($2, $3)
			  AND updated_at < now() - make_interval(secs => $4)`,
			tenantID, models.DocumentReady, models.DocumentFailed, olderThanSeconds)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			d, err := scanDocument(rows)
			if err != nil {
				return err
			}
			docs = append(docs, d)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, ierrors.Internal("list stale processing documents", err)
	}
	return docs, nil
}

func scanDocument(rows pgx.Rows) (models.Document, error) {
	var d models.Document
	if err := rows.Scan(&d.ID, &d.TenantID, &d.KnowledgeBaseID, &d.Name, &d.BlobRef, &d.ContentType, &d.SizeBytes,
		&d.ContentHash, &d.State, &d.Version, &d.PredecessorVersionID, &d.RetryCount, &d.DeadLettered,
		&d.LastError, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return models.Document{}, err
	}
	return d, nil
}

func scanDocumentRow(row pgx.Row) (models.Document, error) {
	var d models.Document
	if err := row.Scan(&d.ID, &d.TenantID, &d.KnowledgeBaseID, &d.Name, &d.BlobRef, &d.ContentType, &d.SizeBytes,
		&d.ContentHash, &d.State, &d.Version, &d.PredecessorVersionID, &d.RetryCount, &d.DeadLettered,
		&d.LastError, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return models.Document{}, err
	}
	return d, nil
}
