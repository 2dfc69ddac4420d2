package database

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"

	ierrors "github.com/aldergate-legal/core/internal/errors"
	"github.com/aldergate-legal/core/pkg/models"
)

// PolicyReviewRepository is the pgx-backed implementation of
// pkg/policyreview.ReviewStore.
type PolicyReviewRepository struct {
	client *Client
}

// NewPolicyReviewRepository wraps client.
func NewPolicyReviewRepository(client *Client) *PolicyReviewRepository {
	return &PolicyReviewRepository{client: client}
}

// Create inserts a new policy review row.
func (r *PolicyReviewRepository) Create(ctx context.Context, review *models.PolicyReview) error {
	return r.client.WithTenant(ctx, review.TenantID, func(ctx context.Context, tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO policy_reviews (id, tenant_id, user_id, policy_definition_id, source, state, version, created_at, updated_at)
			VALUES ($1, $2, $3, NULLIF($4, '')::uuid, $5, $6, $7, $8, $9)`,
			review.ID, review.TenantID, review.UserID, review.PolicyDefinitionID, review.Source, review.State, reviewVersion(review), review.CreatedAt, review.UpdatedAt)
		return err
	})
}

// UpdateState transitions a review's lifecycle state.
func (r *PolicyReviewRepository) UpdateState(ctx context.Context, tenantID, reviewID string, state models.PolicyReviewState) error {
	return r.client.WithTenant(ctx, tenantID, func(ctx context.Context, tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `UPDATE policy_reviews SET state = $1, updated_at = now() WHERE tenant_id = $2 AND id = $3`,
			state, tenantID, reviewID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ierrors.NotFound("policy review", reviewID)
		}
		return nil
	})
}

// SetResult persists the assembled result and bumps the review's
// version; the review's state is changed separately via UpdateState.
func (r *PolicyReviewRepository) SetResult(ctx context.Context, tenantID, reviewID string, result *models.PolicyReviewResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return ierrors.Internal("marshal policy review result", err)
	}
	return r.client.WithTenant(ctx, tenantID, func(ctx context.Context, tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE policy_reviews SET result = $1, version = version + 1, updated_at = now()
			WHERE tenant_id = $2 AND id = $3`,
			payload, tenantID, reviewID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ierrors.NotFound("policy review", reviewID)
		}
		return nil
	})
}

// Get loads a review by ID, scoped to tenantID.
func (r *PolicyReviewRepository) Get(ctx context.Context, tenantID, reviewID string) (*models.PolicyReview, error) {
	var review models.PolicyReview
	err := r.client.WithTenant(ctx, tenantID, func(ctx context.Context, tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `
			SELECT id, tenant_id, user_id, COALESCE(policy_definition_id::text, ''), source, state, result, version, created_at, updated_at
			FROM policy_reviews WHERE tenant_id = $1 AND id = $2`,
			tenantID, reviewID)
		var err error
		review, err = scanPolicyReviewRow(row)
		return err
	})
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ierrors.NotFound("policy review", reviewID)
		}
		return nil, ierrors.Internal("load policy review", err)
	}
	return &review, nil
}

// ListForDefinition returns up to limit completed reviews against
// definitionID, newest first, the ordering pkg/policyreview.Compare and
// CalculateTrends both assume.
func (r *PolicyReviewRepository) ListForDefinition(ctx context.Context, tenantID, definitionID string, limit int) ([]models.PolicyReview, error) {
	var reviews []models.PolicyReview
	err := r.client.WithTenant(ctx, tenantID, func(ctx context.Context, tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `
			SELECT id, tenant_id, user_id, COALESCE(policy_definition_id::text, ''), source, state, result, version, created_at, updated_at
			FROM policy_reviews
			WHERE tenant_id = $1 AND policy_definition_id = $2 AND state = $3
			ORDER BY created_at DESC
			LIMIT $4`,
			tenantID, definitionID, models.PolicyReviewComplete, limit)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			review, err := scanPolicyReview(rows)
			if err != nil {
				return err
			}
			reviews = append(reviews, review)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, ierrors.Internal("list policy reviews for definition", err)
	}
	return reviews, nil
}

func reviewVersion(review *models.PolicyReview) int {
	if review.Version <= 0 {
		return 1
	}
	return review.Version
}

func scanPolicyReview(rows pgx.Rows) (models.PolicyReview, error) {
	var review models.PolicyReview
	var resultJSON []byte
	if err := rows.Scan(&review.ID, &review.TenantID, &review.UserID, &review.PolicyDefinitionID, &review.Source,
		&review.State, &resultJSON, &review.Version, &review.CreatedAt, &review.UpdatedAt); err != nil {
		return models.PolicyReview{}, err
	}
	if len(resultJSON) > 0 {
		var result models.PolicyReviewResult
		if err := json.Unmarshal(resultJSON, &result); err != nil {
			return models.PolicyReview{}, err
		}
		review.Result = &result
	}
	return review, nil
}

func scanPolicyReviewRow(row pgx.Row) (models.PolicyReview, error) {
	var review models.PolicyReview
	var resultJSON []byte
	if err := row.Scan(&review.ID, &review.TenantID, &review.UserID, &review.PolicyDefinitionID, &review.Source,
		&review.State, &resultJSON, &review.Version, &review.CreatedAt, &review.UpdatedAt); err != nil {
		return models.PolicyReview{}, err
	}
	if len(resultJSON) > 0 {
		var result models.PolicyReviewResult
		if err := json.Unmarshal(resultJSON, &result); err != nil {
			return models.PolicyReview{}, err
		}
		review.Result = &result
	}
	return review, nil
}
