package database

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"

	ierrors "github.com/aldergate-legal/core/internal/errors"
	"github.com/aldergate-legal/core/pkg/models"
)

// PolicyDefinitionRepository is the pgx-backed implementation of
// pkg/policyreview.DefinitionStore.
type PolicyDefinitionRepository struct {
	client *Client
}

// NewPolicyDefinitionRepository wraps client.
func NewPolicyDefinitionRepository(client *Client) *PolicyDefinitionRepository {
	return &PolicyDefinitionRepository{client: client}
}

// ListActive returns every definition with status "active" for tenantID,
// the candidate set TypeIdentifier.Identify chooses from.
func (r *PolicyDefinitionRepository) ListActive(ctx context.Context, tenantID string) ([]models.PolicyDefinition, error) {
	var defs []models.PolicyDefinition
	err := r.client.WithTenant(ctx, tenantID, func(ctx context.Context, tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `
			SELECT id, tenant_id, uri, name, name_variants, status, COALESCE(group_id::text, ''), topic_ids,
			       required_sections, compliance_criteria, scoring_criteria, legislation_references, review_cycle,
			       created_at, updated_at
			FROM policy_definitions WHERE tenant_id = $1 AND status = $2`,
			tenantID, models.PolicyDefinitionActive)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			d, err := scanPolicyDefinition(rows)
			if err != nil {
				return err
			}
			defs = append(defs, d)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, ierrors.Internal("list active policy definitions", err)
	}
	return defs, nil
}

// Get loads a policy definition by ID, scoped to tenantID.
func (r *PolicyDefinitionRepository) Get(ctx context.Context, tenantID, definitionID string) (*models.PolicyDefinition, error) {
	var d models.PolicyDefinition
	err := r.client.WithTenant(ctx, tenantID, func(ctx context.Context, tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `
			SELECT id, tenant_id, uri, name, name_variants, status, COALESCE(group_id::text, ''), topic_ids,
			       required_sections, compliance_criteria, scoring_criteria, legislation_references, review_cycle,
			       created_at, updated_at
			FROM policy_definitions WHERE tenant_id = $1 AND id = $2`,
			tenantID, definitionID)
		var err error
		d, err = scanPolicyDefinitionRow(row)
		return err
	})
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ierrors.NotFound("policy definition", definitionID)
		}
		return nil, ierrors.Internal("load policy definition", err)
	}
	return &d, nil
}

// Create inserts a new policy definition.
func (r *PolicyDefinitionRepository) Create(ctx context.Context, d *models.PolicyDefinition) error {
	nameVariants, err := json.Marshal(d.NameVariants)
	if err != nil {
		return ierrors.Internal("marshal name variants", err)
	}
	topicIDs, err := json.Marshal(d.TopicIDs)
	if err != nil {
		return ierrors.Internal("marshal topic ids", err)
	}
	requiredSections, err := json.Marshal(d.RequiredSections)
	if err != nil {
		return ierrors.Internal("marshal required sections", err)
	}
	complianceCriteria, err := json.Marshal(d.ComplianceCriteria)
	if err != nil {
		return ierrors.Internal("marshal compliance criteria", err)
	}
	scoringCriteria, err := json.Marshal(d.ScoringCriteria)
	if err != nil {
		return ierrors.Internal("marshal scoring criteria", err)
	}
	legislationReferences, err := json.Marshal(d.LegislationReferences)
	if err != nil {
		return ierrors.Internal("marshal legislation references", err)
	}

	return r.client.WithTenant(ctx, d.TenantID, func(ctx context.Context, tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO policy_definitions (
				id, tenant_id, uri, name, name_variants, status, group_id, topic_ids,
				required_sections, compliance_criteria, scoring_criteria, legislation_references,
				review_cycle, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, '')::uuid, $8, $9, $10, $11, $12, $13, $14, $15)`,
			d.ID, d.TenantID, d.URI, d.Name, nameVariants, d.Status, d.GroupID, topicIDs,
			requiredSections, complianceCriteria, scoringCriteria, legislationReferences,
			d.ReviewCycle, d.CreatedAt, d.UpdatedAt)
		return err
	})
}

// UpdateStatus transitions a policy definition's lifecycle status.
func (r *PolicyDefinitionRepository) UpdateStatus(ctx context.Context, tenantID, definitionID string, status models.PolicyDefinitionStatus) error {
	return r.client.WithTenant(ctx, tenantID, func(ctx context.Context, tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `UPDATE policy_definitions SET status = $1, updated_at = now() WHERE tenant_id = $2 AND id = $3`,
			status, tenantID, definitionID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ierrors.NotFound("policy definition", definitionID)
		}
		return nil
	})
}

func scanPolicyDefinition(rows pgx.Rows) (models.PolicyDefinition, error) {
	var d models.PolicyDefinition
	var nameVariants, topicIDs, requiredSections, complianceCriteria, scoringCriteria, legislationReferences []byte
	if err := rows.Scan(&d.ID, &d.TenantID, &d.URI, &d.Name, &nameVariants, &d.Status, &d.GroupID, &topicIDs,
		&requiredSections, &complianceCriteria, &scoringCriteria, &legislationReferences, &d.ReviewCycle,
		&d.CreatedAt, &d.UpdatedAt); err != nil {
		return models.PolicyDefinition{}, err
	}
	if err := unmarshalPolicyDefinitionJSON(&d, nameVariants, topicIDs, requiredSections, complianceCriteria, scoringCriteria, legislationReferences); err != nil {
		return models.PolicyDefinition{}, err
	}
	return d, nil
}

func scanPolicyDefinitionRow(row pgx.Row) (models.PolicyDefinition, error) {
	var d models.PolicyDefinition
	var nameVariants, topicIDs, requiredSections, complianceCriteria, scoringCriteria, legislationReferences []byte
	if err := row.Scan(&d.ID, &d.TenantID, &d.URI, &d.Name, &nameVariants, &d.Status, &d.GroupID, &topicIDs,
		&requiredSections, &complianceCriteria, &scoringCriteria, &legislationReferences, &d.ReviewCycle,
		&d.CreatedAt, &d.UpdatedAt); err != nil {
		return models.PolicyDefinition{}, err
	}
	if err := unmarshalPolicyDefinitionJSON(&d, nameVariants, topicIDs, requiredSections, complianceCriteria, scoringCriteria, legislationReferences); err != nil {
		return models.PolicyDefinition{}, err
	}
	return d, nil
}

func unmarshalPolicyDefinitionJSON(d *models.PolicyDefinition, nameVariants, topicIDs, requiredSections, complianceCriteria, scoringCriteria, legislationReferences []byte) error {
	if err := json.Unmarshal(nameVariants, &d.NameVariants); err != nil {
		return err
	}
	if err := json.Unmarshal(topicIDs, &d.TopicIDs); err != nil {
		return err
	}
	if err := json.Unmarshal(requiredSections, &d.RequiredSections); err != nil {
		return err
	}
	if err := json.Unmarshal(complianceCriteria, &d.ComplianceCriteria); err != nil {
		return err
	}
	if err := json.Unmarshal(scoringCriteria, &d.ScoringCriteria); err != nil {
		return err
	}
	return json.Unmarshal(legislationReferences, &d.LegislationReferences)
}
