package database

import (
	"context"

	"github.com/jackc/pgx/v5"

	ierrors "github.com/aldergate-legal/core/internal/errors"
	"github.com/aldergate-legal/core/pkg/models"
)

// InvocationRepository is the pgx-backed implementation of
// pkg/agent.InvocationStore.
type InvocationRepository struct {
	client *Client
}

// NewInvocationRepository wraps client.
func NewInvocationRepository(client *Client) *InvocationRepository {
	return &InvocationRepository{client: client}
}

// Create inserts a new agent_invocations row.
func (r *InvocationRepository) Create(ctx context.Context, inv *models.AgentInvocation) error {
	return r.client.WithTenant(ctx, inv.TenantID, func(ctx context.Context, tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO agent_invocations (id, tenant_id, mode, query, persona_id, state, model_used, cache_hit, created_at, updated_at)
			VALUES ($1, $2, $3, $4, NULLIF($5, '')::uuid, $6, $7, $8, $9, $10)`,
			inv.ID, inv.TenantID, inv.Mode, inv.Query, inv.PersonaID, inv.State, inv.ModelUsed, inv.CacheHit, inv.CreatedAt, inv.UpdatedAt)
		return err
	})
}

// UpdateState transitions an invocation's state and, when non-empty,
// records which model served it.
func (r *InvocationRepository) UpdateState(ctx context.Context, tenantID, invocationID string, state models.InvocationState, modelUsed string) error {
	return r.client.WithTenant(ctx, tenantID, func(ctx context.Context, tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE agent_invocations
			SET state = $1, model_used = CASE WHEN $2 = '' THEN model_used ELSE $2 END, updated_at = now()
			WHERE tenant_id = $3 AND id = $4`,
			state, modelUsed, tenantID, invocationID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ierrors.NotFound("agent invocation", invocationID)
		}
		return nil
	})
}

// Get loads an invocation by ID, scoped to tenantID.
func (r *InvocationRepository) Get(ctx context.Context, tenantID, invocationID string) (*models.AgentInvocation, error) {
	var inv models.AgentInvocation
	err := r.client.WithTenant(ctx, tenantID, func(ctx context.Context, tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `
			SELECT id, tenant_id, mode, query, COALESCE(persona_id::text, ''), state, model_used, cache_hit, created_at, updated_at
			FROM agent_invocations WHERE tenant_id = $1 AND id = $2`,
			tenantID, invocationID)
		return row.Scan(&inv.ID, &inv.TenantID, &inv.Mode, &inv.Query, &inv.PersonaID, &inv.State, &inv.ModelUsed, &inv.CacheHit, &inv.CreatedAt, &inv.UpdatedAt)
	})
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ierrors.NotFound("agent invocation", invocationID)
		}
		return nil, ierrors.Internal("load agent invocation", err)
	}
	return &inv, nil
}

// PersonaRepository is the pgx-backed implementation of
// pkg/agent.PersonaStore, plus the writes its HTTP surface needs.
type PersonaRepository struct {
	client *Client
}

// NewPersonaRepository wraps client.
func NewPersonaRepository(client *Client) *PersonaRepository {
	return &PersonaRepository{client: client}
}

// Get loads a persona by ID, scoped to tenantID.
func (r *PersonaRepository) Get(ctx context.Context, tenantID, personaID string) (*models.Persona, error) {
	var p models.Persona
	err := r.client.WithTenant(ctx, tenantID, func(ctx context.Context, tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `
			SELECT id, tenant_id, name, description, instructions, created_at, updated_at
			FROM personas WHERE tenant_id = $1 AND id = $2`,
			tenantID, personaID)
		return row.Scan(&p.ID, &p.TenantID, &p.Name, &p.Description, &p.Instructions, &p.CreatedAt, &p.UpdatedAt)
	})
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ierrors.NotFound("persona", personaID)
		}
		return nil, ierrors.Internal("load persona", err)
	}
	return &p, nil
}

// Create inserts a new persona row.
func (r *PersonaRepository) Create(ctx context.Context, p *models.Persona) error {
	return r.client.WithTenant(ctx, p.TenantID, func(ctx context.Context, tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO personas (id, tenant_id, name, description, instructions, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			p.ID, p.TenantID, p.Name, p.Description, p.Instructions, p.CreatedAt, p.UpdatedAt)
		return err
	})
}

// List returns every persona defined for tenantID.
func (r *PersonaRepository) List(ctx context.Context, tenantID string) ([]models.Persona, error) {
	var personas []models.Persona
	err := r.client.WithTenant(ctx, tenantID, func(ctx context.Context, tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `
			SELECT id, tenant_id, name, description, instructions, created_at, updated_at
			FROM personas WHERE tenant_id = $1 ORDER BY name`,
			tenantID)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var p models.Persona
			if err := rows.Scan(&p.ID, &p.TenantID, &p.Name, &p.Description, &p.Instructions, &p.CreatedAt, &p.UpdatedAt); err != nil {
				return err
			}
			personas = append(personas, p)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, ierrors.Internal("list personas", err)
	}
	return personas, nil
}
