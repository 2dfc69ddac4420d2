package database

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// WithTenant runs fn inside a transaction with the `app.tenant_id`
// session variable set for the duration of the transaction, so that the
// row-level-security policies defined in the embedded migrations apply
// as a second enforcement layer behind application-level tenant_id
// filtering (spec.md §3's tenant-isolation invariant). set_config's
// third argument (is_local=true) scopes the setting to the transaction,
// matching Postgres's "SET LOCAL" semantics without requiring a
// parameter-free SET statement.
func (c *Client) WithTenant(ctx context.Context, tenantID string, fn func(ctx context.Context, tx pgx.Tx) error) error {
	tx, err := c.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `SELECT set_config('app.tenant_id', $1, true)`, tenantID); err != nil {
		return err
	}

	if err := fn(ctx, tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// ListTenantIDs returns every tenant in the system. Used only by
// process-wide background sweeps (pkg/cleanup) that must iterate every
// tenant's isolated data in turn; ordinary request-scoped code should
// never need the full tenant list.
func (c *Client) ListTenantIDs(ctx context.Context) ([]string, error) {
	rows, err := c.Pool.Query(ctx, `SELECT id::text FROM tenants`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
