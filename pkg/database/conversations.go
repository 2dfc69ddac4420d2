package database

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"

	ierrors "github.com/aldergate-legal/core/internal/errors"
	"github.com/aldergate-legal/core/pkg/models"
)

// ConversationRepository is the pgx-backed implementation of
// pkg/agent.ConversationStore, plus the CRUD operations the HTTP surface
// needs that the engine's narrow interface does not expose.
type ConversationRepository struct {
	client *Client
}

// NewConversationRepository wraps client.
func NewConversationRepository(client *Client) *ConversationRepository {
	return &ConversationRepository{client: client}
}

// Create inserts a new conversation row.
func (r *ConversationRepository) Create(ctx context.Context, conv *models.Conversation) error {
	return r.client.WithTenant(ctx, conv.TenantID, func(ctx context.Context, tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO conversations (id, tenant_id, user_id, title, state, template_id, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7, $8)`,
			conv.ID, conv.TenantID, conv.UserID, conv.Title, conv.State, conv.TemplateID, conv.CreatedAt, conv.UpdatedAt)
		return err
	})
}

// Get loads a conversation by ID, scoped to tenantID.
func (r *ConversationRepository) Get(ctx context.Context, tenantID, conversationID string) (*models.Conversation, error) {
	var conv models.Conversation
	err := r.client.WithTenant(ctx, tenantID, func(ctx context.Context, tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `
			SELECT id, tenant_id, user_id, title, state, COALESCE(template_id::text, ''), created_at, updated_at, deleted_at
			FROM conversations WHERE tenant_id = $1 AND id = $2`,
			tenantID, conversationID)
		return row.Scan(&conv.ID, &conv.TenantID, &conv.UserID, &conv.Title, &conv.State, &conv.TemplateID, &conv.CreatedAt, &conv.UpdatedAt, &conv.DeletedAt)
	})
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ierrors.NotFound("conversation", conversationID)
		}
		return nil, ierrors.Internal("load conversation", err)
	}
	return &conv, nil
}

// RecentMessages returns up to limit messages for conversationID, oldest
// first, matching the order Engine.run appends them to the LLM history.
func (r *ConversationRepository) RecentMessages(ctx context.Context, tenantID, conversationID string, limit int) ([]models.Message, error) {
	var messages []models.Message
	err := r.client.WithTenant(ctx, tenantID, func(ctx context.Context, tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `
			SELECT id, tenant_id, conversation_id, role, content, state, confidence, verification, created_at, updated_at
			FROM (
				SELECT * FROM messages
				WHERE tenant_id = $1 AND conversation_id = $2
				ORDER BY created_at DESC
				LIMIT $3
			) recent
			ORDER BY created_at ASC`,
			tenantID, conversationID, limit)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			m, err := scanMessage(rows)
			if err != nil {
				return err
			}
			messages = append(messages, m)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, ierrors.Internal("load recent messages", err)
	}
	return messages, nil
}

// AppendMessage inserts a new message row.
func (r *ConversationRepository) AppendMessage(ctx context.Context, msg *models.Message) error {
	verification, err := marshalVerification(msg.Verification)
	if err != nil {
		return ierrors.Internal("marshal message verification", err)
	}
	return r.client.WithTenant(ctx, msg.TenantID, func(ctx context.Context, tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO messages (id, tenant_id, conversation_id, role, content, state, confidence, verification, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			msg.ID, msg.TenantID, msg.ConversationID, msg.Role, msg.Content, msg.State, string(msg.Confidence), verification, msg.CreatedAt, msg.UpdatedAt)
		return err
	})
}

// UpdateMessage rewrites a message's mutable fields (content, state,
// confidence, verification, updated_at), used when the pending
// assistant-message placeholder is finalised.
func (r *ConversationRepository) UpdateMessage(ctx context.Context, msg *models.Message) error {
	verification, err := marshalVerification(msg.Verification)
	if err != nil {
		return ierrors.Internal("marshal message verification", err)
	}
	return r.client.WithTenant(ctx, msg.TenantID, func(ctx context.Context, tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE messages SET content = $1, state = $2, confidence = $3, verification = $4, updated_at = $5
			WHERE tenant_id = $6 AND id = $7`,
			msg.Content, msg.State, string(msg.Confidence), verification, msg.UpdatedAt, msg.TenantID, msg.ID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ierrors.NotFound("message", msg.ID)
		}
		return nil
	})
}

// SetTitle updates a conversation's generated title.
func (r *ConversationRepository) SetTitle(ctx context.Context, tenantID, conversationID, title string) error {
	return r.client.WithTenant(ctx, tenantID, func(ctx context.Context, tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `UPDATE conversations SET title = $1, updated_at = now() WHERE tenant_id = $2 AND id = $3`,
			title, tenantID, conversationID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ierrors.NotFound("conversation", conversationID)
		}
		return nil
	})
}

// SetState transitions a conversation's lifecycle state.
func (r *ConversationRepository) SetState(ctx context.Context, tenantID, conversationID string, state models.ConversationState) error {
	return r.client.WithTenant(ctx, tenantID, func(ctx context.Context, tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `UPDATE conversations SET state = $1, updated_at = now() WHERE tenant_id = $2 AND id = $3`,
			state, tenantID, conversationID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ierrors.NotFound("conversation", conversationID)
		}
		return nil
	})
}

// SoftDelete marks a conversation deleted without removing its rows,
// matching spec.md's "conversations are never hard-deleted" invariant.
func (r *ConversationRepository) SoftDelete(ctx context.Context, tenantID, conversationID string) error {
	return r.client.WithTenant(ctx, tenantID, func(ctx context.Context, tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `UPDATE conversations SET deleted_at = now(), updated_at = now() WHERE tenant_id = $1 AND id = $2 AND deleted_at IS NULL`,
			tenantID, conversationID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ierrors.NotFound("conversation", conversationID)
		}
		return nil
	})
}

func scanMessage(rows pgx.Rows) (models.Message, error) {
	var m models.Message
	var confidence string
	var verification []byte
	if err := rows.Scan(&m.ID, &m.TenantID, &m.ConversationID, &m.Role, &m.Content, &m.State, &confidence, &verification, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return models.Message{}, err
	}
	m.Confidence = models.ConfidenceLevel(confidence)
	if len(verification) > 0 {
		var v models.VerificationResult
		if err := json.Unmarshal(verification, &v); err != nil {
			return models.Message{}, err
		}
		m.Verification = &v
	}
	return m, nil
}

func marshalVerification(v *models.VerificationResult) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}
