package models

import "time"

// ConversationState is the lifecycle state of a Conversation.
type ConversationState string

const (
	ConversationPending   ConversationState = "pending"
	ConversationReady     ConversationState = "ready"
	ConversationCancelled ConversationState = "cancelled"
	ConversationError     ConversationState = "error"
)

// Conversation is owned by one user within one tenant. Title is
// generated on the first exchange if absent; DeletedAt marks a soft
// delete requested by the user.
type Conversation struct {
	ID         string            `json:"id"`
	TenantID   string            `json:"tenant_id"`
	UserID     string            `json:"user_id"`
	Title      string            `json:"title,omitempty"`
	State      ConversationState `json:"state"`
	TemplateID string            `json:"template_id,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
	DeletedAt  *time.Time        `json:"deleted_at,omitempty"`
}

// IsDeleted reports whether the conversation has been soft-deleted.
func (c *Conversation) IsDeleted() bool {
	return c.DeletedAt != nil
}

// NeedsTitle reports whether title generation should run: no title yet
// and at most one prior message (the invocation's own user message),
// matching the source's `not current_conversation.title and len(history) <= 1` gate.
func (c *Conversation) NeedsTitle(historyLen int) bool {
	return c.Title == "" && historyLen <= 1
}
