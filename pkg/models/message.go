package models

import (
	"time"

	ierrors "github.com/aldergate-legal/core/internal/errors"
)

// MessageRole identifies who produced a message.
type MessageRole string

const (
	MessageRoleUser      MessageRole = "user"
	MessageRoleAssistant MessageRole = "assistant"
)

// MessageState is the lifecycle state of a Message. Terminal states are
// Success and Failed; a message's content is immutable once terminal.
type MessageState string

const (
	MessageStatePending MessageState = "pending"
	MessageStateSuccess MessageState = "success"
	MessageStateFailed  MessageState = "failed"
)

func (s MessageState) Terminal() bool {
	return s == MessageStateSuccess || s == MessageStateFailed
}

// ConfidenceLevel is the coarse confidence bucket assigned to a finalised
// assistant message (see pkg/agent/confidence.go).
type ConfidenceLevel string

const (
	ConfidenceHigh   ConfidenceLevel = "high"
	ConfidenceMedium ConfidenceLevel = "medium"
	ConfidenceLow    ConfidenceLevel = "low"
)

// Message belongs to one conversation. Order within a conversation is
// creation-time.
type Message struct {
	ID             string          `json:"id"`
	TenantID       string          `json:"tenant_id"`
	ConversationID string          `json:"conversation_id"`
	Role           MessageRole     `json:"role"`
	Content        string          `json:"content"`
	State          MessageState    `json:"state"`
	Confidence     ConfidenceLevel `json:"confidence,omitempty"`
	Verification   *VerificationResult `json:"verification,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// VerificationResult is the citation-verification outcome attached to a
// finalised assistant message (see pkg/verification).
type VerificationResult struct {
	Extracted  int               `json:"extracted"`
	Verified   int               `json:"verified"`
	Unverified int               `json:"unverified"`
	Removed    int               `json:"removed"`
	Issues     []string          `json:"issues,omitempty"`
	Citations  []VerifiedCitation `json:"citations,omitempty"`
}

// VerifiedCitation is a single checked citation with its outcome.
type VerifiedCitation struct {
	Text   string `json:"text"`
	Type   string `json:"type"`
	Status string `json:"status"` // verified | unverified | removed
}

// Validate enforces that confidence is set iff verification is set, and
// that both are set only on a terminal-success message. A success
// message with neither set is accepted.
func (m *Message) Validate() error {
	hasConfidence := m.Confidence != ""
	hasVerification := m.Verification != nil
	isTerminalSuccess := m.State == MessageStateSuccess

	if hasConfidence != hasVerification {
		return ierrors.Validation("message", "confidence must be set iff verification result is set")
	}
	if hasConfidence && !isTerminalSuccess {
		return ierrors.Validation("message", "confidence/verification may only be set on a terminal-success message")
	}
	return nil
}
