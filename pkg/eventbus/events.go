package eventbus

import (
	"encoding/json"
	"time"
)

// EventType is the SSE `event:` tag. The union below follows
// original_source/backend/src/yourai/api/sse/events.py, grouped the
// same way: conversation stream, policy-review stream, and the
// per-user push stream.
type EventType string

const (
	// Conversation stream (C5)
	EventAgentStart        EventType = "agent-start"
	EventAgentProgress     EventType = "agent-progress"
	EventAgentComplete     EventType = "agent-complete"
	EventContentDelta      EventType = "content-delta"
	EventLegalSource       EventType = "legal-source"
	EventCaseLawSource     EventType = "case-law-source"
	EventCompanyPolicySource EventType = "company-policy-source"
	EventParliamentarySource EventType = "parliamentary-source" // supplemented, see SPEC_FULL.md §4
	EventAnnotation        EventType = "annotation"              // supplemented, see SPEC_FULL.md §4
	EventConfidenceUpdate  EventType = "confidence-update"
	EventUsageMetrics      EventType = "usage-metrics"
	EventVerificationResult EventType = "verification-result"
	EventMessageState      EventType = "message-state"
	EventMessageComplete   EventType = "message-complete"
	EventConversationState EventType = "conversation-state"
	EventConversationCancelled EventType = "conversation-cancelled"
	EventError             EventType = "error"

	// Policy-review stream (C6)
	EventPolicyReviewStatus          EventType = "policy-review-status"
	EventPolicyReviewCitationProgress EventType = "policy-review-citation-progress"
	EventPolicyReviewComplete        EventType = "policy-review-complete"
	EventPolicyReviewFailed          EventType = "policy-review-failed"

	// Per-user push stream
	EventConversationTitleUpdating EventType = "conversation-title-updating"
	EventConversationTitleUpdated  EventType = "conversation-title-updated"
	EventPolicyReviewCreated       EventType = "policy-review-created"
	EventRegulatoryChangeAlert     EventType = "regulatory-change-alert"
	EventCreditUsageWarning        EventType = "credit-usage-warning"
	EventIngestionStarted          EventType = "ingestion-started"
	EventIngestionProgress         EventType = "ingestion-progress"
	EventIngestionCompleted        EventType = "ingestion-completed"
	EventIngestionFailed           EventType = "ingestion-failed"
)

// Event is the envelope every published payload travels in. ID is
// assigned by the publisher (monotonic per channel); Type selects the
// SSE `event:` tag; Data is the type-specific JSON payload.
type Event struct {
	ID        string          `json:"-"`
	Type      EventType       `json:"type"`
	Data      json.RawMessage `json:"data"`
	CreatedAt time.Time       `json:"created_at"`
}

// NewEvent marshals payload into an Event with the given type. The ID
// is left empty; the publisher assigns it atomically at publish time.
func NewEvent(t EventType, payload any) (Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}
	return Event{Type: t, Data: data, CreatedAt: time.Now()}, nil
}

// --- Conversation stream payloads ---

type AgentStartPayload struct {
	Agent string `json:"agent"`
}

type AgentProgressPayload struct {
	Agent   string `json:"agent"`
	Message string `json:"message"`
}

type AgentCompletePayload struct {
	Agent      string `json:"agent"`
	DurationMS int64  `json:"duration_ms"`
	Error      string `json:"error,omitempty"`
}

type ContentDeltaPayload struct {
	Text string `json:"text"`
}

type LegalSourcePayload struct {
	ActName string `json:"act_name"`
	Section string `json:"section,omitempty"`
	URI     string `json:"uri,omitempty"`
}

type CaseLawSourcePayload struct {
	CaseName string `json:"case_name"`
	Citation string `json:"citation"`
}

type CompanyPolicySourcePayload struct {
	PolicyName string `json:"policy_name"`
	Section    string `json:"section,omitempty"`
}

// ParliamentarySourcePayload is a supplemented event type (see
// SPEC_FULL.md §4) carrying a reference to Hansard/parliamentary
// material cited by the orchestrator.
type ParliamentarySourcePayload struct {
	Title string `json:"title"`
	URI   string `json:"uri,omitempty"`
}

// AnnotationPayload is a supplemented event type (see SPEC_FULL.md §4)
// carrying an inline reviewer annotation surfaced during generation.
type AnnotationPayload struct {
	Text       string `json:"text"`
	AnchorText string `json:"anchor_text,omitempty"`
}

type ConfidenceUpdatePayload struct {
	Level string `json:"level"`
}

type UsageMetricsPayload struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}

type VerificationResultPayload struct {
	Extracted  int      `json:"extracted"`
	Verified   int      `json:"verified"`
	Unverified int      `json:"unverified"`
	Removed    int      `json:"removed"`
	Issues     []string `json:"issues,omitempty"`
}

type MessageStatePayload struct {
	MessageID string `json:"message_id"`
	State     string `json:"state"`
}

type MessageCompletePayload struct {
	MessageID string `json:"message_id"`
}

type ConversationStatePayload struct {
	State string `json:"state"`
}

type ConversationCancelledPayload struct {
	Reason string `json:"reason,omitempty"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// --- Policy-review stream payloads ---

type PolicyReviewStatusPayload struct {
	State   string `json:"state"`
	Message string `json:"message,omitempty"`
}

type PolicyReviewCitationProgressPayload struct {
	Checked int `json:"checked"`
	Total   int `json:"total"`
}

type PolicyReviewCompletePayload struct {
	Overall string `json:"overall"`
}

type PolicyReviewFailedPayload struct {
	Error string `json:"error"`
}

// --- Per-user push payloads ---

type ConversationTitleUpdatingPayload struct {
	ConversationID string `json:"conversation_id"`
}

type ConversationTitleUpdatedPayload struct {
	ConversationID string `json:"conversation_id"`
	Title          string `json:"title"`
}

type PolicyReviewCreatedPayload struct {
	ReviewID string `json:"review_id"`
}

type RegulatoryChangeAlertPayload struct {
	ActName string `json:"act_name"`
	Summary string `json:"summary"`
}

type CreditUsageWarningPayload struct {
	PercentUsed float64 `json:"percent_used"`
}

type IngestionStartedPayload struct {
	DocumentID string `json:"document_id"`
}

type IngestionProgressPayload struct {
	DocumentID string `json:"document_id"`
	State      string `json:"state"`
}

type IngestionCompletedPayload struct {
	DocumentID string `json:"document_id"`
}

type IngestionFailedPayload struct {
	DocumentID string `json:"document_id"`
	Error      string `json:"error"`
}
