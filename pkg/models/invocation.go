package models

import "time"

// InvocationState is the lifecycle state of an AgentInvocation.
type InvocationState string

const (
	InvocationPending   InvocationState = "pending"
	InvocationRunning   InvocationState = "running"
	InvocationComplete  InvocationState = "complete"
	InvocationCancelled InvocationState = "cancelled"
	InvocationError     InvocationState = "error"
)

func (s InvocationState) Terminal() bool {
	switch s {
	case InvocationComplete, InvocationCancelled, InvocationError:
		return true
	default:
		return false
	}
}

// AgentInvocation is created once per user query and drives the
// conversation-stream pipeline in pkg/agent.
type AgentInvocation struct {
	ID         string          `json:"id"`
	TenantID   string          `json:"tenant_id"`
	Mode       string          `json:"mode"`
	Query      string          `json:"query"`
	PersonaID  string          `json:"persona_id,omitempty"`
	State      InvocationState `json:"state"`
	ModelUsed  string          `json:"model_used,omitempty"`
	CacheHit   bool            `json:"cache_hit"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// InvocationEvent is one append-only, per-invocation ordered event
// emitted over the course of the pipeline (see pkg/eventbus).
type InvocationEvent struct {
	ID           string    `json:"id"`
	InvocationID string    `json:"invocation_id"`
	Sequence     int64     `json:"sequence"`
	Type         string    `json:"type"`
	Payload      []byte    `json:"payload"`
	CreatedAt    time.Time `json:"created_at"`
}

// HasTerminalChild reports whether events contains an event marking the
// pipeline as finished (used to enforce "running has no terminal child
// event").
func HasTerminalChild(eventTypes []string) bool {
	for _, t := range eventTypes {
		switch t {
		case "message-complete", "conversation-cancelled", "error":
			return true
		}
	}
	return false
}

// Persona is tenant-scoped prompt augmentation, referenced optionally by
// an invocation.
type Persona struct {
	ID           string    `json:"id"`
	TenantID     string    `json:"tenant_id"`
	Name         string    `json:"name"`
	Description  string    `json:"description,omitempty"`
	Instructions string    `json:"instructions"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
