// Package eventbus is the Event Fabric (C1): a typed event union, a
// Redis-backed publisher with a replay window and pub/sub fan-out, and
// an SSE wire encoder with heartbeats and last-event-id reconnection.
// It keeps tarsy's pkg/events shape (channel-scoped publish, persist +
// notify, catch-up replay, transient vs. durable events) and replaces
// tarsy's WebSocket/Postgres-LISTEN transport with SSE over Redis, per
// spec.md §4.1/§6.
package eventbus

import "fmt"

// Channel identifies a logical event stream. Scope distinguishes
// per-conversation/per-review streams (visible to one owning user) from
// per-user push channels (regulatory alerts, credit warnings).
type Channel struct {
	Scope    string
	TenantID string
	Resource string
}

const (
	ScopeConversation = "conversation"
	ScopeReview       = "review"
	ScopeUser         = "user"
)

// ForConversation returns the channel carrying a single conversation's
// streamed agent events.
func ForConversation(tenantID, conversationID string) Channel {
	return Channel{Scope: ScopeConversation, TenantID: tenantID, Resource: conversationID}
}

// ForReview returns the channel carrying a single policy review's
// streamed progress events.
func ForReview(tenantID, reviewID string) Channel {
	return Channel{Scope: ScopeReview, TenantID: tenantID, Resource: reviewID}
}

// ForUser returns the channel carrying a user's out-of-band push events
// (title updates, regulatory alerts, credit warnings, ingestion status).
func ForUser(tenantID, userID string) Channel {
	return Channel{Scope: ScopeUser, TenantID: tenantID, Resource: userID}
}

// Key returns the Redis key prefix for this channel: tenant is embedded
// so that two tenants can never collide even if `Resource` strings
// coincide (spec.md §8's cross-tenant isolation invariant).
func (c Channel) Key() string {
	return fmt.Sprintf("%s:%s:%s", c.Scope, c.TenantID, c.Resource)
}

// ReplayKey is the Redis sorted-set key backing the replay window.
func (c Channel) ReplayKey() string {
	return "eventbus:replay:" + c.Key()
}

// PubSubKey is the Redis pub/sub channel name used for live fan-out.
func (c Channel) PubSubKey() string {
	return "eventbus:live:" + c.Key()
}
