// Package agent is the Agent Pipeline (C5): the staged orchestration
// that turns a user query into a streamed, cited, confidence-scored
// assistant message. It wires the Event Fabric (pkg/eventbus), the
// Retrieval Core (pkg/retrieval), the Legislation Gateway
// (pkg/legislation), and the Verification Core (pkg/verification)
// behind one Engine.Invoke entry point, following
// original_source/agents/invocation.py::AgentEngine.invoke's stage
// sequence and tarsy's staged-controller shape (each stage a method,
// errors propagate up, context.Context threaded throughout).
package agent

import (
	"context"
	"time"

	"github.com/aldergate-legal/core/pkg/eventbus"
	"github.com/aldergate-legal/core/pkg/llm"
	"github.com/aldergate-legal/core/pkg/models"
	"github.com/aldergate-legal/core/pkg/verification"
)

// Generator is the subset of *llm.Client used for single-shot
// completions (router classification, title generation), kept as an
// interface so tests can substitute a scripted fake instead of calling
// the Anthropic API.
type Generator interface {
	Generate(ctx context.Context, systemPrompt string, messages []llm.Message) (string, error)
}

// Streamer is the subset of *llm.Client the orchestrator uses to
// stream a completion.
type Streamer interface {
	GenerateStream(ctx context.Context, systemPrompt string, messages []llm.Message) (<-chan llm.Chunk, <-chan error)
}

// RouterDecision is the router stage's classification of a query,
// grounded on original_source's RouterDecision schema (intent, sources,
// complexity, reasoning).
type RouterDecision struct {
	Intent     string   `json:"intent"`
	Sources    []string `json:"sources"`
	Complexity string   `json:"complexity"`
	Reasoning  string   `json:"reasoning"`
}

// Source type tags used in RouterDecision.Sources and knowledge context
// dispatch, per spec.md §4.5 stage 3.
const (
	SourceUKLegislation    = "uk-legislation"
	SourceCaseLaw          = "case-law"
	SourceInternalPolicies = "internal-policies"
)

// KnowledgeSource is one retrieved piece of supporting material,
// unified across the three worker categories so the orchestrator can
// format them into one knowledge-context block.
type KnowledgeSource struct {
	Kind       string // "legislation" | "case_law" | "policy"
	ActName    string
	Year       int
	Section    string
	CaseName   string
	Citation   string
	PolicyName string
	DocURI     string
	Content    string
	Score      float64
	Historical bool
}

// KnowledgeContext aggregates every source retrieved by the knowledge
// workers for one query, mirroring original_source's KnowledgeContext.
type KnowledgeContext struct {
	LegislationSources []KnowledgeSource
	CaseLawSources     []KnowledgeSource
	PolicySources      []KnowledgeSource
}

// HasSources reports whether any worker returned material.
func (k *KnowledgeContext) HasSources() bool {
	return k != nil && (len(k.LegislationSources) > 0 || len(k.CaseLawSources) > 0 || len(k.PolicySources) > 0)
}

// AllSources returns every retrieved source across all three kinds.
func (k *KnowledgeContext) AllSources() []KnowledgeSource {
	if k == nil {
		return nil
	}
	out := make([]KnowledgeSource, 0, len(k.LegislationSources)+len(k.CaseLawSources)+len(k.PolicySources))
	out = append(out, k.LegislationSources...)
	out = append(out, k.CaseLawSources...)
	out = append(out, k.PolicySources...)
	return out
}

// InvokeRequest is the input to Engine.Invoke.
type InvokeRequest struct {
	TenantID       string
	UserID         string
	ConversationID string
	Query          string
	PersonaID      string
}

// InvokeResult is the synchronous summary returned once the pipeline
// finalises; the detailed play-by-play is delivered via the conversation
// channel's events, not this struct.
type InvokeResult struct {
	InvocationID string
	MessageID    string
	Content      string
	Confidence   models.ConfidenceLevel
	Verification verification.Result
	CacheHit     bool
}

// ConversationStore is the subset of conversation persistence the
// engine needs: loading history, reading/updating title, and reading
// the conversation row itself. A full tenant-scoped repository lives in
// pkg/database; this narrow interface keeps the engine testable without
// a live database, following the Embedder/VectorStore interface-per-
// dependency convention already used by pkg/retrieval.
type ConversationStore interface {
	Get(ctx context.Context, tenantID, conversationID string) (*models.Conversation, error)
	RecentMessages(ctx context.Context, tenantID, conversationID string, limit int) ([]models.Message, error)
	AppendMessage(ctx context.Context, msg *models.Message) error
	UpdateMessage(ctx context.Context, msg *models.Message) error
	SetTitle(ctx context.Context, tenantID, conversationID, title string) error
}

// InvocationStore persists AgentInvocation rows.
type InvocationStore interface {
	Create(ctx context.Context, inv *models.AgentInvocation) error
	UpdateState(ctx context.Context, tenantID, invocationID string, state models.InvocationState, modelUsed string) error
	Get(ctx context.Context, tenantID, invocationID string) (*models.AgentInvocation, error)
}

// PersonaStore loads a tenant-scoped persona by ID.
type PersonaStore interface {
	Get(ctx context.Context, tenantID, personaID string) (*models.Persona, error)
}

// Publisher is the subset of *eventbus.Publisher the engine needs, kept
// as an interface so tests can substitute a recording fake.
type Publisher interface {
	Publish(ctx context.Context, ch eventbus.Channel, ev eventbus.Event) (string, error)
}

// now is a package-level clock defaulting to time.Now. The engine's
// stage-duration measurements call time.Now and time.Since directly and
// do not read it.
var now = time.Now
