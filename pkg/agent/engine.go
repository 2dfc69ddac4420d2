package agent

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	ierrors "github.com/aldergate-legal/core/internal/errors"
	"github.com/aldergate-legal/core/pkg/eventbus"
	"github.com/aldergate-legal/core/pkg/llm"
	"github.com/aldergate-legal/core/pkg/models"
	"github.com/aldergate-legal/core/pkg/verification"
)

// EngineConfig bundles the tunables the engine reads at construction
// time, kept as a small struct rather than threading individual flags
// through every constructor argument.
type EngineConfig struct {
	HistoryLimit int
}

// Engine wires the Router, Workers, Orchestrator, Verifier, QAReviewer,
// optional SemanticCache, and TitleGenerator behind one Invoke/Cancel
// entry point, following
// original_source/agents/invocation.py::AgentEngine's stage sequence:
// route -> retrieve -> orchestrate/stream -> verify -> QA review ->
// score confidence -> persist -> title -> cache write -> finalise.
type Engine struct {
	router       *Router
	workers      *Workers
	orchestrator *Orchestrator
	verifier     *verification.Verifier
	qa           *QAReviewer
	cache        *SemanticCache // nil disables the cache short-circuit
	titles       *TitleGenerator

	conversations ConversationStore
	invocations   InvocationStore
	personas      PersonaStore
	publisher     Publisher

	cfg EngineConfig

	mu        sync.Mutex
	cancelFns map[string]context.CancelFunc

	logger *slog.Logger
}

// NewEngine constructs an Engine from its collaborators. cache may be
// nil to disable the semantic-cache short-circuit entirely.
func NewEngine(
	router *Router,
	workers *Workers,
	orchestrator *Orchestrator,
	verifier *verification.Verifier,
	qa *QAReviewer,
	cache *SemanticCache,
	titles *TitleGenerator,
	conversations ConversationStore,
	invocations InvocationStore,
	personas PersonaStore,
	publisher Publisher,
	cfg EngineConfig,
) *Engine {
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = 20
	}
	return &Engine{
		router:        router,
		workers:       workers,
		orchestrator:  orchestrator,
		verifier:      verifier,
		qa:            qa,
		cache:         cache,
		titles:        titles,
		conversations: conversations,
		invocations:   invocations,
		personas:      personas,
		publisher:     publisher,
		cfg:           cfg,
		cancelFns:     make(map[string]context.CancelFunc),
		logger:        slog.With("component", "agent.engine"),
	}
}

// Invoke runs the full pipeline for one user query and returns once the
// assistant message is finalised. The streamed play-by-play is
// delivered via the conversation's event channel as the pipeline runs;
// this return value is the synchronous summary.
func (e *Engine) Invoke(ctx context.Context, req InvokeRequest) (*InvokeResult, error) {
	if req.TenantID == "" || req.ConversationID == "" || req.Query == "" {
		return nil, ierrors.Validation("invoke_request", "tenant_id, conversation_id, and query are required")
	}

	ch := eventbus.ForConversation(req.TenantID, req.ConversationID)

	invocationID := uuid.New().String()
	runCtx, cancel := context.WithCancel(ctx)
	e.registerCancel(invocationID, cancel)
	defer e.unregisterCancel(invocationID)

	inv := &models.AgentInvocation{
		ID:        invocationID,
		TenantID:  req.TenantID,
		Mode:      "conversation",
		Query:     req.Query,
		PersonaID: req.PersonaID,
		State:     models.InvocationPending,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := e.invocations.Create(runCtx, inv); err != nil {
		return nil, ierrors.Internal("create agent invocation", err)
	}
	e.setState(runCtx, req.TenantID, invocationID, models.InvocationRunning, "")
	e.publishConversationState(runCtx, ch, "running")

	result, err := e.run(runCtx, ch, req, invocationID)
	if err != nil {
		if ierrors.Is(err, ierrors.KindConflict) {
			e.setState(runCtx, req.TenantID, invocationID, models.InvocationCancelled, "")
			return nil, err
		}
		e.setState(runCtx, req.TenantID, invocationID, models.InvocationError, "")
		e.publishError(runCtx, ch, err)
		return nil, err
	}

	e.setState(runCtx, req.TenantID, invocationID, models.InvocationComplete, "")
	return result, nil
}

func (e *Engine) run(ctx context.Context, ch eventbus.Channel, req InvokeRequest, invocationID string) (*InvokeResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, ierrors.Conflict("invocation was cancelled")
	}

	conv, err := e.conversations.Get(ctx, req.TenantID, req.ConversationID)
	if err != nil {
		return nil, ierrors.Internal("load conversation", err)
	}

	history, err := e.conversations.RecentMessages(ctx, req.TenantID, req.ConversationID, e.cfg.HistoryLimit)
	if err != nil {
		return nil, ierrors.Internal("load conversation history", err)
	}

	userMsg := &models.Message{
		ID:             uuid.New().String(),
		TenantID:       req.TenantID,
		ConversationID: req.ConversationID,
		Role:           models.MessageRoleUser,
		Content:        req.Query,
		State:          models.MessageStateSuccess,
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}
	if err := e.conversations.AppendMessage(ctx, userMsg); err != nil {
		return nil, ierrors.Internal("persist user message", err)
	}

	assistantMsg := &models.Message{
		ID:             uuid.New().String(),
		TenantID:       req.TenantID,
		ConversationID: req.ConversationID,
		Role:           models.MessageRoleAssistant,
		State:          models.MessageStatePending,
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}
	if err := e.conversations.AppendMessage(ctx, assistantMsg); err != nil {
		return nil, ierrors.Internal("persist assistant message placeholder", err)
	}
	e.publishMessageState(ctx, ch, assistantMsg.ID, "pending")

	if e.cache != nil {
		if entry, hit := e.cache.Lookup(ctx, req.TenantID, req.Query); hit {
			return e.finalizeFromCache(ctx, ch, req, assistantMsg, entry)
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, ierrors.Conflict("invocation was cancelled")
	}

	e.publishAgentStart(ctx, ch, "router")
	routerStart := time.Now()
	decision, err := e.router.Route(ctx, req.Query)
	if err != nil {
		return nil, ierrors.Internal("route query", err)
	}
	e.publishAgentComplete(ctx, ch, "router", time.Since(routerStart), nil)
	e.publishAgentProgress(ctx, ch, "router", "classified query as "+decision.Intent)

	kc := e.workers.Retrieve(ctx, req.TenantID, req.Query, decision)

	var persona *models.Persona
	if req.PersonaID != "" {
		persona, err = e.personas.Get(ctx, req.TenantID, req.PersonaID)
		if err != nil {
			e.logger.Warn("persona lookup failed, continuing without it", "persona_id", req.PersonaID, "error", err)
			persona = nil
		}
	}
	skills := SkillsForDecision(decision)
	systemPrompt := BuildSystemPrompt(persona, skills, kc)

	if err := ctx.Err(); err != nil {
		return nil, ierrors.Conflict("invocation was cancelled")
	}

	llmHistory := toLLMHistory(history)
	llmHistory = append(llmHistory, llm.Message{Role: llm.RoleUser, Content: req.Query})

	e.publishAgentStart(ctx, ch, "orchestrator")
	orchestratorStart := time.Now()
	content, err := e.orchestrator.Stream(ctx, ch, systemPrompt, llmHistory, kc)
	if err != nil {
		e.publishAgentComplete(ctx, ch, "orchestrator", time.Since(orchestratorStart), err)
		return nil, ierrors.UpstreamTransient("llm provider", err)
	}
	e.publishAgentComplete(ctx, ch, "orchestrator", time.Since(orchestratorStart), nil)

	e.publishAgentStart(ctx, ch, "verification")
	verificationStart := time.Now()
	verifyResult := e.verifier.VerifyResponse(ctx, content)
	e.publishVerification(ctx, ch, verifyResult)
	e.publishAgentComplete(ctx, ch, "verification", time.Since(verificationStart), nil)

	qaVerdict := e.qa.Review(content, verifyResult)
	confidence := ScoreConfidence(verifyResult)
	if !qaVerdict.Approved {
		confidence = models.ConfidenceLow
	}
	e.publishConfidence(ctx, ch, confidence)

	assistantMsg.Content = content
	assistantMsg.State = models.MessageStateSuccess
	assistantMsg.Confidence = confidence
	assistantMsg.Verification = ToModelVerification(verifyResult)
	assistantMsg.UpdatedAt = time.Now()
	if err := assistantMsg.Validate(); err != nil {
		return nil, ierrors.Internal("assistant message invariant violated", err)
	}
	if err := e.conversations.UpdateMessage(ctx, assistantMsg); err != nil {
		return nil, ierrors.Internal("persist finalised assistant message", err)
	}
	e.publishMessageState(ctx, ch, assistantMsg.ID, "success")
	e.publishMessageComplete(ctx, ch, assistantMsg.ID)

	e.maybeGenerateTitle(ctx, ch, req, conv, len(history))

	if e.cache != nil {
		e.cache.Store(ctx, req.TenantID, req.Query, content, kc.AllSources())
	}

	return &InvokeResult{
		InvocationID: invocationID,
		MessageID:    assistantMsg.ID,
		Content:      content,
		Confidence:   confidence,
		Verification: verifyResult,
		CacheHit:     false,
	}, nil
}

func (e *Engine) finalizeFromCache(ctx context.Context, ch eventbus.Channel, req InvokeRequest, assistantMsg *models.Message, entry *models.SemanticCacheEntry) (*InvokeResult, error) {
	assistantMsg.Content = entry.Response
	assistantMsg.State = models.MessageStateSuccess
	assistantMsg.Confidence = models.ConfidenceHigh
	assistantMsg.Verification = &models.VerificationResult{}
	assistantMsg.UpdatedAt = time.Now()
	if err := e.conversations.UpdateMessage(ctx, assistantMsg); err != nil {
		return nil, ierrors.Internal("persist cached assistant message", err)
	}

	e.publishDeltaText(ctx, ch, entry.Response)
	e.publishMessageState(ctx, ch, assistantMsg.ID, "success")
	e.publishMessageComplete(ctx, ch, assistantMsg.ID)

	return &InvokeResult{
		MessageID:  assistantMsg.ID,
		Content:    entry.Response,
		Confidence: models.ConfidenceHigh,
		CacheHit:   true,
	}, nil
}

func (e *Engine) maybeGenerateTitle(ctx context.Context, ch eventbus.Channel, req InvokeRequest, conv *models.Conversation, historyLen int) {
	if conv == nil || e.titles == nil || !conv.NeedsTitle(historyLen) {
		return
	}
	e.publish(ctx, ch, eventbus.EventConversationTitleUpdating, eventbus.ConversationTitleUpdatingPayload{ConversationID: req.ConversationID})
	title := e.titles.Generate(ctx, req.Query)
	if err := e.conversations.SetTitle(ctx, req.TenantID, req.ConversationID, title); err != nil {
		e.logger.Warn("failed to persist generated title", "error", err)
		return
	}
	e.publish(ctx, ch, eventbus.EventConversationTitleUpdated, eventbus.ConversationTitleUpdatedPayload{ConversationID: req.ConversationID, Title: title})
}

// Cancel transitions a running invocation to cancelled and cancels its
// in-flight context, if any is registered. Cancellation is honoured at
// the next stage boundary inside run (see the ctx.Err() checks above),
// mirroring spec.md §4.5's "cancellation is cooperative, checked
// between stages rather than mid-stream-token" contract.
func (e *Engine) Cancel(ctx context.Context, tenantID, invocationID string) error {
	inv, err := e.invocations.Get(ctx, tenantID, invocationID)
	if err != nil {
		return ierrors.Internal("load invocation for cancel", err)
	}
	if inv.State.Terminal() {
		return ierrors.Conflict("invocation is already in a terminal state")
	}

	e.mu.Lock()
	cancel, ok := e.cancelFns[invocationID]
	e.mu.Unlock()
	if ok {
		cancel()
	}

	return e.invocations.UpdateState(ctx, tenantID, invocationID, models.InvocationCancelled, inv.ModelUsed)
}

func (e *Engine) registerCancel(invocationID string, cancel context.CancelFunc) {
	e.mu.Lock()
	e.cancelFns[invocationID] = cancel
	e.mu.Unlock()
}

func (e *Engine) unregisterCancel(invocationID string) {
	e.mu.Lock()
	delete(e.cancelFns, invocationID)
	e.mu.Unlock()
}

func (e *Engine) setState(ctx context.Context, tenantID, invocationID string, state models.InvocationState, modelUsed string) {
	if err := e.invocations.UpdateState(ctx, tenantID, invocationID, state, modelUsed); err != nil {
		e.logger.Warn("failed to persist invocation state", "invocation_id", invocationID, "state", state, "error", err)
	}
}

func toLLMHistory(messages []models.Message) []llm.Message {
	out := make([]llm.Message, 0, len(messages))
	for _, m := range messages {
		role := llm.RoleUser
		if m.Role == models.MessageRoleAssistant {
			role = llm.RoleAssistant
		}
		out = append(out, llm.Message{Role: role, Content: m.Content})
	}
	return out
}

func (e *Engine) publish(ctx context.Context, ch eventbus.Channel, t eventbus.EventType, payload any) {
	ev, err := eventbus.NewEvent(t, payload)
	if err != nil {
		e.logger.Warn("failed to build event", "type", t, "error", err)
		return
	}
	if _, err := e.publisher.Publish(ctx, ch, ev); err != nil {
		e.logger.Warn("failed to publish event", "type", t, "error", err)
	}
}

func (e *Engine) publishConversationState(ctx context.Context, ch eventbus.Channel, state string) {
	e.publish(ctx, ch, eventbus.EventConversationState, eventbus.ConversationStatePayload{State: state})
}

func (e *Engine) publishAgentProgress(ctx context.Context, ch eventbus.Channel, agent, message string) {
	e.publish(ctx, ch, eventbus.EventAgentProgress, eventbus.AgentProgressPayload{Agent: agent, Message: message})
}

func (e *Engine) publishAgentStart(ctx context.Context, ch eventbus.Channel, agent string) {
	e.publish(ctx, ch, eventbus.EventAgentStart, eventbus.AgentStartPayload{Agent: agent})
}

func (e *Engine) publishAgentComplete(ctx context.Context, ch eventbus.Channel, agent string, duration time.Duration, err error) {
	payload := eventbus.AgentCompletePayload{Agent: agent, DurationMS: duration.Milliseconds()}
	if err != nil {
		payload.Error = err.Error()
	}
	e.publish(ctx, ch, eventbus.EventAgentComplete, payload)
}

func (e *Engine) publishMessageState(ctx context.Context, ch eventbus.Channel, messageID, state string) {
	e.publish(ctx, ch, eventbus.EventMessageState, eventbus.MessageStatePayload{MessageID: messageID, State: state})
}

func (e *Engine) publishMessageComplete(ctx context.Context, ch eventbus.Channel, messageID string) {
	e.publish(ctx, ch, eventbus.EventMessageComplete, eventbus.MessageCompletePayload{MessageID: messageID})
}

func (e *Engine) publishVerification(ctx context.Context, ch eventbus.Channel, r verification.Result) {
	e.publish(ctx, ch, eventbus.EventVerificationResult, eventbus.VerificationResultPayload{
		Extracted:  r.CitationsChecked,
		Verified:   r.CitationsVerified,
		Unverified: r.CitationsUnverified,
		Removed:    r.CitationsRemoved,
		Issues:     r.Issues,
	})
}

func (e *Engine) publishConfidence(ctx context.Context, ch eventbus.Channel, level models.ConfidenceLevel) {
	e.publish(ctx, ch, eventbus.EventConfidenceUpdate, eventbus.ConfidenceUpdatePayload{Level: string(level)})
}

func (e *Engine) publishDeltaText(ctx context.Context, ch eventbus.Channel, text string) {
	e.publish(ctx, ch, eventbus.EventContentDelta, eventbus.ContentDeltaPayload{Text: text})
}

func (e *Engine) publishError(ctx context.Context, ch eventbus.Channel, err error) {
	e.publish(ctx, ch, eventbus.EventError, eventbus.ErrorPayload{Code: string(ierrors.KindOf(err)), Message: err.Error()})
}
