package policyreview

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	ierrors "github.com/aldergate-legal/core/internal/errors"
	"github.com/aldergate-legal/core/pkg/eventbus"
	"github.com/aldergate-legal/core/pkg/llm"
	"github.com/aldergate-legal/core/pkg/metrics"
	"github.com/aldergate-legal/core/pkg/models"
)

// EngineConfig bundles the Engine's tunables.
type EngineConfig struct {
	CriterionConcurrency int
}

// Engine wires TypeIdentifier, Evaluator, and the pure gap/action/rollup
// helpers behind one Run/Cancel entry point, following
// original_source/policy/review_engine.py::PolicyReviewEngine.run_review's
// stage sequence: identify type (if not given) -> load definition ->
// evaluate criteria -> gap analysis -> recommended actions -> overall
// rating -> summarise -> persist.
type Engine struct {
	identifier *TypeIdentifier
	evaluator  *Evaluator
	model      Generator

	definitions DefinitionStore
	reviews     ReviewStore
	publisher   Publisher

	cfg EngineConfig

	mu        sync.Mutex
	cancelFns map[string]context.CancelFunc

	logger  *slog.Logger
	metrics *metrics.Registry
}

// SetMetrics attaches a metrics.Registry so every completed review
// records its wall-clock duration and overall rating. Optional; an
// Engine with no metrics attached simply skips instrumentation.
func (e *Engine) SetMetrics(m *metrics.Registry) {
	e.metrics = m
}

// NewEngine constructs an Engine from its collaborators.
func NewEngine(
	identifier *TypeIdentifier,
	evaluator *Evaluator,
	model Generator,
	definitions DefinitionStore,
	reviews ReviewStore,
	publisher Publisher,
	cfg EngineConfig,
) *Engine {
	if cfg.CriterionConcurrency <= 0 {
		cfg.CriterionConcurrency = DefaultCriterionConcurrency
	}
	return &Engine{
		identifier:  identifier,
		evaluator:   evaluator,
		model:       model,
		definitions: definitions,
		reviews:     reviews,
		publisher:   publisher,
		cfg:         cfg,
		cancelFns:   make(map[string]context.CancelFunc),
		logger:      slog.With("component", "policyreview.engine"),
	}
}

// Run executes the full review pipeline for req and returns the
// assembled result once persisted. Progress is also streamed over the
// review's event channel as each stage completes.
func (e *Engine) Run(ctx context.Context, req ReviewRequest) (*models.PolicyReviewResult, error) {
	if req.TenantID == "" || req.ReviewID == "" || req.DocumentText == "" {
		return nil, ierrors.Validation("review_request", "tenant_id, review_id, and document_text are required")
	}

	ch := eventbus.ForReview(req.TenantID, req.ReviewID)
	start := time.Now()

	runCtx, cancel := context.WithCancel(ctx)
	e.registerCancel(req.ReviewID, cancel)
	defer e.unregisterCancel(req.ReviewID)

	review := &models.PolicyReview{
		ID:                 req.ReviewID,
		TenantID:           req.TenantID,
		UserID:             req.UserID,
		PolicyDefinitionID: req.PolicyDefinitionID,
		Source:             req.DocumentURI,
		State:              models.PolicyReviewPending,
		CreatedAt:          time.Now(),
		UpdatedAt:          time.Now(),
	}
	if err := e.reviews.Create(runCtx, review); err != nil {
		return nil, ierrors.Internal("create policy review", err)
	}
	e.publishAgentStart(runCtx, ch, "policy-review")

	e.setState(runCtx, req.TenantID, req.ReviewID, models.PolicyReviewProcessing)
	e.publishStatus(runCtx, ch, "processing", "")

	result, err := e.run(runCtx, ch, req)
	if err != nil {
		if ierrors.Is(err, ierrors.KindConflict) {
			e.setState(runCtx, req.TenantID, req.ReviewID, models.PolicyReviewCancelled)
			e.publishAgentComplete(runCtx, ch, "policy-review", time.Since(start), err)
			return nil, err
		}
		e.setState(runCtx, req.TenantID, req.ReviewID, models.PolicyReviewError)
		e.publishFailed(runCtx, ch, err)
		e.publishAgentComplete(runCtx, ch, "policy-review", time.Since(start), err)
		return nil, err
	}

	if err := e.reviews.SetResult(runCtx, req.TenantID, req.ReviewID, result); err != nil {
		return nil, ierrors.Internal("persist policy review result", err)
	}
	e.setState(runCtx, req.TenantID, req.ReviewID, models.PolicyReviewComplete)
	e.publishComplete(runCtx, ch, result.Overall)
	e.publishAgentComplete(runCtx, ch, "policy-review", time.Since(start), nil)
	e.metrics.ObserveReview(time.Since(start).Seconds(), string(result.Overall))

	return result, nil
}

func (e *Engine) run(ctx context.Context, ch eventbus.Channel, req ReviewRequest) (*models.PolicyReviewResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, ierrors.Conflict("review was cancelled")
	}

	definition, err := e.resolveDefinition(ctx, ch, req)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, ierrors.Conflict("review was cancelled")
	}

	criteria := definition.ComplianceCriteria
	e.publishStatus(ctx, ch, "evaluating", "")
	results, err := e.evaluator.EvaluateAll(ctx, req.TenantID, req.DocumentText, criteria, e.cfg.CriterionConcurrency)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, ierrors.New(ierrors.KindUpstreamTransient, "POLICY_REVIEW_TIMEOUT", "policy review timed out evaluating criteria")
		}
		if ierrors.Is(err, ierrors.KindValidation) {
			return nil, err
		}
		return nil, ierrors.Internal("evaluate compliance criteria", err)
	}
	e.publishCitationProgress(ctx, ch, len(results), len(criteria))

	gaps := AnalyzeGaps(results, definition, req.DocumentText)
	actions := RecommendedActions(results)
	overall := CalculateOverallRating(results)

	summary, err := e.summarize(ctx, definition, results, overall)
	if err != nil {
		e.logger.Warn("summary generation failed, continuing without it", "error", err)
		summary = ""
	}

	return &models.PolicyReviewResult{
		Overall:            overall,
		Criteria:           results,
		Gaps:               gaps,
		RecommendedActions: actions,
		Summary:            summary,
		Confidence:         confidenceForResults(results),
	}, nil
}

// resolveDefinition identifies the policy type when req.PolicyDefinitionID
// is empty, otherwise loads the named definition directly.
func (e *Engine) resolveDefinition(ctx context.Context, ch eventbus.Channel, req ReviewRequest) (*models.PolicyDefinition, error) {
	if req.PolicyDefinitionID != "" {
		definition, err := e.definitions.Get(ctx, req.TenantID, req.PolicyDefinitionID)
		if err != nil {
			return nil, ierrors.Internal("load policy definition", err)
		}
		return definition, nil
	}

	e.publishStatus(ctx, ch, "identifying-type", "")
	active, err := e.definitions.ListActive(ctx, req.TenantID)
	if err != nil {
		return nil, ierrors.Internal("load active policy definitions", err)
	}
	definition, _, err := e.identifier.Identify(ctx, req.DocumentText, active)
	if err != nil {
		return nil, err
	}
	return definition, nil
}

func (e *Engine) summarize(ctx context.Context, definition *models.PolicyDefinition, results []models.CriterionResult, overall models.Rating) (string, error) {
	if e.model == nil {
		return "", nil
	}
	prompt := buildSummaryPrompt(definition, results, overall)
	text, err := e.model.Generate(ctx, summarySystemPrompt, []llm.Message{{Role: llm.RoleUser, Content: prompt}})
	if err != nil {
		return "", ierrors.UpstreamTransient("llm provider", err)
	}
	return strings.TrimSpace(text), nil
}

const summarySystemPrompt = `You summarise a UK social housing policy compliance review for a non-specialist reader.
Write two or three plain sentences: the overall verdict, and the most important thing to fix if anything is red or amber.`

func buildSummaryPrompt(definition *models.PolicyDefinition, results []models.CriterionResult, overall models.Rating) string {
	var b strings.Builder
	name := "the document"
	if definition != nil {
		name = definition.Name
	}
	b.WriteString("Policy: " + name + "\n")
	b.WriteString("Overall rating: " + string(overall) + "\n")
	for _, r := range results {
		b.WriteString("- " + r.Criterion.Name + ": " + string(r.Rating))
		if r.Recommendation != "" {
			b.WriteString(" (" + r.Recommendation + ")")
		}
		b.WriteString("\n")
	}
	return b.String()
}

// confidenceForResults reports how much evidence backs the review: every
// criterion carrying a non-empty evidence string is high confidence, no
// criteria at all is low, anything in between is medium.
func confidenceForResults(results []models.CriterionResult) string {
	if len(results) == 0 {
		return string(models.ConfidenceLow)
	}
	withEvidence := 0
	for _, r := range results {
		if r.Evidence != "" {
			withEvidence++
		}
	}
	if withEvidence == len(results) {
		return string(models.ConfidenceHigh)
	}
	return string(models.ConfidenceMedium)
}

// Cancel transitions a pending or processing review to cancelled and
// cancels its in-flight context, if one is registered. Mirrors
// pkg/agent.Engine.Cancel's pattern.
func (e *Engine) Cancel(ctx context.Context, tenantID, reviewID string) error {
	review, err := e.reviews.Get(ctx, tenantID, reviewID)
	if err != nil {
		return ierrors.Internal("load policy review for cancel", err)
	}
	if !review.Cancellable() {
		return ierrors.Conflict("policy review is already in a terminal state")
	}

	e.mu.Lock()
	cancel, ok := e.cancelFns[reviewID]
	e.mu.Unlock()
	if ok {
		cancel()
	}

	return e.reviews.UpdateState(ctx, tenantID, reviewID, models.PolicyReviewCancelled)
}

func (e *Engine) registerCancel(reviewID string, cancel context.CancelFunc) {
	e.mu.Lock()
	e.cancelFns[reviewID] = cancel
	e.mu.Unlock()
}

func (e *Engine) unregisterCancel(reviewID string) {
	e.mu.Lock()
	delete(e.cancelFns, reviewID)
	e.mu.Unlock()
}

func (e *Engine) setState(ctx context.Context, tenantID, reviewID string, state models.PolicyReviewState) {
	if err := e.reviews.UpdateState(ctx, tenantID, reviewID, state); err != nil {
		e.logger.Warn("failed to persist policy review state", "review_id", reviewID, "state", state, "error", err)
	}
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

func (e *Engine) publishStatus(ctx context.Context, ch eventbus.Channel, state, message string) {
	e.publish(ctx, ch, eventbus.EventPolicyReviewStatus, eventbus.PolicyReviewStatusPayload{State: state, Message: message})
}

func (e *Engine) publishCitationProgress(ctx context.Context, ch eventbus.Channel, checked, total int) {
	e.publish(ctx, ch, eventbus.EventPolicyReviewCitationProgress, eventbus.PolicyReviewCitationProgressPayload{Checked: checked, Total: total})
}

func (e *Engine) publishComplete(ctx context.Context, ch eventbus.Channel, overall models.Rating) {
	e.publish(ctx, ch, eventbus.EventPolicyReviewComplete, eventbus.PolicyReviewCompletePayload{Overall: string(overall)})
}

func (e *Engine) publishFailed(ctx context.Context, ch eventbus.Channel, err error) {
	e.publish(ctx, ch, eventbus.EventPolicyReviewFailed, eventbus.PolicyReviewFailedPayload{Error: err.Error()})
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
