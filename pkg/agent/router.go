package agent

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/aldergate-legal/core/pkg/llm"
)

// routerSystemPrompt asks the fast model to classify a query into the
// RouterDecision schema, grounded on
// original_source/agents/invocation.py::AgentEngine._route_query's
// prompt (intent/sources/complexity/reasoning, sources drawn from the
// fixed uk-legislation/case-law/internal-policies vocabulary).
const routerSystemPrompt = `You are a routing classifier for a UK social housing compliance assistant.
Given a user query, decide which knowledge sources are relevant and how complex the query is.

Respond with JSON only, matching this exact shape:
{"intent": "<short phrase>", "sources": ["uk-legislation", "case-law", "internal-policies"], "complexity": "simple|standard|complex", "reasoning": "<one sentence>"}

Only include a source in "sources" if the query plausibly needs it. Most queries need at least "uk-legislation" or "internal-policies".`

// Router classifies a query before the knowledge workers run, deciding
// which sources are worth querying and how much model capacity the
// orchestrator stage should use.
type Router struct {
	model  Generator
	logger *slog.Logger
}

// NewRouter constructs a Router backed by a fast-tier model client.
func NewRouter(model Generator) *Router {
	return &Router{model: model, logger: slog.With("component", "agent.router")}
}

// Route classifies query. A malformed or empty model response falls
// back to the conservative default of querying UK legislation and
// internal policies at standard complexity, rather than failing the
// whole invocation over a routing hiccup.
func (r *Router) Route(ctx context.Context, query string) (*RouterDecision, error) {
	text, err := r.model.Generate(ctx, routerSystemPrompt, []llm.Message{{Role: llm.RoleUser, Content: query}})
	if err != nil {
		r.logger.Warn("router model call failed, using default routing", "error", err)
		return defaultRouterDecision(), nil
	}

	decision, ok := parseRouterDecision(text)
	if !ok {
		r.logger.Warn("router returned unparseable response, using default routing", "response", text)
		return defaultRouterDecision(), nil
	}
	return decision, nil
}

func parseRouterDecision(text string) (*RouterDecision, bool) {
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start < 0 || end <= start {
		return nil, false
	}

	var d RouterDecision
	if err := json.Unmarshal([]byte(text[start:end+1]), &d); err != nil {
		return nil, false
	}
	if len(d.Sources) == 0 {
		return nil, false
	}
	return &d, true
}

func defaultRouterDecision() *RouterDecision {
	return &RouterDecision{
		Intent:     "general-query",
		Sources:    []string{SourceUKLegislation, SourceInternalPolicies},
		Complexity: "standard",
		Reasoning:  "routing unavailable, defaulting to legislation and internal policy search",
	}
}
