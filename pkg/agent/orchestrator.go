package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aldergate-legal/core/pkg/eventbus"
	"github.com/aldergate-legal/core/pkg/llm"
	"github.com/aldergate-legal/core/pkg/models"
)

// baseSystemPrompt is the orchestrator's fixed preamble, grounded on
// original_source/agents/orchestrator.py::AgentOrchestrator's
// SYSTEM_PROMPT_TEMPLATE header (role framing, citation requirement,
// explicit "not legal advice" instruction the disclaimer reinforces).
const baseSystemPrompt = `You are a compliance research assistant for UK social housing providers.
Answer using the supporting material provided below where it is relevant. Cite the specific Act,
section, case, or policy you rely on. If the supporting material does not cover the question, say
so rather than guessing. You are not providing legal advice; frame answers as informational research.`

// disclaimerText is appended to every finalised assistant message, per
// spec.md §4.5's mandatory disclaimer append step.
const disclaimerText = "\n\n---\n*This response is for informational purposes only and does not constitute legal advice. Consult a qualified solicitor for advice on your specific circumstances.*"

// BuildSystemPrompt assembles the full system prompt from the fixed
// preamble, any persona instructions, the skills selected for this
// query, and the retrieved knowledge context, following
// original_source's prompt-assembly order: base instructions, then
// persona, then skills, then knowledge.
func BuildSystemPrompt(persona *models.Persona, skills []Skill, kc *KnowledgeContext) string {
	var b strings.Builder
	b.WriteString(baseSystemPrompt)

	if persona != nil && persona.Instructions != "" {
		b.WriteString("\n\n## Persona\n")
		b.WriteString(persona.Instructions)
	}

	for _, s := range skills {
		b.WriteString("\n\n## Skill: ")
		b.WriteString(s.Name)
		b.WriteString("\n")
		b.WriteString(s.Instructions)
	}

	if kc != nil && kc.HasSources() {
		b.WriteString("\n\n## Supporting material\n")
		writeKnowledgeBlock(&b, kc)
	}

	return b.String()
}

func writeKnowledgeBlock(b *strings.Builder, kc *KnowledgeContext) {
	for _, s := range kc.LegislationSources {
		fmt.Fprintf(b, "\n### %s", s.ActName)
		if s.Year > 0 {
			fmt.Fprintf(b, " %d", s.Year)
		}
		if s.Section != "" {
			fmt.Fprintf(b, ", %s", s.Section)
		}
		if s.Historical {
			b.WriteString(" (historical enactment, predates modern drafting conventions)")
		}
		if s.Content != "" {
			fmt.Fprintf(b, "\n%s", s.Content)
		}
		b.WriteString("\n")
	}
	for _, s := range kc.CaseLawSources {
		fmt.Fprintf(b, "\n### %s %s\n%s\n", s.CaseName, s.Citation, s.Content)
	}
	for _, s := range kc.PolicySources {
		fmt.Fprintf(b, "\n### %s\n%s\n", s.PolicyName, s.Content)
	}
}

// Orchestrator streams a model response under an assembled system
// prompt, fanning content deltas and knowledge-source events out over
// the conversation's event channel as it goes, following
// original_source/agents/orchestrator.py::AgentOrchestrator.stream_response.
// Every source is announced before the token stream starts.
type Orchestrator struct {
	model     Streamer
	publisher Publisher
	logger    *slog.Logger
}

// NewOrchestrator constructs an Orchestrator.
func NewOrchestrator(model Streamer, publisher Publisher) *Orchestrator {
	return &Orchestrator{model: model, publisher: publisher, logger: slog.With("component", "agent.orchestrator")}
}

// Stream announces every retrieved knowledge source, then streams the
// model's completion to ch as content-delta events, and returns the
// accumulated text with the mandatory disclaimer appended.
func (o *Orchestrator) Stream(ctx context.Context, ch eventbus.Channel, systemPrompt string, history []llm.Message, kc *KnowledgeContext) (string, error) {
	o.announceSources(ctx, ch, kc)

	chunks, errs := o.model.GenerateStream(ctx, systemPrompt, history)
	var content strings.Builder

	for {
		select {
		case chunk, ok := <-chunks:
			if !ok {
				chunks = nil
				break
			}
			if chunk.IsComplete {
				continue
			}
			content.WriteString(chunk.Text)
			o.publishDelta(ctx, ch, chunk.Text)
		case err, ok := <-errs:
			if !ok {
				errs = nil
				break
			}
			if err != nil {
				return "", err
			}
		}
		if chunks == nil && errs == nil {
			break
		}
	}

	return content.String() + disclaimerText, nil
}

func (o *Orchestrator) publishDelta(ctx context.Context, ch eventbus.Channel, text string) {
	ev, err := eventbus.NewEvent(eventbus.EventContentDelta, eventbus.ContentDeltaPayload{Text: text})
	if err != nil {
		o.logger.Warn("failed to build content-delta event", "error", err)
		return
	}
	if _, err := o.publisher.Publish(ctx, ch, ev); err != nil {
		o.logger.Warn("failed to publish content-delta event", "error", err)
	}
}

func (o *Orchestrator) announceSources(ctx context.Context, ch eventbus.Channel, kc *KnowledgeContext) {
	if kc == nil {
		return
	}
	for _, s := range kc.LegislationSources {
		o.publish(ctx, ch, eventbus.EventLegalSource, eventbus.LegalSourcePayload{ActName: s.ActName, Section: s.Section, URI: s.DocURI})
	}
	for _, s := range kc.CaseLawSources {
		o.publish(ctx, ch, eventbus.EventCaseLawSource, eventbus.CaseLawSourcePayload{CaseName: s.CaseName, Citation: s.Citation})
	}
	for _, s := range kc.PolicySources {
		o.publish(ctx, ch, eventbus.EventCompanyPolicySource, eventbus.CompanyPolicySourcePayload{PolicyName: s.PolicyName, Section: s.Section})
	}
}

func (o *Orchestrator) publish(ctx context.Context, ch eventbus.Channel, t eventbus.EventType, payload any) {
	ev, err := eventbus.NewEvent(t, payload)
	if err != nil {
		o.logger.Warn("failed to build source event", "type", t, "error", err)
		return
	}
	if _, err := o.publisher.Publish(ctx, ch, ev); err != nil {
		o.logger.Warn("failed to publish source event", "type", t, "error", err)
	}
}
