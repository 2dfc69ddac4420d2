package agent

import (
	"context"
	"log/slog"
	"strings"

	"github.com/aldergate-legal/core/pkg/llm"
)

// maxTitleLength caps a generated conversation title, per
// original_source/agents/orchestrator.py's title generation truncation.
const maxTitleLength = 60

const titleSystemPrompt = `Summarise the user's question as a short conversation title of no more than eight words.
Respond with the title text only, no quotation marks, no punctuation at the end.`

// TitleGenerator names a conversation from its opening query, run once
// per conversation (models.Conversation.NeedsTitle gates when).
type TitleGenerator struct {
	model  Generator
	logger *slog.Logger
}

// NewTitleGenerator constructs a TitleGenerator backed by a fast-tier
// model client.
func NewTitleGenerator(model Generator) *TitleGenerator {
	return &TitleGenerator{model: model, logger: slog.With("component", "agent.titlegen")}
}

// Generate produces a short title for query. On model failure it falls
// back to a truncated copy of the query itself, since a missing title
// is worse than an imperfect one.
func (t *TitleGenerator) Generate(ctx context.Context, query string) string {
	text, err := t.model.Generate(ctx, titleSystemPrompt, []llm.Message{{Role: llm.RoleUser, Content: query}})
	if err != nil || strings.TrimSpace(text) == "" {
		t.logger.Warn("title generation failed, falling back to truncated query", "error", err)
		text = query
	}
	return truncateTitle(strings.TrimSpace(strings.Trim(strings.TrimSpace(text), "\"")))
}

func truncateTitle(s string) string {
	if len(s) <= maxTitleLength {
		return s
	}
	cut := s[:maxTitleLength]
	if i := strings.LastIndexByte(cut, ' '); i > 0 {
		cut = cut[:i]
	}
	return strings.TrimSpace(cut) + "…"
}
