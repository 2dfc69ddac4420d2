package policyreview

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	ierrors "github.com/aldergate-legal/core/internal/errors"
	"github.com/aldergate-legal/core/pkg/legislation"
	"github.com/aldergate-legal/core/pkg/llm"
	"github.com/aldergate-legal/core/pkg/models"
	"github.com/aldergate-legal/core/pkg/retrieval"
)

// guidanceResultLimit bounds how many internal-guidance passages back
// one criterion's evaluation prompt.
const guidanceResultLimit = 3

// LegislationSearcher is the narrow legislation-gateway dependency the
// evaluator needs, mirroring pkg/verification.LegislationSearcher.
type LegislationSearcher interface {
	SearchLegislation(ctx context.Context, p legislation.SearchLegislationParams) (*legislation.SearchResponse, error)
}

type criterionJudgement struct {
	Rating         string `json:"rating"`
	Evidence       string `json:"evidence"`
	Recommendation string `json:"recommendation"`
}

// Evaluator rates one compliance criterion against a document, grounded
// on original_source/policy/evaluator.py::CriterionEvaluator.evaluate:
// retrieve internal guidance (C2) and relevant legislation (C3), then
// ask the model for a strict-JSON red/amber/green judgement.
type Evaluator struct {
	retrieval   *retrieval.Service
	legislation LegislationSearcher
	model       Generator
	logger      *slog.Logger
}

// NewEvaluator constructs an Evaluator.
func NewEvaluator(retrievalSvc *retrieval.Service, legislationSource LegislationSearcher, model Generator) *Evaluator {
	return &Evaluator{retrieval: retrievalSvc, legislation: legislationSource, model: model, logger: slog.With("component", "policyreview.evaluator")}
}

// Evaluate rates criterion against documentText for tenantID, returning
// a models.CriterionResult. A retrieval-leg failure degrades to an
// empty guidance/legislation context rather than aborting the whole
// review over one criterion's enrichment.
func (e *Evaluator) Evaluate(ctx context.Context, tenantID, documentText string, criterion models.ComplianceCriterion) (models.CriterionResult, error) {
	guidance := e.searchGuidance(ctx, tenantID, criterion)
	statute := e.searchLegislation(ctx, criterion)

	prompt := buildCriterionPrompt(criterion, documentText, guidance, statute)
	text, err := e.model.Generate(ctx, criterionSystemPrompt, []llm.Message{{Role: llm.RoleUser, Content: prompt}})
	if err != nil {
		return models.CriterionResult{}, ierrors.UpstreamTransient("llm provider", err)
	}

	judgement, ok := parseCriterionJudgement(text)
	if !ok {
		return models.CriterionResult{}, ierrors.New(ierrors.KindValidation, "VALIDATION_ERROR", "criterion evaluation returned an unparseable response")
	}

	rating, ok := normalizeRating(judgement.Rating)
	if !ok {
		return models.CriterionResult{}, ierrors.New(ierrors.KindValidation, "VALIDATION_ERROR", fmt.Sprintf("criterion evaluation returned an unrecognised rating %q", judgement.Rating))
	}

	return models.CriterionResult{
		Criterion:      criterion,
		Rating:         rating,
		Evidence:       judgement.Evidence,
		Recommendation: judgement.Recommendation,
	}, nil
}

func (e *Evaluator) searchGuidance(ctx context.Context, tenantID string, criterion models.ComplianceCriterion) []retrieval.EnrichedResult {
	if e.retrieval == nil {
		return nil
	}
	results, err := e.retrieval.HybridSearch(ctx, retrieval.Query{
		Text:     criterion.Name + " " + criterion.Description,
		TenantID: tenantID,
		Filter:   retrieval.Filter{Categories: []string{"policy"}},
		Limit:    guidanceResultLimit,
	})
	if err != nil {
		e.logger.Warn("guidance search failed", "criterion", criterion.Name, "error", err)
		return nil
	}
	return results
}

func (e *Evaluator) searchLegislation(ctx context.Context, criterion models.ComplianceCriterion) []map[string]any {
	if e.legislation == nil {
		return nil
	}
	resp, err := e.legislation.SearchLegislation(ctx, legislation.SearchLegislationParams{Query: criterion.Name, Limit: guidanceResultLimit})
	if err != nil {
		e.logger.Warn("legislation search failed", "criterion", criterion.Name, "error", err)
		return nil
	}
	return resp.Results
}

const criterionSystemPrompt = `You are a compliance reviewer for UK social housing policy documents.
Rate how well the document satisfies ONE named criterion.

Respond with JSON only, matching this exact shape:
{"rating": "green|amber|red", "evidence": "<quote or paraphrase from the document, or note its absence>", "recommendation": "<what to change, empty if green>"}`

func buildCriterionPrompt(criterion models.ComplianceCriterion, documentText string, guidance []retrieval.EnrichedResult, statute []map[string]any) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Criterion: %s (%s priority)\n%s\n\n", criterion.Name, criterion.Priority, criterion.Description)

	if len(guidance) > 0 {
		b.WriteString("Internal guidance:\n")
		for _, g := range guidance {
			fmt.Fprintf(&b, "- %s\n", g.Content)
		}
		b.WriteString("\n")
	}
	if len(statute) > 0 {
		b.WriteString("Relevant legislation:\n")
		for _, s := range statute {
			if title, ok := s["title"].(string); ok {
				fmt.Fprintf(&b, "- %s\n", title)
			}
		}
		b.WriteString("\n")
	}

	b.WriteString("Document:\n")
	b.WriteString(excerpt(documentText, documentExcerptChars))
	return b.String()
}

func parseCriterionJudgement(text string) (criterionJudgement, bool) {
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start < 0 || end <= start {
		return criterionJudgement{}, false
	}
	var j criterionJudgement
	if err := json.Unmarshal([]byte(text[start:end+1]), &j); err != nil {
		return criterionJudgement{}, false
	}
	return j, true
}

func normalizeRating(s string) (models.Rating, bool) {
	switch models.Rating(strings.ToLower(strings.TrimSpace(s))) {
	case models.RatingGreen:
		return models.RatingGreen, true
	case models.RatingAmber:
		return models.RatingAmber, true
	case models.RatingRed:
		return models.RatingRed, true
	default:
		return "", false
	}
}
