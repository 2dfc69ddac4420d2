package policyreview

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	ierrors "github.com/aldergate-legal/core/internal/errors"
	"github.com/aldergate-legal/core/pkg/llm"
	"github.com/aldergate-legal/core/pkg/models"
)

// MinIdentificationConfidence is the confidence floor below which type
// identification is treated as a failure rather than a guess, per
// original_source/policy/type_identifier.py's threshold.
const MinIdentificationConfidence = 0.6

// documentExcerptChars bounds how much of the document is shown to the
// model for type identification, matching type_identifier.py's
// first-2000-characters excerpt: enough to recognise a policy's
// subject and structure without spending the full document's tokens on
// a classification call.
const documentExcerptChars = 2000

type typeIdentificationResponse struct {
	PolicyDefinitionID string  `json:"policy_definition_id"`
	Confidence         float64 `json:"confidence"`
	Reasoning          string  `json:"reasoning"`
}

// TypeIdentifier selects which of a tenant's active policy definitions
// a document matches, grounded on
// original_source/policy/type_identifier.py::PolicyTypeIdentifier.
type TypeIdentifier struct {
	model  Generator
	logger *slog.Logger
}

// NewTypeIdentifier constructs a TypeIdentifier backed by model.
func NewTypeIdentifier(model Generator) *TypeIdentifier {
	return &TypeIdentifier{model: model, logger: slog.With("component", "policyreview.typeidentifier")}
}

// Identify asks the model which of definitions the document matches.
// A confidence below MinIdentificationConfidence is a VALIDATION_ERROR,
// per spec.md §4.6: the caller should not proceed with a low-confidence
// guess, since every downstream criterion evaluation is scoped to the
// chosen definition.
func (t *TypeIdentifier) Identify(ctx context.Context, documentText string, definitions []models.PolicyDefinition) (*models.PolicyDefinition, float64, error) {
	if len(definitions) == 0 {
		return nil, 0, ierrors.New(ierrors.KindValidation, "VALIDATION_ERROR", "tenant has no active policy definitions to match against")
	}

	prompt := buildIdentificationPrompt(definitions, documentText)
	text, err := t.model.Generate(ctx, identificationSystemPrompt, []llm.Message{{Role: llm.RoleUser, Content: prompt}})
	if err != nil {
		return nil, 0, ierrors.UpstreamTransient("llm provider", err)
	}

	resp, ok := parseIdentificationResponse(text)
	if !ok {
		return nil, 0, ierrors.New(ierrors.KindValidation, "VALIDATION_ERROR", "policy type identification returned an unparseable response")
	}

	if resp.Confidence < MinIdentificationConfidence {
		return nil, resp.Confidence, ierrors.New(ierrors.KindValidation, "VALIDATION_ERROR",
			fmt.Sprintf("could not confidently identify policy type (confidence %.2f, threshold %.2f)", resp.Confidence, MinIdentificationConfidence))
	}

	for i := range definitions {
		if definitions[i].ID == resp.PolicyDefinitionID {
			return &definitions[i], resp.Confidence, nil
		}
	}

	return nil, resp.Confidence, ierrors.New(ierrors.KindValidation, "VALIDATION_ERROR", "identified policy_definition_id does not match any active definition")
}

const identificationSystemPrompt = `You classify an uploaded policy document against a fixed list of known policy types for a UK social housing provider.

Respond with JSON only, matching this exact shape:
{"policy_definition_id": "<id from the list>", "confidence": <0..1>, "reasoning": "<one sentence>"}`

func buildIdentificationPrompt(definitions []models.PolicyDefinition, documentText string) string {
	var b strings.Builder
	b.WriteString("Known policy types:\n")
	for _, d := range definitions {
		fmt.Fprintf(&b, "- id=%s name=%q required_sections=%v\n", d.ID, d.Name, d.RequiredSections)
	}
	b.WriteString("\nDocument excerpt:\n")
	b.WriteString(excerpt(documentText, documentExcerptChars))
	return b.String()
}

func excerpt(text string, max int) string {
	if len(text) <= max {
		return text
	}
	return text[:max]
}

func parseIdentificationResponse(text string) (typeIdentificationResponse, bool) {
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start < 0 || end <= start {
		return typeIdentificationResponse{}, false
	}
	var resp typeIdentificationResponse
	if err := json.Unmarshal([]byte(text[start:end+1]), &resp); err != nil {
		return typeIdentificationResponse{}, false
	}
	return resp, true
}
