package policyreview

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ierrors "github.com/aldergate-legal/core/internal/errors"
	"github.com/aldergate-legal/core/pkg/llm"
	"github.com/aldergate-legal/core/pkg/models"
)

type fakeGenerator struct {
	response string
	err      error
}

func (f *fakeGenerator) Generate(ctx context.Context, systemPrompt string, messages []llm.Message) (string, error) {
	return f.response, f.err
}

func defs() []models.PolicyDefinition {
	return []models.PolicyDefinition{
		{ID: "d1", Name: "Rent Arrears Policy", RequiredSections: []string{"Escalation"}},
		{ID: "d2", Name: "Void Management Policy"},
	}
}

func TestTypeIdentifierRejectsEmptyDefinitions(t *testing.T) {
	ti := NewTypeIdentifier(&fakeGenerator{})
	_, _, err := ti.Identify(context.Background(), "text", nil)
	assert.True(t, ierrors.Is(err, ierrors.KindValidation))
}

func TestTypeIdentifierSelectsMatchingDefinition(t *testing.T) {
	gen := &fakeGenerator{response: `{"policy_definition_id": "d1", "confidence": 0.9, "reasoning": "mentions arrears"}`}
	ti := NewTypeIdentifier(gen)

	definition, confidence, err := ti.Identify(context.Background(), "this policy covers rent arrears", defs())
	require.NoError(t, err)
	assert.Equal(t, "d1", definition.ID)
	assert.InDelta(t, 0.9, confidence, 0.0001)
}

func TestTypeIdentifierRejectsLowConfidence(t *testing.T) {
	gen := &fakeGenerator{response: `{"policy_definition_id": "d1", "confidence": 0.2, "reasoning": "unsure"}`}
	ti := NewTypeIdentifier(gen)

	_, _, err := ti.Identify(context.Background(), "ambiguous text", defs())
	assert.True(t, ierrors.Is(err, ierrors.KindValidation))
}

func TestTypeIdentifierRejectsUnparseableResponse(t *testing.T) {
	gen := &fakeGenerator{response: "not json"}
	ti := NewTypeIdentifier(gen)

	_, _, err := ti.Identify(context.Background(), "text", defs())
	assert.True(t, ierrors.Is(err, ierrors.KindValidation))
}

func TestTypeIdentifierRejectsUnknownDefinitionID(t *testing.T) {
	gen := &fakeGenerator{response: `{"policy_definition_id": "missing", "confidence": 0.95, "reasoning": "x"}`}
	ti := NewTypeIdentifier(gen)

	_, _, err := ti.Identify(context.Background(), "text", defs())
	assert.True(t, ierrors.Is(err, ierrors.KindValidation))
}

func TestTypeIdentifierPropagatesModelError(t *testing.T) {
	gen := &fakeGenerator{err: assert.AnError}
	ti := NewTypeIdentifier(gen)

	_, _, err := ti.Identify(context.Background(), "text", defs())
	assert.True(t, ierrors.Is(err, ierrors.KindUpstreamTransient))
}
