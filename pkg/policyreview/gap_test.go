package policyreview

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aldergate-legal/core/pkg/models"
)

func TestAnalyzeGapsFlagsHighPriorityRedCriteriaAsCritical(t *testing.T) {
	criteria := []models.CriterionResult{
		{Criterion: models.ComplianceCriterion{Name: "Arrears process", Priority: models.PriorityHigh}, Rating: models.RatingRed, Evidence: "no escalation steps described"},
	}
	gaps := AnalyzeGaps(criteria, nil, "some document text")
	a := assert.New(t)
	a.Len(gaps, 1)
	a.Equal(models.GapCritical, gaps[0].Severity)
	a.Contains(gaps[0].Description, "Arrears process")
}

func TestAnalyzeGapsFlagsNonHighPriorityRedCriteriaAsImportant(t *testing.T) {
	criteria := []models.CriterionResult{
		{Criterion: models.ComplianceCriterion{Name: "Arrears process", Priority: models.PriorityMedium}, Rating: models.RatingRed, Evidence: "no escalation steps described"},
	}
	gaps := AnalyzeGaps(criteria, nil, "some document text")
	a := assert.New(t)
	a.Len(gaps, 1)
	a.Equal(models.GapImportant, gaps[0].Severity)
}

func TestAnalyzeGapsFlagsMissingRequiredSectionsAsCritical(t *testing.T) {
	definition := &models.PolicyDefinition{RequiredSections: []string{"Appeals Process", "Contact Details"}}
	document := "This policy covers the Appeals Process in detail."

	gaps := AnalyzeGaps(nil, definition, document)
	assert.Len(t, gaps, 1)
	assert.Equal(t, models.GapCritical, gaps[0].Severity)
	assert.Contains(t, gaps[0].Description, "Contact Details")
}

func TestAnalyzeGapsIsCaseInsensitiveForRequiredSections(t *testing.T) {
	definition := &models.PolicyDefinition{RequiredSections: []string{"appeals process"}}
	document := "See APPEALS PROCESS below for details."

	gaps := AnalyzeGaps(nil, definition, document)
	assert.Empty(t, gaps)
}

func TestAnalyzeGapsWithNilDefinitionOnlyReportsRedCriteria(t *testing.T) {
	criteria := []models.CriterionResult{
		{Criterion: models.ComplianceCriterion{Name: "X"}, Rating: models.RatingAmber},
	}
	gaps := AnalyzeGaps(criteria, nil, "text")
	assert.Empty(t, gaps)
}
