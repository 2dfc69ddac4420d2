package policyreview

import (
	"fmt"
	"strings"

	"github.com/aldergate-legal/core/pkg/models"
)

// AnalyzeGaps derives the gap list from criterion results and the
// definition's required sections, grounded on
// original_source/policy/review_engine.py::_generate_gap_analysis: every
// missing required section is a critical gap; a red criterion is a
// critical gap when its priority is high and an important gap
// otherwise (spec.md §4.5 step 5). Amber criteria carry their own
// recommendation instead of a gap entry.
func AnalyzeGaps(criteria []models.CriterionResult, definition *models.PolicyDefinition, documentText string) []models.Gap {
	var gaps []models.Gap

	for _, c := range criteria {
		if c.Rating == models.RatingRed {
			desc := fmt.Sprintf("%s: %s", c.Criterion.Name, c.Evidence)
			severity := models.GapImportant
			if c.Criterion.Priority == models.PriorityHigh {
				severity = models.GapCritical
			}
			gaps = append(gaps, models.Gap{Description: strings.TrimSuffix(desc, ": "), Severity: severity})
		}
	}

	if definition == nil {
		return gaps
	}
	lower := strings.ToLower(documentText)
	for _, section := range definition.RequiredSections {
		if section == "" {
			continue
		}
		if !strings.Contains(lower, strings.ToLower(section)) {
			gaps = append(gaps, models.Gap{
				Description: fmt.Sprintf("required section %q was not found in the document", section),
				Severity:    models.GapCritical,
			})
		}
	}

	return gaps
}
