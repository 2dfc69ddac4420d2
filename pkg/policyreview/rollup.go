package policyreview

import (
	"math"

	"github.com/aldergate-legal/core/pkg/models"
)

// CalculateOverallRating rolls per-criterion ratings up into one
// overall Rating, grounded on
// original_source/policy/review_engine.py::_calculate_overall_rating's
// "more than a third of criteria are red" threshold. The original
// computes that threshold with Python's truncating integer division
// (`len(criteria) // 3`, equivalent to floor); this port uses
// math.Ceil instead (see DESIGN.md's Open Question resolution), since a
// floor threshold makes small criterion sets (e.g. 2 criteria, 1 red)
// trip the red rollup on a single failing criterion, which reads as
// disproportionately harsh for a short checklist.
//
// An empty criterion set is treated as a failing definition (overall
// red), and any high-priority red criterion forces a red rollup
// regardless of the threshold, per spec.md §4.6 step 7.
func CalculateOverallRating(criteria []models.CriterionResult) models.Rating {
	if len(criteria) == 0 {
		return models.RatingRed
	}

	var red, amber int
	for _, c := range criteria {
		switch c.Rating {
		case models.RatingRed:
			red++
			if c.Criterion.Priority == models.PriorityHigh {
				return models.RatingRed
			}
		case models.RatingAmber:
			amber++
		}
	}

	redThreshold := math.Ceil(float64(len(criteria)) / 3.0)
	if float64(red) > redThreshold {
		return models.RatingRed
	}
	if red > 0 || amber > 0 {
		return models.RatingAmber
	}
	return models.RatingGreen
}
