package policyreview

import (
	"sort"

	"github.com/aldergate-legal/core/pkg/models"
)

var actionPriorityRank = map[models.ActionPriority]int{
	models.ActionCritical:  0,
	models.ActionImportant: 1,
	models.ActionAdvisory:  2,
}

// RecommendedActions derives a prioritised action list from every
// non-green criterion that carries a non-empty recommendation, grounded
// on original_source/policy/review_engine.py::_generate_recommended_actions's
// rating-to-priority mapping: red+high-priority criteria are critical,
// other red criteria are important, and everything else non-green
// (amber) is advisory, per spec.md §4.6 step 6. The result is sorted by
// priority (critical, then important, then advisory), stable within a
// tier so evaluation order is preserved for ties.
func RecommendedActions(criteria []models.CriterionResult) []models.Action {
	var actions []models.Action
	for _, c := range criteria {
		if c.Rating == models.RatingGreen || c.Recommendation == "" {
			continue
		}
		priority := models.ActionAdvisory
		if c.Rating == models.RatingRed {
			if c.Criterion.Priority == models.PriorityHigh {
				priority = models.ActionCritical
			} else {
				priority = models.ActionImportant
			}
		}
		actions = append(actions, models.Action{Description: c.Recommendation, Priority: priority})
	}
	sort.SliceStable(actions, func(i, j int) bool {
		return actionPriorityRank[actions[i].Priority] < actionPriorityRank[actions[j].Priority]
	})
	return actions
}
