package policyreview

import (
	ierrors "github.com/aldergate-legal/core/internal/errors"
	"github.com/aldergate-legal/core/pkg/models"
)

// CriterionDelta is one criterion's rating movement between two
// reviews of the same policy definition.
type CriterionDelta struct {
	CriterionName string
	Previous      models.Rating
	Current       models.Rating
	Improved      bool
	Regressed     bool
}

// ComparisonResult is the outcome of comparing two completed reviews,
// per spec.md §4.6's comparison operation. It is pure data derived from
// two already-persisted PolicyReviewResult values; no model call is
// involved.
type ComparisonResult struct {
	PreviousOverall  models.Rating
	CurrentOverall   models.Rating
	OverallImproved  bool
	OverallRegressed bool
	CriterionDeltas  []CriterionDelta
}

// ratingRank orders ratings best-to-worst so movement can be compared
// numerically: green is best, red is worst.
func ratingRank(r models.Rating) int {
	switch r {
	case models.RatingGreen:
		return 0
	case models.RatingAmber:
		return 1
	case models.RatingRed:
		return 2
	default:
		return 1
	}
}

// Compare derives the rating movement between two completed reviews of
// the same policy definition. Both reviews must already carry a Result;
// an incomplete review is a validation error rather than a nil-result
// panic.
func Compare(previous, current *models.PolicyReview) (*ComparisonResult, error) {
	if previous == nil || previous.Result == nil {
		return nil, ierrors.Validation("previous_review", "must be a completed review with a result")
	}
	if current == nil || current.Result == nil {
		return nil, ierrors.Validation("current_review", "must be a completed review with a result")
	}

	previousByName := make(map[string]models.Rating, len(previous.Result.Criteria))
	for _, c := range previous.Result.Criteria {
		previousByName[c.Criterion.Name] = c.Rating
	}

	deltas := make([]CriterionDelta, 0, len(current.Result.Criteria))
	for _, c := range current.Result.Criteria {
		prevRating, ok := previousByName[c.Criterion.Name]
		if !ok {
			continue
		}
		deltas = append(deltas, CriterionDelta{
			CriterionName: c.Criterion.Name,
			Previous:      prevRating,
			Current:       c.Rating,
			Improved:      ratingRank(c.Rating) < ratingRank(prevRating),
			Regressed:     ratingRank(c.Rating) > ratingRank(prevRating),
		})
	}

	prevOverall := previous.Result.Overall
	currOverall := current.Result.Overall
	return &ComparisonResult{
		PreviousOverall:  prevOverall,
		CurrentOverall:   currOverall,
		OverallImproved:  ratingRank(currOverall) < ratingRank(prevOverall),
		OverallRegressed: ratingRank(currOverall) > ratingRank(prevOverall),
		CriterionDeltas:  deltas,
	}, nil
}
