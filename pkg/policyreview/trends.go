package policyreview

import "github.com/aldergate-legal/core/pkg/models"

// RatingCounts tallies how many reviews in a trend window landed in
// each rating bucket.
type RatingCounts struct {
	Green int
	Amber int
	Red   int
}

// Trends is the rollup spec.md §4.6's trends operation returns for a
// policy definition's review history. reviews is assumed newest-first,
// matching ReviewStore.ListForDefinition's contract.
type Trends struct {
	ReviewCount     int
	Counts          RatingCounts
	LatestOverall   models.Rating
	OldestOverall   models.Rating
	ImprovingStreak int
	WorseningStreak int
}

// CalculateTrends derives rating counts and streaks from a definition's
// review history, pure data with no model call, grounded on
// original_source/policy/review_engine.py's trend summary (counts plus
// direction of travel) re-expressed without its pandas dependency.
func CalculateTrends(reviews []models.PolicyReview) Trends {
	completed := make([]models.PolicyReview, 0, len(reviews))
	for _, r := range reviews {
		if r.Result != nil {
			completed = append(completed, r)
		}
	}
	if len(completed) == 0 {
		return Trends{}
	}

	t := Trends{
		ReviewCount:   len(completed),
		LatestOverall: completed[0].Result.Overall,
		OldestOverall: completed[len(completed)-1].Result.Overall,
	}
	for _, r := range completed {
		switch r.Result.Overall {
		case models.RatingGreen:
			t.Counts.Green++
		case models.RatingAmber:
			t.Counts.Amber++
		case models.RatingRed:
			t.Counts.Red++
		}
	}

	// completed is newest-first; an improving streak is a run of reviews,
	// starting from the most recent, each no worse than the one before it
	// chronologically (i.e. no worse than the next entry in this slice).
	for i := 0; i+1 < len(completed); i++ {
		cur := ratingRank(completed[i].Result.Overall)
		prev := ratingRank(completed[i+1].Result.Overall)
		if cur <= prev {
			t.ImprovingStreak++
		} else {
			break
		}
	}
	for i := 0; i+1 < len(completed); i++ {
		cur := ratingRank(completed[i].Result.Overall)
		prev := ratingRank(completed[i+1].Result.Overall)
		if cur >= prev {
			t.WorseningStreak++
		} else {
			break
		}
	}

	return t
}
