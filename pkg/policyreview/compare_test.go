package policyreview

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aldergate-legal/core/pkg/models"
)

func reviewWithResult(overall models.Rating, criteria []models.CriterionResult) *models.PolicyReview {
	return &models.PolicyReview{Result: &models.PolicyReviewResult{Overall: overall, Criteria: criteria}}
}

func TestCompareRejectsIncompleteReviews(t *testing.T) {
	complete := reviewWithResult(models.RatingGreen, nil)

	_, err := Compare(&models.PolicyReview{}, complete)
	assert.Error(t, err)

	_, err = Compare(complete, &models.PolicyReview{})
	assert.Error(t, err)
}

func TestCompareDetectsOverallImprovement(t *testing.T) {
	previous := reviewWithResult(models.RatingRed, nil)
	current := reviewWithResult(models.RatingGreen, nil)

	result, err := Compare(previous, current)
	require.NoError(t, err)
	assert.True(t, result.OverallImproved)
	assert.False(t, result.OverallRegressed)
}

func TestCompareDetectsOverallRegression(t *testing.T) {
	previous := reviewWithResult(models.RatingGreen, nil)
	current := reviewWithResult(models.RatingRed, nil)

	result, err := Compare(previous, current)
	require.NoError(t, err)
	assert.True(t, result.OverallRegressed)
	assert.False(t, result.OverallImproved)
}

func TestCompareDerivesPerCriterionDeltas(t *testing.T) {
	previous := reviewWithResult(models.RatingAmber, []models.CriterionResult{
		{Criterion: models.ComplianceCriterion{Name: "arrears"}, Rating: models.RatingRed},
		{Criterion: models.ComplianceCriterion{Name: "notices"}, Rating: models.RatingGreen},
	})
	current := reviewWithResult(models.RatingGreen, []models.CriterionResult{
		{Criterion: models.ComplianceCriterion{Name: "arrears"}, Rating: models.RatingGreen},
		{Criterion: models.ComplianceCriterion{Name: "notices"}, Rating: models.RatingGreen},
	})

	result, err := Compare(previous, current)
	require.NoError(t, err)
	require.Len(t, result.CriterionDeltas, 2)

	var arrears CriterionDelta
	for _, d := range result.CriterionDeltas {
		if d.CriterionName == "arrears" {
			arrears = d
		}
	}
	assert.True(t, arrears.Improved)
	assert.Equal(t, models.RatingRed, arrears.Previous)
	assert.Equal(t, models.RatingGreen, arrears.Current)
}

func TestCompareIgnoresCriteriaNotPresentInBothReviews(t *testing.T) {
	previous := reviewWithResult(models.RatingGreen, []models.CriterionResult{
		{Criterion: models.ComplianceCriterion{Name: "old-criterion"}, Rating: models.RatingGreen},
	})
	current := reviewWithResult(models.RatingGreen, []models.CriterionResult{
		{Criterion: models.ComplianceCriterion{Name: "new-criterion"}, Rating: models.RatingGreen},
	})

	result, err := Compare(previous, current)
	require.NoError(t, err)
	assert.Empty(t, result.CriterionDeltas)
}
