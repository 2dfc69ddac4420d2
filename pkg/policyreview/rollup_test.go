package policyreview

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aldergate-legal/core/pkg/models"
)

func criterionResult(rating models.Rating) models.CriterionResult {
	return models.CriterionResult{Criterion: models.ComplianceCriterion{Name: "c", Priority: models.PriorityMedium}, Rating: rating}
}

func criterionResultWithPriority(rating models.Rating, priority models.Priority) models.CriterionResult {
	return models.CriterionResult{Criterion: models.ComplianceCriterion{Name: "c", Priority: priority}, Rating: rating}
}

func TestCalculateOverallRatingNoCriteriaIsRed(t *testing.T) {
	assert.Equal(t, models.RatingRed, CalculateOverallRating(nil))
}

func TestCalculateOverallRatingHighPriorityRedDominates(t *testing.T) {
	criteria := []models.CriterionResult{
		criterionResultWithPriority(models.RatingRed, models.PriorityHigh),
		criterionResultWithPriority(models.RatingGreen, models.PriorityMedium),
		criterionResultWithPriority(models.RatingGreen, models.PriorityMedium),
	}
	assert.Equal(t, models.RatingRed, CalculateOverallRating(criteria))
}

func TestCalculateOverallRatingHighPriorityGreenWithRedAmberIsAmber(t *testing.T) {
	criteria := []models.CriterionResult{
		criterionResultWithPriority(models.RatingGreen, models.PriorityHigh),
		criterionResultWithPriority(models.RatingRed, models.PriorityMedium),
		criterionResultWithPriority(models.RatingAmber, models.PriorityMedium),
	}
	assert.Equal(t, models.RatingAmber, CalculateOverallRating(criteria))
}

func TestCalculateOverallRatingAllGreenIsGreen(t *testing.T) {
	criteria := []models.CriterionResult{criterionResult(models.RatingGreen), criterionResult(models.RatingGreen)}
	assert.Equal(t, models.RatingGreen, CalculateOverallRating(criteria))
}

func TestCalculateOverallRatingSingleAmberIsAmber(t *testing.T) {
	criteria := []models.CriterionResult{criterionResult(models.RatingGreen), criterionResult(models.RatingAmber)}
	assert.Equal(t, models.RatingAmber, CalculateOverallRating(criteria))
}

func TestCalculateOverallRatingSingleRedOutOfFourStaysAmber(t *testing.T) {
	criteria := []models.CriterionResult{
		criterionResult(models.RatingRed),
		criterionResult(models.RatingGreen),
		criterionResult(models.RatingGreen),
		criterionResult(models.RatingGreen),
	}
	assert.Equal(t, models.RatingAmber, CalculateOverallRating(criteria))
}

func TestCalculateOverallRatingMoreThanThresholdRedIsRed(t *testing.T) {
	criteria := []models.CriterionResult{
		criterionResult(models.RatingRed),
		criterionResult(models.RatingRed),
		criterionResult(models.RatingRed),
		criterionResult(models.RatingGreen),
	}
	assert.Equal(t, models.RatingRed, CalculateOverallRating(criteria))
}
