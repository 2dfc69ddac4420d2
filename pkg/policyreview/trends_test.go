package policyreview

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aldergate-legal/core/pkg/models"
)

func TestCalculateTrendsWithNoCompletedReviewsIsEmpty(t *testing.T) {
	trends := CalculateTrends([]models.PolicyReview{{}})
	assert.Equal(t, 0, trends.ReviewCount)
}

func TestCalculateTrendsCountsEachRatingBucket(t *testing.T) {
	reviews := []models.PolicyReview{
		*reviewWithResult(models.RatingGreen, nil),
		*reviewWithResult(models.RatingAmber, nil),
		*reviewWithResult(models.RatingRed, nil),
	}
	trends := CalculateTrends(reviews)
	assert.Equal(t, 3, trends.ReviewCount)
	assert.Equal(t, 1, trends.Counts.Green)
	assert.Equal(t, 1, trends.Counts.Amber)
	assert.Equal(t, 1, trends.Counts.Red)
}

func TestCalculateTrendsTracksLatestAndOldest(t *testing.T) {
	// newest-first, per ReviewStore.ListForDefinition's contract.
	reviews := []models.PolicyReview{
		*reviewWithResult(models.RatingGreen, nil),
		*reviewWithResult(models.RatingRed, nil),
	}
	trends := CalculateTrends(reviews)
	assert.Equal(t, models.RatingGreen, trends.LatestOverall)
	assert.Equal(t, models.RatingRed, trends.OldestOverall)
}

func TestCalculateTrendsImprovingStreak(t *testing.T) {
	reviews := []models.PolicyReview{
		*reviewWithResult(models.RatingGreen, nil),
		*reviewWithResult(models.RatingAmber, nil),
		*reviewWithResult(models.RatingRed, nil),
	}
	trends := CalculateTrends(reviews)
	assert.Equal(t, 2, trends.ImprovingStreak)
	assert.Equal(t, 0, trends.WorseningStreak)
}

func TestCalculateTrendsWorseningStreak(t *testing.T) {
	reviews := []models.PolicyReview{
		*reviewWithResult(models.RatingRed, nil),
		*reviewWithResult(models.RatingAmber, nil),
		*reviewWithResult(models.RatingGreen, nil),
	}
	trends := CalculateTrends(reviews)
	assert.Equal(t, 2, trends.WorseningStreak)
	assert.Equal(t, 0, trends.ImprovingStreak)
}
