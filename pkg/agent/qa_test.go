package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aldergate-legal/core/pkg/verification"
)

func TestQAReviewTestingModeAlwaysApproves(t *testing.T) {
	q := NewQAReviewer(true)
	verdict := q.Review("", verification.Result{CitationsChecked: 1, CitationsRemoved: 1})
	assert.True(t, verdict.Approved)
}

func TestQAReviewRejectsTooShortResponse(t *testing.T) {
	q := NewQAReviewer(false)
	verdict := q.Review("too short", verification.Result{})
	assert.False(t, verdict.Approved)
}

func TestQAReviewRejectsWhenAllCitationsRemoved(t *testing.T) {
	q := NewQAReviewer(false)
	content := "Under the Housing Act 1985, s.8, the authority must act within a reasonable period."
	verdict := q.Review(content, verification.Result{CitationsChecked: 1, CitationsRemoved: 1})
	assert.False(t, verdict.Approved)
}

func TestQAReviewRejectsRefusalPhrasing(t *testing.T) {
	q := NewQAReviewer(false)
	verdict := q.Review("I cannot help with that request, sorry about that.", verification.Result{})
	assert.False(t, verdict.Approved)
}

func TestQAReviewApprovesSubstantiveResponse(t *testing.T) {
	q := NewQAReviewer(false)
	content := "Under the Housing Act 1985, s.8(1), the local authority has a duty to provide suitable accommodation."
	verdict := q.Review(content, verification.Result{CitationsChecked: 1, CitationsVerified: 1})
	assert.True(t, verdict.Approved)
}
