package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageValidateConfidenceImpliesVerification(t *testing.T) {
	m := &Message{State: MessageStateSuccess, Confidence: ConfidenceHigh}
	err := m.Validate()
	require.Error(t, err)
}

func TestMessageValidateRejectsNonTerminalConfidence(t *testing.T) {
	m := &Message{
		State:        MessageStatePending,
		Confidence:   ConfidenceHigh,
		Verification: &VerificationResult{},
	}
	err := m.Validate()
	require.Error(t, err)
}

func TestMessageValidateAcceptsTerminalSuccessWithBoth(t *testing.T) {
	m := &Message{
		State:        MessageStateSuccess,
		Confidence:   ConfidenceHigh,
		Verification: &VerificationResult{Verified: 1},
	}
	assert.NoError(t, m.Validate())
}

func TestMessageValidateAcceptsNeitherSet(t *testing.T) {
	m := &Message{State: MessageStatePending}
	assert.NoError(t, m.Validate())
}
