package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDocumentDeadLettersAfterThreeFailures(t *testing.T) {
	d := &Document{}
	d.RecordFailure("boom 1")
	assert.False(t, d.DeadLettered)
	d.RecordFailure("boom 2")
	assert.False(t, d.DeadLettered)
	d.RecordFailure("boom 3")
	assert.True(t, d.DeadLettered)
	assert.Equal(t, 3, d.RetryCount)
}

func TestDocumentResetRetriesClearsDeadLetter(t *testing.T) {
	d := &Document{RetryCount: 3, DeadLettered: true, LastError: "boom"}
	d.ResetRetries()
	assert.False(t, d.DeadLettered)
	assert.Zero(t, d.RetryCount)
	assert.Empty(t, d.LastError)
}
