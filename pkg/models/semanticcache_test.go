package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSemanticCacheEntryLiveRequiresMatchingTenant(t *testing.T) {
	e := &SemanticCacheEntry{TenantID: "tenant-a", TTL: time.Hour, CreatedAt: time.Now()}
	assert.True(t, e.Live("tenant-a", time.Now()))
	assert.False(t, e.Live("tenant-b", time.Now()))
}

func TestSemanticCacheEntryLiveRespectsTTL(t *testing.T) {
	created := time.Now().Add(-2 * time.Hour)
	e := &SemanticCacheEntry{TenantID: "tenant-a", TTL: time.Hour, CreatedAt: created}
	assert.False(t, e.Live("tenant-a", time.Now()))
}
