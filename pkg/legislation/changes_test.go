package legislation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiff(t *testing.T) {
	before := Snapshot{TakenAt: time.Now(), Counts: map[string]int{"ukpga": 100, "uksi": 50}}
	after := Snapshot{TakenAt: time.Now(), Counts: map[string]int{"ukpga": 105, "uksi": 50, "asp": 3}}

	changes := Diff(before, after)
	require.Len(t, changes, 2)
	assert.Equal(t, "asp", changes[0].LegislationType)
	assert.Equal(t, 0, changes[0].Before)
	assert.Equal(t, 3, changes[0].After)
	assert.Equal(t, "ukpga", changes[1].LegislationType)
	assert.Equal(t, 5, changes[1].Delta)
}

func TestDetector_PersistAndLoadLatest(t *testing.T) {
	dir := t.TempDir()
	d := NewDetector(nil, dir)

	snap := Snapshot{TakenAt: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC), Counts: map[string]int{"ukpga": 10}}
	path, err := d.Persist(snap)
	require.NoError(t, err)
	assert.FileExists(t, path)

	loaded, err := d.LoadLatest()
	require.NoError(t, err)
	assert.Equal(t, 10, loaded.Counts["ukpga"])
}

func TestDetector_LoadLatestMissingDir(t *testing.T) {
	d := NewDetector(nil, "/nonexistent/path/for/legislation/snapshots")
	snap, err := d.LoadLatest()
	require.NoError(t, err)
	assert.Nil(t, snap.Counts)
}
