package legislation

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	ierrors "github.com/aldergate-legal/core/internal/errors"
)

// Snapshot is a point-in-time summary of the legislation dataset,
// keyed by legislation type (spec.md §4.3's "dataset statistics"),
// grounded on original_source's lex_changes.py snapshot-diff approach.
type Snapshot struct {
	TakenAt time.Time      `json:"taken_at"`
	Counts  map[string]int `json:"counts"`
}

// Change describes a detected shift in the dataset between two
// snapshots for a single legislation type.
type Change struct {
	LegislationType string `json:"legislation_type"`
	Before          int    `json:"before"`
	After           int    `json:"after"`
	Delta           int    `json:"delta"`
}

// Detector captures dataset snapshots and persists them as timestamped
// files, matching spec.md §4.3's stated persistence mechanism (no
// corpus library covers this; stdlib os is the correct choice per
// DESIGN.md).
type Detector struct {
	factory *Factory
	dir     string
}

// NewDetector constructs a Detector writing snapshot files under dir.
func NewDetector(factory *Factory, dir string) *Detector {
	return &Detector{factory: factory, dir: dir}
}

// CaptureSnapshot queries the active legislation service for dataset
// statistics and returns a Snapshot. Stats values that are not numeric
// counts are ignored.
func (d *Detector) CaptureSnapshot(ctx context.Context) (Snapshot, error) {
	stats, err := d.factory.Client().GetStats(ctx)
	if err != nil {
		return Snapshot{}, err
	}

	counts := make(map[string]int, len(stats))
	for k, v := range stats {
		if n, ok := numericCount(v); ok {
			counts[k] = n
		}
	}
	return Snapshot{TakenAt: time.Now(), Counts: counts}, nil
}

func numericCount(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		return int(n), true
	case int:
		return n, true
	}
	return 0, false
}

// Persist writes snap to a timestamped JSON file under the detector's
// directory and returns the file path.
func (d *Detector) Persist(snap Snapshot) (string, error) {
	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return "", ierrors.Internal("create snapshot directory", err)
	}
	name := fmt.Sprintf("legislation-snapshot-%s.json", snap.TakenAt.UTC().Format("20060102T150405Z"))
	path := filepath.Join(d.dir, name)

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return "", ierrors.Internal("marshal snapshot", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", ierrors.Internal("write snapshot file", err)
	}
	return path, nil
}

// LoadLatest reads the most recently written snapshot file from dir, or
// returns a zero Snapshot if none exist.
func (d *Detector) LoadLatest() (Snapshot, error) {
	entries, err := os.ReadDir(d.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return Snapshot{}, nil
		}
		return Snapshot{}, ierrors.Internal("read snapshot directory", err)
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	if len(names) == 0 {
		return Snapshot{}, nil
	}
	sort.Strings(names)
	latest := names[len(names)-1]

	data, err := os.ReadFile(filepath.Join(d.dir, latest))
	if err != nil {
		return Snapshot{}, ierrors.Internal("read snapshot file", err)
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, ierrors.Internal("parse snapshot file", err)
	}
	return snap, nil
}

// Diff compares two snapshots and returns one Change per legislation
// type whose count differs (present in either snapshot).
func Diff(before, after Snapshot) []Change {
	types := make(map[string]struct{})
	for k := range before.Counts {
		types[k] = struct{}{}
	}
	for k := range after.Counts {
		types[k] = struct{}{}
	}

	var changes []Change
	for t := range types {
		b := before.Counts[t]
		a := after.Counts[t]
		if b != a {
			changes = append(changes, Change{LegislationType: t, Before: b, After: a, Delta: a - b})
		}
	}
	sort.Slice(changes, func(i, j int) bool { return changes[i].LegislationType < changes[j].LegislationType })
	return changes
}
