package datasource

import (
	"fmt"
	"sort"
	"strings"

	"github.com/vanderheijden86/teamboard/pkg/model"
)

// RecordDiff describes how a refresh changed the team's records.
type RecordDiff struct {
	// Added contains IDs present in the new collection only
	Added []string
	// Removed contains IDs present in the old collection only
	Removed []string
	// Changed lists users whose counters moved
	Changed []CounterChange
	// CountA is the number of records before
	CountA int
	// CountB is the number of records after
	CountB int
}

// CounterChange is the per-counter delta for one user.
type CounterChange struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Completed  int    `json:"completed"`
	InProgress int    `json:"inProgress"`
	Overdue    int    `json:"overdue"`
}

// IsEmpty returns true if nothing changed
func (d RecordDiff) IsEmpty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Changed) == 0
}

// Summary returns a one-line description suitable for a status bar.
func (d RecordDiff) Summary() string {
	if d.IsEmpty() {
		return fmt.Sprintf("no changes (%d users)", d.CountB)
	}
	var parts []string
	if n := len(d.Added); n > 0 {
		parts = append(parts, fmt.Sprintf("+%d users", n))
	}
	if n := len(d.Removed); n > 0 {
		parts = append(parts, fmt.Sprintf("-%d users", n))
	}
	if n := len(d.Changed); n > 0 {
		completed := 0
		for _, c := range d.Changed {
			completed += c.Completed
		}
		parts = append(parts, fmt.Sprintf("%d changed (%+d completed)", n, completed))
	}
	return strings.Join(parts, ", ")
}

// DiffRecords compares two collections by ID. When an ID repeats, its last
// occurrence wins. Result slices are sorted by ID.
func DiffRecords(before, after []model.StatRecord) RecordDiff {
	diff := RecordDiff{CountA: len(before), CountB: len(after)}

	mapA := make(map[string]model.StatRecord, len(before))
	for _, r := range before {
		mapA[r.ID] = r
	}
	mapB := make(map[string]model.StatRecord, len(after))
	for _, r := range after {
		mapB[r.ID] = r
	}

	for id, b := range mapB {
		a, ok := mapA[id]
		if !ok {
			diff.Added = append(diff.Added, id)
			continue
		}
		c := CounterChange{
			ID:         id,
			Name:       b.Name,
			Completed:  b.CompletedCount - a.CompletedCount,
			InProgress: b.InProgressCount - a.InProgressCount,
			Overdue:    b.OverdueCount - a.OverdueCount,
		}
		if c.Completed != 0 || c.InProgress != 0 || c.Overdue != 0 {
			diff.Changed = append(diff.Changed, c)
		}
	}
	for id := range mapA {
		if _, ok := mapB[id]; !ok {
			diff.Removed = append(diff.Removed, id)
		}
	}

	sort.Strings(diff.Added)
	sort.Strings(diff.Removed)
	sort.Slice(diff.Changed, func(i, j int) bool { return diff.Changed[i].ID < diff.Changed[j].ID })
	return diff
}
