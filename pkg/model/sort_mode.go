package model

// SortMode selects one of the total orders the dashboard offers.
type SortMode string

const (
	SortCompletedDesc SortMode = "completedDesc"
	SortFailedDesc    SortMode = "failedDesc"
	SortInWorkDesc    SortMode = "inWorkDesc"
	SortNameAsc       SortMode = "nameAsc"
)

// SortModes lists every supported mode in cycling order.
var SortModes = []SortMode{SortCompletedDesc, SortFailedDesc, SortInWorkDesc, SortNameAsc}

// ParseSortMode converts a stored or user-supplied value into a SortMode.
// Unknown values map to SortNameAsc; it never fails.
func ParseSortMode(s string) SortMode {
	m := SortMode(s)
	if m.Valid() {
		return m
	}
	return SortNameAsc
}

// Valid reports whether m is one of the supported modes.
func (m SortMode) Valid() bool {
	switch m {
	case SortCompletedDesc, SortFailedDesc, SortInWorkDesc, SortNameAsc:
		return true
	}
	return false
}

// Next returns the mode that follows m in SortModes, wrapping around.
func (m SortMode) Next() SortMode {
	for i, mode := range SortModes {
		if mode == m {
			return SortModes[(i+1)%len(SortModes)]
		}
	}
	return SortModes[0]
}

// Label is the human-readable name shown in the UI and reports.
func (m SortMode) Label() string {
	switch m {
	case SortCompletedDesc:
		return "Completed ↓"
	case SortFailedDesc:
		return "Overdue ↓"
	case SortInWorkDesc:
		return "In progress ↓"
	default:
		return "Name A→Z"
	}
}

// Metric returns the counter a descending mode orders by. The boolean is
// false for SortNameAsc and unknown modes.
func (m SortMode) Metric(r StatRecord) (int, bool) {
	switch m {
	case SortCompletedDesc:
		return r.CompletedCount, true
	case SortFailedDesc:
		return r.OverdueCount, true
	case SortInWorkDesc:
		return r.InProgressCount, true
	}
	return 0, false
}
