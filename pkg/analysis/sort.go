package analysis

import (
	"cmp"
	"slices"

	"github.com/vanderheijden86/teamboard/pkg/model"
)

// Sort returns a new slice ordered by mode. Descending modes compare their
// counter first and break ties by collated name; nameAsc compares collated
// names only. Unknown modes sort as nameAsc. The sort is stable, so records
// with equal keys keep their input order.
func Sort(records []model.StatRecord, mode model.SortMode, coll *Collation) []model.StatRecord {
	if !mode.Valid() {
		mode = model.SortNameAsc
	}
	out := make([]model.StatRecord, len(records))
	copy(out, records)
	slices.SortStableFunc(out, compareFunc(mode, coll))
	return out
}

func compareFunc(mode model.SortMode, coll *Collation) func(a, b model.StatRecord) int {
	return func(a, b model.StatRecord) int {
		if av, ok := mode.Metric(a); ok {
			bv, _ := mode.Metric(b)
			if av != bv {
				return cmp.Compare(bv, av)
			}
		}
		return coll.Compare(a.Name, b.Name)
	}
}
