package analysis

import (
	"strings"

	"golang.org/x/text/cases"

	"github.com/vanderheijden86/teamboard/pkg/model"
)

// NormalizeQuery trims and case-folds a search query. Two queries that
// normalize to the same string select the same records.
func NormalizeQuery(query string) string {
	return cases.Fold().String(strings.TrimSpace(query))
}

// Filter narrows records to those whose case-folded name contains the
// normalized query and, when onlyActive is set, that hold at least one task.
// Input order is preserved and the result is always a new slice.
func Filter(records []model.StatRecord, query string, onlyActive bool) []model.StatRecord {
	q := NormalizeQuery(query)
	fold := cases.Fold()

	out := make([]model.StatRecord, 0, len(records))
	for _, r := range records {
		if onlyActive && !r.IsActive() {
			continue
		}
		if q != "" && !strings.Contains(fold.String(r.Name), q) {
			continue
		}
		out = append(out, r)
	}
	return out
}
