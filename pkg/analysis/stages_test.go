package analysis

import (
	"testing"

	"github.com/vanderheijden86/teamboard/pkg/model"
)

func team() []model.StatRecord {
	return []model.StatRecord{
		{ID: "2", Name: "Борис", CompletedCount: 5},
		{ID: "3", Name: "Вера", CompletedCount: 2},
		{ID: "1", Name: "Аня", CompletedCount: 5},
	}
}

func names(records []model.StatRecord) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Name
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestSort_CompletedDescBreaksTiesByName(t *testing.T) {
	got := names(Sort(team(), model.SortCompletedDesc, NewCollation("ru")))
	want := []string{"Аня", "Борис", "Вера"}
	if !equalStrings(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestSort_Modes(t *testing.T) {
	records := []model.StatRecord{
		{ID: "a", Name: "Егор", InProgressCount: 1, OverdueCount: 4},
		{ID: "b", Name: "Ёжик", InProgressCount: 3, OverdueCount: 4},
		{ID: "c", Name: "Дина", InProgressCount: 3, OverdueCount: 0},
	}
	coll := NewCollation("ru")

	tests := []struct {
		mode model.SortMode
		want []string
	}{
		{model.SortFailedDesc, []string{"Егор", "Ёжик", "Дина"}},
		{model.SortInWorkDesc, []string{"Дина", "Ёжик", "Егор"}},
		{model.SortNameAsc, []string{"Дина", "Егор", "Ёжик"}},
		{model.SortMode("unknown"), []string{"Дина", "Егор", "Ёжик"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			got := names(Sort(records, tt.mode, coll))
			if !equalStrings(got, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestSort_LocaleAwareNotCodePoint(t *testing.T) {
	// Code point order puts "Ё" (U+0401) before "А" (U+0410); Russian
	// collation places it right after "Е".
	records := []model.StatRecord{
		{ID: "1", Name: "Ёлка"},
		{ID: "2", Name: "Жанна"},
		{ID: "3", Name: "Алла"},
	}
	got := names(Sort(records, model.SortNameAsc, NewCollation("ru")))
	want := []string{"Алла", "Ёлка", "Жанна"}
	if !equalStrings(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestSort_DoesNotMutateInput(t *testing.T) {
	in := team()
	before := names(in)
	_ = Sort(in, model.SortNameAsc, nil)
	if !equalStrings(before, names(in)) {
		t.Error("Sort must not reorder its input")
	}
}

func TestFilter_QueryMatchesFoldedSubstring(t *testing.T) {
	got := names(Filter(team(), "вер", false))
	if !equalStrings(got, []string{"Вера"}) {
		t.Errorf("expected only Вера, got %v", got)
	}

	got = names(Filter(team(), "  БОР  ", false))
	if !equalStrings(got, []string{"Борис"}) {
		t.Errorf("expected trimmed, case-folded match on Борис, got %v", got)
	}
}

func TestFilter_EmptyQueryKeepsOrder(t *testing.T) {
	in := team()
	got := Filter(in, "", false)
	if !equalStrings(names(got), names(in)) {
		t.Errorf("expected input order %v, got %v", names(in), names(got))
	}
	if len(got) > 0 && &got[0] == &in[0] {
		t.Error("Filter must return a new slice")
	}
}

func TestFilter_OnlyActive(t *testing.T) {
	records := []model.StatRecord{
		{ID: "1", Name: "Idle"},
		{ID: "2", Name: "Busy", InProgressCount: 1},
		{ID: "3", Name: "Late", OverdueCount: 2},
	}
	got := names(Filter(records, "", true))
	if !equalStrings(got, []string{"Busy", "Late"}) {
		t.Errorf("expected active users only, got %v", got)
	}
}

func TestFilter_AllInactiveOnlyActive(t *testing.T) {
	records := []model.StatRecord{{ID: "1", Name: "A"}, {ID: "2", Name: "B"}}
	got := Filter(records, "", true)
	if len(got) != 0 {
		t.Errorf("expected empty result, got %d records", len(got))
	}
	if got == nil {
		t.Error("expected an empty, non-nil slice")
	}

	k := Aggregate(records, nil)
	if k.Top != nil {
		t.Errorf("expected nil top, got %+v", k.Top)
	}
	if len(k.Leaderboard) != 0 {
		t.Errorf("expected empty leaderboard, got %d entries", len(k.Leaderboard))
	}
}

func TestPaginate_ClampsOutOfRangePage(t *testing.T) {
	p := Paginate(team(), 5, 2)
	if p.CurrentPage != 2 {
		t.Errorf("expected current page corrected to 2, got %d", p.CurrentPage)
	}
	if p.TotalPages != 2 || p.Total != 3 {
		t.Errorf("expected total=3 totalPages=2, got total=%d totalPages=%d", p.Total, p.TotalPages)
	}
	if len(p.Data) != 1 || p.Data[0].Name != "Аня" {
		t.Errorf("expected last record only, got %v", names(p.Data))
	}
}

func TestPaginate_EdgeCases(t *testing.T) {
	tests := []struct {
		name      string
		n         int
		page      int
		size      int
		wantPage  int
		wantPages int
		wantLen   int
	}{
		{"empty", 0, 1, 10, 1, 1, 0},
		{"empty high page", 0, 7, 10, 1, 1, 0},
		{"zero page", 5, 0, 2, 1, 3, 2},
		{"negative page", 5, -3, 2, 1, 3, 2},
		{"zero size clamps to one", 3, 2, 0, 2, 3, 1},
		{"negative size clamps to one", 3, 9, -5, 3, 3, 1},
		{"exact fit", 4, 2, 2, 2, 2, 2},
		{"huge size", 4, 1, int(^uint(0) >> 1), 1, 1, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records := make([]model.StatRecord, tt.n)
			p := Paginate(records, tt.page, tt.size)
			if p.CurrentPage != tt.wantPage || p.TotalPages != tt.wantPages || len(p.Data) != tt.wantLen {
				t.Errorf("got page=%d pages=%d len=%d; want page=%d pages=%d len=%d",
					p.CurrentPage, p.TotalPages, len(p.Data), tt.wantPage, tt.wantPages, tt.wantLen)
			}
			if p.Data == nil {
				t.Error("expected non-nil data")
			}
		})
	}
}

func TestAggregate_Kpis(t *testing.T) {
	records := []model.StatRecord{
		{ID: "1", Name: "Борис", CompletedCount: 5, OverdueCount: 2},
		{ID: "2", Name: "Аня", CompletedCount: 5, InProgressCount: 1},
		{ID: "3", Name: "Вера", CompletedCount: 2},
		{ID: "4", Name: "Глеб", InProgressCount: 3},
	}
	k := Aggregate(records, NewCollation("ru"))

	if k.Totals != (model.Totals{Completed: 12, InWork: 4, Failed: 2}) {
		t.Errorf("unexpected totals: %+v", k.Totals)
	}
	if k.UserCount != 4 || k.ActiveUsers != 4 {
		t.Errorf("expected 4 users all active, got %d/%d", k.UserCount, k.ActiveUsers)
	}
	if k.DoneRate != 67 {
		t.Errorf("expected done rate 67, got %d", k.DoneRate)
	}
	if k.AvgCompletedPerUser != 3 {
		t.Errorf("expected avg 3, got %v", k.AvgCompletedPerUser)
	}
	if k.Top == nil || k.Top.Name != "Аня" {
		t.Fatalf("expected top Аня, got %+v", k.Top)
	}

	wantBoard := []string{"Аня", "Борис", "Вера"}
	if len(k.Leaderboard) != len(wantBoard) {
		t.Fatalf("expected %d leaderboard entries, got %d", len(wantBoard), len(k.Leaderboard))
	}
	for i, e := range k.Leaderboard {
		if e.Place != i+1 || e.Record.Name != wantBoard[i] {
			t.Errorf("entry %d: got place=%d name=%s, want place=%d name=%s", i, e.Place, e.Record.Name, i+1, wantBoard[i])
		}
	}

	if k.CompletedMedian != 2 {
		t.Errorf("expected lower median 2, got %v", k.CompletedMedian)
	}
	if k.CompletedStdDev != 2.45 {
		t.Errorf("expected stddev 2.45, got %v", k.CompletedStdDev)
	}
}

func TestAggregate_RoundsAverageToTwoDecimals(t *testing.T) {
	records := []model.StatRecord{
		{ID: "1", Name: "a", CompletedCount: 1},
		{ID: "2", Name: "b", CompletedCount: 1},
		{ID: "3", Name: "c", CompletedCount: 0},
	}
	k := Aggregate(records, nil)
	if k.AvgCompletedPerUser != 0.67 {
		t.Errorf("expected 0.67, got %v", k.AvgCompletedPerUser)
	}
}

func TestAggregate_LeaderboardTruncatesToFive(t *testing.T) {
	var records []model.StatRecord
	for i, n := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		records = append(records, model.StatRecord{ID: n, Name: n, CompletedCount: i + 1})
	}
	k := Aggregate(records, nil)
	if len(k.Leaderboard) != LeaderboardSize {
		t.Fatalf("expected %d entries, got %d", LeaderboardSize, len(k.Leaderboard))
	}
	if k.Leaderboard[0].Record.Name != "g" || k.Leaderboard[4].Record.Name != "c" {
		t.Errorf("unexpected leaderboard order: first=%s last=%s",
			k.Leaderboard[0].Record.Name, k.Leaderboard[4].Record.Name)
	}
}

func TestAggregate_Empty(t *testing.T) {
	k := Aggregate(nil, nil)
	if k.UserCount != 0 || k.DoneRate != 0 || k.AvgCompletedPerUser != 0 {
		t.Errorf("expected zeroed KPIs, got %+v", k)
	}
	if k.CompletedMedian != 0 || k.CompletedStdDev != 0 {
		t.Errorf("expected zero distribution, got median=%v stddev=%v", k.CompletedMedian, k.CompletedStdDev)
	}
	if k.Top != nil || k.Leaderboard == nil || len(k.Leaderboard) != 0 {
		t.Errorf("expected nil top and empty leaderboard, got %+v / %v", k.Top, k.Leaderboard)
	}
}

func TestAggregate_SingleUserHasNoSpread(t *testing.T) {
	k := Aggregate([]model.StatRecord{{ID: "1", Name: "solo", CompletedCount: 4}}, nil)
	if k.CompletedStdDev != 0 {
		t.Errorf("expected zero stddev for one user, got %v", k.CompletedStdDev)
	}
	if k.CompletedMedian != 4 {
		t.Errorf("expected median 4, got %v", k.CompletedMedian)
	}
}

func TestCollation_FallbackLocale(t *testing.T) {
	c := NewCollation("not a locale!!")
	if c.Locale() != DefaultLocale {
		t.Errorf("expected fallback locale %q, got %q", DefaultLocale, c.Locale())
	}
	var nilColl *Collation
	if nilColl.Compare("a", "b") >= 0 {
		t.Error("nil collation should compare by code point")
	}
}
