package analysis

import (
	"math"
	"slices"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/vanderheijden86/teamboard/pkg/model"
)

// LeaderboardSize is the number of ranked users kept in Kpis.Leaderboard.
const LeaderboardSize = 5

// Aggregate computes whole-snapshot KPIs. It ignores filter, sort and page
// state and never fails: an empty snapshot yields zeroed KPIs, a nil Top and
// an empty leaderboard.
func Aggregate(records []model.StatRecord, coll *Collation) model.Kpis {
	k := model.Kpis{
		UserCount:   len(records),
		Leaderboard: []model.LeaderboardEntry{},
	}

	completed := make([]float64, 0, len(records))
	ranked := make([]model.StatRecord, 0, len(records))
	for _, r := range records {
		k.Totals.Completed += r.CompletedCount
		k.Totals.InWork += r.InProgressCount
		k.Totals.Failed += r.OverdueCount
		if r.IsActive() {
			k.ActiveUsers++
		}
		completed = append(completed, float64(r.CompletedCount))
		if r.CompletedCount > 0 {
			ranked = append(ranked, r)
		}
	}

	k.DoneRate = model.DoneRate(k.Totals.Completed, k.Totals.All())
	if k.UserCount > 0 {
		k.AvgCompletedPerUser = round2(float64(k.Totals.Completed) / float64(k.UserCount))
	}

	// Top and the leaderboard share the completedDesc order.
	slices.SortStableFunc(ranked, compareFunc(model.SortCompletedDesc, coll))
	if len(ranked) > 0 {
		top := ranked[0]
		k.Top = &top
	}
	for i, r := range ranked[:min(len(ranked), LeaderboardSize)] {
		k.Leaderboard = append(k.Leaderboard, model.LeaderboardEntry{Place: i + 1, Record: r})
	}

	if len(completed) > 0 {
		sort.Float64s(completed)
		// Empirical quantile: the lower middle value for even counts.
		k.CompletedMedian = stat.Quantile(0.5, stat.Empirical, completed, nil)
	}
	if len(completed) > 1 {
		k.CompletedStdDev = round2(stat.StdDev(completed, nil))
	}

	return k
}

func round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return math.Round(v*100) / 100
}
