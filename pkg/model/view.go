package model

// Page is one fixed-size slice of an ordered collection plus pagination metadata.
// CurrentPage may differ from the requested page when the request was out of range.
type Page struct {
	Data        []StatRecord `json:"data"`
	Total       int          `json:"total"`
	TotalPages  int          `json:"totalPages"`
	CurrentPage int          `json:"currentPage"`
}

// Totals are task counts summed across all users.
type Totals struct {
	Completed int `json:"completed"`
	InWork    int `json:"inWork"`
	Failed    int `json:"failed"`
}

// All returns the number of tasks across every state.
func (t Totals) All() int {
	return t.Completed + t.InWork + t.Failed
}

// LeaderboardEntry is a ranked record with its 1-based place.
type LeaderboardEntry struct {
	Place  int        `json:"place"`
	Record StatRecord `json:"record"`
}

// Kpis summarize the whole snapshot independently of filter, sort and page state.
type Kpis struct {
	UserCount           int                `json:"userCount"`
	ActiveUsers         int                `json:"activeUsers"`
	Totals              Totals             `json:"totals"`
	DoneRate            int                `json:"doneRate"`
	AvgCompletedPerUser float64            `json:"avgCompletedPerUser"`
	CompletedMedian     float64            `json:"completedMedian"`
	CompletedStdDev     float64            `json:"completedStdDev"`
	Top                 *StatRecord        `json:"top"`
	Leaderboard         []LeaderboardEntry `json:"leaderboard"`
}
