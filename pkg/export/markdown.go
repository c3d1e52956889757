package export

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/vanderheijden86/teamboard/pkg/model"
)

// GenerateMarkdown creates a report with the KPI summary, the leaderboard
// and every record in the given order.
func GenerateMarkdown(records []model.StatRecord, kpis model.Kpis, title string) string {
	return renderMarkdown(Dataset{Title: title, GeneratedAt: time.Now(), Records: records, Kpis: kpis})
}

func renderMarkdown(ds Dataset) string {
	title := ds.Title
	if title == "" {
		title = "Team statistics"
	}
	k := ds.Kpis

	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", escapeCell(title))
	fmt.Fprintf(&sb, "*Generated: %s*\n\n", ds.GeneratedAt.UTC().Format("2006-01-02 15:04 MST"))

	sb.WriteString("## Summary\n\n")
	sb.WriteString("| Metric | Value |\n|---|---|\n")
	fmt.Fprintf(&sb, "| Users | %d (%d active) |\n", k.UserCount, k.ActiveUsers)
	fmt.Fprintf(&sb, "| Completed | %d |\n", k.Totals.Completed)
	fmt.Fprintf(&sb, "| In progress | %d |\n", k.Totals.InWork)
	fmt.Fprintf(&sb, "| Overdue | %d |\n", k.Totals.Failed)
	fmt.Fprintf(&sb, "| Done rate | %d%% |\n", k.DoneRate)
	fmt.Fprintf(&sb, "| Avg completed per user | %.2f |\n", k.AvgCompletedPerUser)
	fmt.Fprintf(&sb, "| Median completed | %s |\n", strconv.FormatFloat(k.CompletedMedian, 'f', -1, 64))
	fmt.Fprintf(&sb, "| Std dev completed | %.2f |\n", k.CompletedStdDev)
	sb.WriteString("\n")

	sb.WriteString("## Leaderboard\n\n")
	if len(k.Leaderboard) == 0 {
		sb.WriteString("_Nobody has completed a task yet._\n\n")
	} else {
		sb.WriteString("| # | Name | Completed |\n|---|---|---|\n")
		for _, e := range k.Leaderboard {
			fmt.Fprintf(&sb, "| %d | %s | %d |\n", e.Place, escapeCell(e.Record.Name), e.Record.CompletedCount)
		}
		sb.WriteString("\n")
	}

	sb.WriteString("## Users\n\n")
	if len(ds.Records) == 0 {
		sb.WriteString("_No users match the current filter._\n")
		return sb.String()
	}
	sb.WriteString("| Name | Completed | In progress | Overdue | Total | Done % |\n")
	sb.WriteString("|---|---|---|---|---|---|\n")
	for _, r := range ds.Records {
		fmt.Fprintf(&sb, "| %s | %d | %d | %d | %d | %d%% |\n",
			escapeCell(r.Name), r.CompletedCount, r.InProgressCount, r.OverdueCount, r.Total(), r.DoneRatePercent())
	}
	return sb.String()
}

// escapeCell keeps user text from breaking table rows.
func escapeCell(s string) string {
	s = strings.NewReplacer("|", `\|`, "\r", " ", "\n", " ").Replace(s)
	if strings.TrimSpace(s) == "" {
		return "—"
	}
	return s
}
