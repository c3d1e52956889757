package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/colorprofile"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/teamboard/pkg/analysis"
	"github.com/vanderheijden86/teamboard/pkg/debug"
	"github.com/vanderheijden86/teamboard/pkg/export"
	"github.com/vanderheijden86/teamboard/pkg/metrics"
	"github.com/vanderheijden86/teamboard/pkg/model"
	"github.com/vanderheijden86/teamboard/pkg/prefs"
)

const (
	leaderboardBarWidth = 30
	cardWidth           = 26
	minNameWidth        = 12
)

// View renders the dashboard.
func (m Model) View() string {
	defer metrics.Timer(metrics.UIRender)()

	if m.showReport {
		return lipgloss.JoinVertical(lipgloss.Left,
			m.theme.Overlay.Render(m.report.View()),
			m.theme.Muted.Render(fmt.Sprintf("%3.f%%  ↑/↓ scroll · esc/R close", m.report.ScrollPercent()*100)),
		)
	}

	v := m.ctrl.View()
	sections := []string{
		m.renderHeader(v),
		m.renderKpiCards(v.Kpis),
		m.renderLeaderboard(v.Kpis),
		m.renderFilters(v),
	}
	if m.ctrl.ViewMode() == prefs.ViewCards {
		sections = append(sections, m.renderCards(v))
	} else {
		sections = append(sections, m.renderTable(v))
	}
	sections = append(sections, m.renderPager(v), m.renderStatus(), m.help.View(m.keys))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderHeader(v analysis.View) string {
	now := m.opts.Now()
	parts := []string{m.theme.Title.Render(m.opts.Title)}
	if !v.FetchedAt.IsZero() {
		parts = append(parts, m.theme.Muted.Render("updated "+FormatTimeRel(v.FetchedAt, now)))
	} else {
		parts = append(parts, m.theme.Muted.Render("no data yet"))
	}
	if r := m.opts.Refresher; r != nil {
		if at := r.LastAttempt(); !at.IsZero() {
			parts = append(parts, m.theme.Muted.Render("checked "+FormatTimeRel(at, now)))
		}
		if r.LastError() != nil {
			parts = append(parts, m.theme.Error.Render("stale"))
		}
	}
	if !m.opts.LastVisit.IsZero() {
		parts = append(parts, m.theme.Muted.Render("last visit "+FormatTimeRel(m.opts.LastVisit, now)))
	}
	if m.refreshing {
		parts = append(parts, m.theme.Search.Render("⟳"))
	}
	return strings.Join(parts, m.theme.Muted.Render(" · "))
}

func (m Model) kpiCard(label, value string, valueStyle lipgloss.Style) string {
	return m.theme.Card.Render(m.theme.CardLabel.Render(label) + "\n" + valueStyle.Render(value))
}

func (m Model) renderKpiCards(k model.Kpis) string {
	cards := []string{
		m.kpiCard("Users", fmt.Sprintf("%d/%d active", k.ActiveUsers, k.UserCount), m.theme.CardValue),
		m.kpiCard("Completed", fmt.Sprint(k.Totals.Completed), m.theme.Completed.Bold(true)),
		m.kpiCard("In progress", fmt.Sprint(k.Totals.InWork), m.theme.InWork.Bold(true)),
		m.kpiCard("Overdue", fmt.Sprint(k.Totals.Failed), m.theme.Overdue.Bold(true)),
		m.kpiCard("Done rate", fmt.Sprintf("%d%%", k.DoneRate), m.theme.CardValue),
		m.kpiCard("Avg · median", fmt.Sprintf("%.2f · %.1f", k.AvgCompletedPerUser, k.CompletedMedian), m.theme.CardValue),
	}

	// Wrap onto a second row when the terminal is narrow.
	var rows []string
	var row []string
	rowWidth := 0
	for _, c := range cards {
		w := lipgloss.Width(c)
		if rowWidth+w > m.width && len(row) > 0 {
			rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, row...))
			row, rowWidth = nil, 0
		}
		row = append(row, c)
		rowWidth += w
	}
	if len(row) > 0 {
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, row...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (m Model) renderLeaderboard(k model.Kpis) string {
	var sb strings.Builder
	sb.WriteString(m.theme.Title.Render("Leaderboard"))
	if len(k.Leaderboard) == 0 {
		sb.WriteString("\n" + m.theme.Muted.Render("  no users"))
		return sb.String()
	}

	top := k.Leaderboard[0].Record.CompletedCount
	nameWidth := 20
	for _, e := range k.Leaderboard {
		fmt.Fprintf(&sb, "\n%s %s %s %s",
			m.theme.Rank.Render(padLeft(fmt.Sprintf("%d.", e.Place), 3)),
			padRight(e.Record.Name, nameWidth),
			m.theme.Bar.Render(padRight(bar(e.Record.CompletedCount, top, leaderboardBarWidth), leaderboardBarWidth)),
			m.theme.Completed.Render(fmt.Sprint(e.Record.CompletedCount)),
		)
	}
	return sb.String()
}

func (m Model) renderFilters(v analysis.View) string {
	var parts []string
	switch {
	case m.searching:
		parts = append(parts, m.search.View())
	case v.Params.Query != "":
		parts = append(parts, m.theme.Search.Render(fmt.Sprintf("search: %q", v.Params.Query)))
	}
	parts = append(parts, m.theme.Muted.Render("sort: "+v.Params.Mode.Label()))
	if v.Params.OnlyActive {
		parts = append(parts, m.theme.Search.Render("only active"))
	}
	return strings.Join(parts, "  ")
}

// tableLayout holds column widths for the table view.
type tableLayout struct {
	rank, name, num int
}

func (m Model) layoutTable() tableLayout {
	l := tableLayout{rank: 4, num: 9}
	l.name = max(minNameWidth, m.width-l.rank-5*l.num-6)
	l.name = min(l.name, 40)
	return l
}

func (m Model) renderTable(v analysis.View) string {
	if len(v.Page.Data) == 0 {
		return m.theme.Muted.Render("No users match the current filters.")
	}
	l := m.layoutTable()

	header := strings.Join([]string{
		padLeft("#", l.rank),
		padRight("Name", l.name),
		padLeft("Done", l.num),
		padLeft("Work", l.num),
		padLeft("Overdue", l.num),
		padLeft("Total", l.num),
		padLeft("Rate", l.num),
	}, " ")

	lines := []string{m.theme.Header.Render(header)}
	offset := (v.Page.CurrentPage - 1) * v.Params.PageSize
	for i, r := range v.Page.Data {
		lines = append(lines, strings.Join([]string{
			m.theme.Muted.Render(padLeft(fmt.Sprint(offset+i+1), l.rank)),
			padRight(r.Name, l.name),
			m.theme.Completed.Render(padLeft(fmt.Sprint(r.CompletedCount), l.num)),
			m.theme.InWork.Render(padLeft(fmt.Sprint(r.InProgressCount), l.num)),
			m.theme.Overdue.Render(padLeft(fmt.Sprint(r.OverdueCount), l.num)),
			padLeft(fmt.Sprint(r.Total()), l.num),
			padLeft(fmt.Sprintf("%d%%", r.DoneRatePercent()), l.num),
		}, " "))
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderCard(r model.StatRecord) string {
	inner := cardWidth - 4
	name := m.theme.CardValue.Render(padRight(r.Name, inner))
	counts := fmt.Sprintf("%s %s %s",
		m.theme.Completed.Render(fmt.Sprintf("✓%d", r.CompletedCount)),
		m.theme.InWork.Render(fmt.Sprintf("◐%d", r.InProgressCount)),
		m.theme.Overdue.Render(fmt.Sprintf("!%d", r.OverdueCount)),
	)
	rate := r.DoneRatePercent()
	barWidth := inner - 5
	progress := m.theme.Bar.Render(padRight(bar(rate, 100, barWidth), barWidth)) + padLeft(fmt.Sprintf("%d%%", rate), 5)
	return m.theme.Card.Width(cardWidth).Render(name + "\n" + counts + "\n" + progress)
}

func (m Model) renderCards(v analysis.View) string {
	if len(v.Page.Data) == 0 {
		return m.theme.Muted.Render("No users match the current filters.")
	}
	perRow := max(1, m.width/(cardWidth+2))
	var rows []string
	for start := 0; start < len(v.Page.Data); start += perRow {
		end := min(start+perRow, len(v.Page.Data))
		cards := make([]string, 0, end-start)
		for _, r := range v.Page.Data[start:end] {
			cards = append(cards, m.renderCard(r))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cards...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (m Model) renderPager(v analysis.View) string {
	return m.theme.Muted.Render(fmt.Sprintf("Page %d/%d · %d users",
		v.Page.CurrentPage, v.Page.TotalPages, v.Page.Total))
}

func (m Model) renderStatus() string {
	if m.statusMsg == "" {
		return ""
	}
	if m.statusIsError {
		return m.theme.Error.Render(m.statusMsg)
	}
	return m.theme.Status.Render(m.statusMsg)
}

// reportStyle picks a glamour style the terminal can display.
func reportStyle() string {
	if TermProfile < colorprofile.ANSI {
		return "notty"
	}
	return "dracula"
}

// renderReport renders the markdown report for the current filter and sort
// state. Falls back to the raw markdown when glamour fails.
func (m Model) renderReport() string {
	v := m.ctrl.View()
	md := export.GenerateMarkdown(v.Sorted, v.Kpis, m.opts.Title)

	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(reportStyle()),
		glamour.WithWordWrap(max(20, m.report.Width-2)),
	)
	if err != nil {
		debug.Log("ui: report renderer: %v", err)
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		debug.Log("ui: rendering report: %v", err)
		return md
	}
	return strings.TrimRight(out, "\n ")
}
