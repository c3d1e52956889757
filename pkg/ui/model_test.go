package ui

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vanderheijden86/teamboard/internal/datasource"
	"github.com/vanderheijden86/teamboard/pkg/analysis"
	"github.com/vanderheijden86/teamboard/pkg/dashboard"
	"github.com/vanderheijden86/teamboard/pkg/export"
	"github.com/vanderheijden86/teamboard/pkg/model"
	"github.com/vanderheijden86/teamboard/pkg/prefs"
	"github.com/vanderheijden86/teamboard/pkg/store"
	"github.com/vanderheijden86/teamboard/pkg/testutil"
	"github.com/vanderheijden86/teamboard/pkg/watcher"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestModel(t *testing.T, records []model.StatRecord, pageSize int, opts Options) (Model, *store.Store) {
	t.Helper()
	st := store.New()
	st.Replace(records, testNow.Add(-5*time.Minute), "test")
	pipeline := analysis.NewPipeline(st, analysis.WithCollation(analysis.NewCollation("ru")))
	ctrl := dashboard.New(pipeline, prefs.New(nil), dashboard.Options{
		PageSize:    pageSize,
		DefaultSort: model.SortCompletedDesc,
		Now:         func() time.Time { return testNow },
	})
	opts.Now = func() time.Time { return testNow }
	m := NewModel(context.Background(), ctrl, opts)
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return updated.(Model), st
}

func press(t *testing.T, m Model, keys ...string) Model {
	t.Helper()
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "right":
			msg = tea.KeyMsg{Type: tea.KeyRight}
		case "left":
			msg = tea.KeyMsg{Type: tea.KeyLeft}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		updated, _ := m.Update(msg)
		m = updated.(Model)
	}
	return m
}

func TestView_RendersKpisAndTable(t *testing.T) {
	m, _ := newTestModel(t, testutil.Scenario(), 10, Options{Title: "Команда"})

	out := m.View()
	for _, want := range []string{"Команда", "Leaderboard", "Аня", "Борис", "Вера", "3/3 active", "100%", "Page 1/1", "updated 5m ago"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected view to contain %q\n%s", want, out)
		}
	}
	if strings.Index(out, "Аня") > strings.LastIndex(out, "Вера") {
		t.Error("expected Аня ranked above Вера")
	}
}

func TestView_EmptyCollection(t *testing.T) {
	m, _ := newTestModel(t, nil, 10, Options{})
	out := m.View()
	if !strings.Contains(out, "No users match") || !strings.Contains(out, "no users") {
		t.Errorf("expected empty-state messages, got\n%s", out)
	}
	if !strings.Contains(out, "Page 1/1") {
		t.Errorf("expected single empty page, got\n%s", out)
	}
}

func TestKeys_SortCycles(t *testing.T) {
	m, _ := newTestModel(t, testutil.Scenario(), 10, Options{})
	m = press(t, m, "s")
	if got := m.ctrl.Params().Mode; got != model.SortFailedDesc {
		t.Errorf("expected failedDesc after one press, got %s", got)
	}
	if status, isErr := m.Status(); isErr || !strings.Contains(status, "Overdue") {
		t.Errorf("unexpected status %q (error=%v)", status, isErr)
	}
}

func TestKeys_SearchFlow(t *testing.T) {
	m, _ := newTestModel(t, testutil.Scenario(), 10, Options{})

	m = press(t, m, "/")
	if !m.Searching() {
		t.Fatal("expected search focus after /")
	}
	m = press(t, m, "вер")
	if got := m.ctrl.Params().Query; got != "вер" {
		t.Fatalf("expected query to follow input, got %q", got)
	}
	if v := m.ctrl.View(); len(v.Page.Data) != 1 || v.Page.Data[0].Name != "Вера" {
		t.Errorf("expected only Вера, got %v", testutil.Names(v.Page.Data))
	}

	m = press(t, m, "esc")
	if m.Searching() {
		t.Fatal("expected esc to leave search")
	}
	if m.ctrl.Params().Query != "вер" {
		t.Error("leaving search should keep the query")
	}

	m = press(t, m, "esc")
	if m.ctrl.Params().Query != "" {
		t.Error("second esc should clear the query")
	}
}

func TestKeys_OnlyActiveAndPaging(t *testing.T) {
	m, _ := newTestModel(t, testutil.Scenario(), 1, Options{})

	m = press(t, m, "l", "right")
	if got := m.ctrl.View().Page.CurrentPage; got != 3 {
		t.Fatalf("expected page 3, got %d", got)
	}
	m = press(t, m, "right")
	if got := m.ctrl.View().Page.CurrentPage; got != 3 {
		t.Errorf("expected page clamped to 3, got %d", got)
	}
	m = press(t, m, "h")
	if got := m.ctrl.View().Page.CurrentPage; got != 2 {
		t.Errorf("expected page 2, got %d", got)
	}

	m = press(t, m, "a")
	p := m.ctrl.Params()
	if !p.OnlyActive || p.Page != 1 {
		t.Errorf("expected only-active on page 1, got %+v", p)
	}
}

func TestKeys_ViewToggleRendersCards(t *testing.T) {
	m, _ := newTestModel(t, testutil.Scenario(), 10, Options{})
	m = press(t, m, "v")
	if m.ctrl.ViewMode() != prefs.ViewCards {
		t.Fatalf("expected cards view, got %s", m.ctrl.ViewMode())
	}
	out := m.View()
	if !strings.Contains(out, "✓5") || !strings.Contains(out, "Вера") {
		t.Errorf("expected cards with counters, got\n%s", out)
	}
}

func TestKeys_Copy(t *testing.T) {
	var copied []model.StatRecord
	m, _ := newTestModel(t, testutil.Scenario(), 1, Options{
		copy: func(r []model.StatRecord) error { copied = r; return nil },
	})

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("c")})
	if cmd == nil {
		t.Fatal("expected copy command")
	}
	msg := cmd().(CopyDoneMsg)
	if msg.Rows != 3 || msg.Err != nil {
		t.Fatalf("unexpected copy result %+v", msg)
	}
	testutil.AssertOrder(t, copied, "Аня", "Борис", "Вера")

	updated, _ := m.Update(msg)
	if status, _ := updated.(Model).Status(); !strings.Contains(status, "Copied 3 rows") {
		t.Errorf("unexpected status %q", status)
	}

	updated, _ = m.Update(CopyDoneMsg{Err: errors.New("no clipboard")})
	if status, isErr := updated.(Model).Status(); !isErr || !strings.Contains(status, "no clipboard") {
		t.Errorf("expected error status, got %q", status)
	}
}

func TestKeys_Export(t *testing.T) {
	dir := t.TempDir()
	m, _ := newTestModel(t, testutil.Scenario(), 10, Options{ExportDir: dir, ExportFormat: export.FormatCSV})

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("e")})
	msg := cmd().(ExportDoneMsg)
	if msg.Err != nil {
		t.Fatalf("export failed: %v", msg.Err)
	}
	if want := filepath.Join(dir, "teamboard-20260301-1200.csv"); msg.Path != want {
		t.Errorf("expected %s, got %s", want, msg.Path)
	}
	data, err := os.ReadFile(msg.Path)
	if err != nil {
		t.Fatal(err)
	}
	if lines := strings.Count(string(data), "\n"); lines != 4 {
		t.Errorf("expected header plus 3 rows, got %d lines", lines)
	}
}

func TestKeys_ReportOverlay(t *testing.T) {
	m, _ := newTestModel(t, testutil.Scenario(), 10, Options{})
	m = press(t, m, "R")
	if !m.showReport {
		t.Fatal("expected report overlay")
	}
	if out := m.View(); !strings.Contains(out, "esc/R close") {
		t.Errorf("expected report footer, got\n%s", out)
	}
	m = press(t, m, "esc")
	if m.showReport {
		t.Error("expected esc to close the report")
	}
}

func TestKeys_Quit(t *testing.T) {
	m, _ := newTestModel(t, testutil.Scenario(), 10, Options{})
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
}

func TestRefresh_WithoutRefresher(t *testing.T) {
	m, _ := newTestModel(t, testutil.Scenario(), 10, Options{})
	m = press(t, m, "r")
	if status, isErr := m.Status(); !isErr || status != "Refresh unavailable" {
		t.Errorf("unexpected status %q", status)
	}
}

func TestRefresh_FromFile(t *testing.T) {
	path := testutil.WriteStatsFile(t, filepath.Join(t.TempDir(), "stats.json"), testutil.QuickTeam(12))

	st := store.New()
	refresher := datasource.NewRefresher(datasource.NewFileSource(path), st)
	pipeline := analysis.NewPipeline(st)
	ctrl := dashboard.New(pipeline, nil, dashboard.Options{PageSize: 5})
	m := NewModel(context.Background(), ctrl, Options{Refresher: refresher})

	cmd := m.Init()
	if cmd == nil {
		t.Fatal("expected initial refresh command")
	}

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	msg := cmd().(SnapshotMsg)
	if msg.Result.Err != nil || !msg.Result.Changed {
		t.Fatalf("unexpected refresh result %+v", msg.Result)
	}
	updated, _ := m.Update(msg)
	m = updated.(Model)
	if status, _ := m.Status(); !strings.Contains(status, "Loaded 12 users") {
		t.Errorf("unexpected status %q", status)
	}
	if v := m.ctrl.View(); v.Page.TotalPages != 3 {
		t.Errorf("expected 3 pages, got %d", v.Page.TotalPages)
	}
}

func TestRefresh_ErrorKeepsData(t *testing.T) {
	m, st := newTestModel(t, testutil.Scenario(), 10, Options{})
	updated, _ := m.Update(SnapshotMsg{Result: datasource.Result{
		Snapshot: st.Current(),
		Err:      errors.New("connection refused"),
	}})
	m = updated.(Model)

	status, isErr := m.Status()
	if !isErr || !strings.Contains(status, "connection refused") {
		t.Errorf("unexpected status %q", status)
	}
	if !strings.Contains(m.View(), "Борис") {
		t.Error("expected previous data to stay visible")
	}
}

func TestHelpers(t *testing.T) {
	if got := truncate("Александра", 5); got != "Алек…" {
		t.Errorf("truncate = %q", got)
	}
	if got := padRight("ab", 4); got != "ab  " {
		t.Errorf("padRight = %q", got)
	}
	if got := padLeft("7", 3); got != "  7" {
		t.Errorf("padLeft = %q", got)
	}
	if got := bar(1, 100, 10); got != "█" {
		t.Errorf("small values should still show one cell, got %q", got)
	}
	if got := bar(0, 100, 10); got != "" {
		t.Errorf("zero should render nothing, got %q", got)
	}
	if got := FormatTimeRel(testNow.Add(-3*time.Hour), testNow); got != "3h ago" {
		t.Errorf("FormatTimeRel = %q", got)
	}
	if got := FormatTimeRel(time.Time{}, testNow); got != "never" {
		t.Errorf("FormatTimeRel(zero) = %q", got)
	}
}

func TestStoreUpdates_RerenderAndReport(t *testing.T) {
	st := store.New()
	updates, unsubscribe := st.Subscribe()
	defer unsubscribe()

	ctrl := dashboard.New(analysis.NewPipeline(st), nil, dashboard.Options{PageSize: 10})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m := NewModel(ctx, ctrl, Options{Updates: updates})

	st.Replace(testutil.Scenario(), time.Now(), "test")
	msg, ok := WaitSnapshotCmd(ctx, updates)().(StoreUpdatedMsg)
	if !ok {
		t.Fatal("expected StoreUpdatedMsg")
	}
	updated, cmd := m.Update(msg)
	m = updated.(Model)
	if cmd == nil {
		t.Error("expected the subscription to be re-armed")
	}
	if status, _ := m.Status(); status != "Updated: 3 users" {
		t.Errorf("unexpected status %q", status)
	}
	if !strings.Contains(m.View(), "Вера") {
		t.Error("expected the new snapshot to render")
	}

	// A refresh result for the same generation keeps its own status.
	updated, _ = m.Update(SnapshotMsg{Result: datasource.Result{Snapshot: st.Current()}})
	m = updated.(Model)
	updated, _ = m.Update(StoreUpdatedMsg{Snapshot: st.Current()})
	if status, _ := updated.(Model).Status(); status != "No changes" {
		t.Errorf("already reported generation should not override status, got %q", status)
	}
}

func TestWaitSnapshotCmd_StopsOnCancel(t *testing.T) {
	st := store.New()
	updates, unsubscribe := st.Subscribe()
	defer unsubscribe()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if msg := WaitSnapshotCmd(ctx, updates)(); msg != nil {
		t.Errorf("expected nil after cancel, got %T", msg)
	}
}

func TestWatchFileCmd_StopsOnCancel(t *testing.T) {
	path := testutil.WriteStatsFile(t, filepath.Join(t.TempDir(), "stats.json"), testutil.Scenario())
	w, err := watcher.NewWatcher(path)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan tea.Msg, 1)
	go func() { done <- WatchFileCmd(ctx, w)() }()
	cancel()

	select {
	case msg := <-done:
		if msg != nil {
			t.Errorf("expected nil after cancel, got %T", msg)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("WatchFileCmd did not return after cancel")
	}
}

func TestPollCmd_PublishesThroughStore(t *testing.T) {
	path := testutil.WriteStatsFile(t, filepath.Join(t.TempDir(), "stats.json"), testutil.QuickTeam(4))

	st := store.New()
	updates, unsubscribe := st.Subscribe()
	defer unsubscribe()
	refresher := datasource.NewRefresher(datasource.NewFileSource(path), st)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan tea.Msg, 1)
	go func() { done <- PollCmd(ctx, refresher, 10*time.Millisecond)() }()

	select {
	case snap := <-updates:
		if snap.Len() != 4 {
			t.Errorf("expected 4 users, got %d", snap.Len())
		}
	case <-time.After(2 * time.Second):
		t.Fatal("poll never published a snapshot")
	}

	cancel()
	select {
	case msg := <-done:
		if msg != nil {
			t.Errorf("expected nil once polling stops, got %T", msg)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("PollCmd did not stop after cancel")
	}
}

func TestHeader_ShowsLastAttemptAndStale(t *testing.T) {
	st := store.New()
	st.Replace(testutil.Scenario(), time.Now(), "test")
	refresher := datasource.NewRefresher(datasource.NewFileSource(filepath.Join(t.TempDir(), "missing.json")), st)
	ctrl := dashboard.New(analysis.NewPipeline(st), nil, dashboard.Options{PageSize: 10})
	m := NewModel(context.Background(), ctrl, Options{Refresher: refresher})

	if view := m.View(); strings.Contains(view, "checked") || strings.Contains(view, "stale") {
		t.Error("no attempt yet, header should not mention checks")
	}

	updated, _ := m.Update(SnapshotMsg{Result: refresher.Refresh(context.Background())})
	view := updated.(Model).View()
	for _, want := range []string{"checked just now", "stale", "Аня"} {
		if !strings.Contains(view, want) {
			t.Errorf("expected header to contain %q", want)
		}
	}
}
