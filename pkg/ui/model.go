// Package ui provides the terminal dashboard for teamboard.
package ui

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/vanderheijden86/teamboard/internal/datasource"
	"github.com/vanderheijden86/teamboard/pkg/dashboard"
	"github.com/vanderheijden86/teamboard/pkg/debug"
	"github.com/vanderheijden86/teamboard/pkg/export"
	"github.com/vanderheijden86/teamboard/pkg/model"
	"github.com/vanderheijden86/teamboard/pkg/store"
	"github.com/vanderheijden86/teamboard/pkg/watcher"
)

// SnapshotMsg delivers the outcome of a refresh.
type SnapshotMsg struct {
	Result datasource.Result
}

// FileChangedMsg is sent when the watched source file changes.
type FileChangedMsg struct{}

// StoreUpdatedMsg is sent when the store publishes a new snapshot,
// whichever refresh produced it.
type StoreUpdatedMsg struct {
	Snapshot *store.Snapshot
}

// ExportDoneMsg reports a finished file export.
type ExportDoneMsg struct {
	Path string
	Rows int
	Err  error
}

// CopyDoneMsg reports a finished clipboard copy.
type CopyDoneMsg struct {
	Rows int
	Err  error
}

// Options configure a Model.
type Options struct {
	Title        string
	Refresher    *datasource.Refresher  // nil disables refresh
	Watcher      *watcher.Watcher       // nil when the source is not a watched file
	PollInterval time.Duration          // 0 disables polling
	Updates      <-chan *store.Snapshot // from store.Subscribe; nil disables
	ExportDir    string
	ExportFormat export.Format
	ExportBOM    bool
	LastVisit    time.Time
	Now          func() time.Time

	// copy replaces export.CopyToClipboard in tests.
	copy func([]model.StatRecord) error
}

// Model is the bubbletea model for the dashboard.
type Model struct {
	ctrl  *dashboard.Controller
	opts  Options
	theme Theme
	keys  KeyMap

	search     textinput.Model
	searching  bool
	help       help.Model
	report     viewport.Model
	showReport bool

	width  int
	height int

	refreshing    bool
	lastResult    datasource.Result
	reportedGen   uint64
	statusMsg     string
	statusIsError bool

	ctx context.Context
}

// NewModel creates a dashboard model over ctrl.
func NewModel(ctx context.Context, ctrl *dashboard.Controller, opts Options) Model {
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.ExportFormat == "" {
		opts.ExportFormat = export.FormatCSV
	}
	if opts.Title == "" {
		opts.Title = "Team statistics"
	}
	if opts.copy == nil {
		opts.copy = export.CopyToClipboard
	}

	ti := textinput.New()
	ti.Prompt = "/ "
	ti.Placeholder = "name"
	ti.CharLimit = 128
	ti.SetValue(ctrl.Params().Query)

	return Model{
		ctrl:   ctrl,
		opts:   opts,
		theme:  DefaultTheme(nil),
		keys:   DefaultKeyMap(),
		search: ti,
		help:   help.New(),
		report: viewport.New(80, 20),
		width:  100,
		height: 30,
		ctx:    ctx,
	}
}

// Init starts the first refresh plus the configured watch, poll and store
// subscription loops.
func (m Model) Init() tea.Cmd {
	var cmds []tea.Cmd
	if m.opts.Refresher != nil {
		cmds = append(cmds, RefreshCmd(m.ctx, m.opts.Refresher))
		if m.opts.PollInterval > 0 {
			cmds = append(cmds, PollCmd(m.ctx, m.opts.Refresher, m.opts.PollInterval))
		}
	}
	if m.opts.Watcher != nil {
		cmds = append(cmds, WatchFileCmd(m.ctx, m.opts.Watcher))
	}
	if m.opts.Updates != nil {
		cmds = append(cmds, WaitSnapshotCmd(m.ctx, m.opts.Updates))
	}
	return tea.Batch(cmds...)
}

// RefreshCmd runs one refresh and reports it as a SnapshotMsg.
func RefreshCmd(ctx context.Context, r *datasource.Refresher) tea.Cmd {
	return func() tea.Msg {
		return SnapshotMsg{Result: r.Refresh(ctx)}
	}
}

// WatchFileCmd waits for a file change and sends FileChangedMsg. It
// returns nil once ctx is done.
func WatchFileCmd(ctx context.Context, w *watcher.Watcher) tea.Cmd {
	return func() tea.Msg {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-w.Changed():
			if !ok {
				return nil
			}
			return FileChangedMsg{}
		}
	}
}

// PollCmd refreshes every interval for as long as ctx lives. Results reach
// the model through the store subscription; failures show up through the
// refresher's last error.
func PollCmd(ctx context.Context, r *datasource.Refresher, interval time.Duration) tea.Cmd {
	return func() tea.Msg {
		err := r.Run(ctx, interval)
		debug.Log("ui: polling stopped: %v", err)
		return nil
	}
}

// WaitSnapshotCmd waits for the next snapshot on updates. It returns nil
// once ctx is done or the subscription is cancelled.
func WaitSnapshotCmd(ctx context.Context, updates <-chan *store.Snapshot) tea.Cmd {
	return func() tea.Msg {
		select {
		case <-ctx.Done():
			return nil
		case snap, ok := <-updates:
			if !ok {
				return nil
			}
			return StoreUpdatedMsg{Snapshot: snap}
		}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.report.Width = max(20, msg.Width-4)
		m.report.Height = max(5, msg.Height-4)
		if m.showReport {
			m.report.SetContent(m.renderReport())
		}
		return m, nil

	case SnapshotMsg:
		m.refreshing = false
		m.lastResult = msg.Result
		if msg.Result.Snapshot != nil {
			m.reportedGen = max(m.reportedGen, msg.Result.Snapshot.Generation)
		}
		switch {
		case msg.Result.Err != nil:
			m.setError(fmt.Sprintf("Refresh failed, showing last data: %v", msg.Result.Err))
		case msg.Result.Changed:
			m.setStatus(fmt.Sprintf("Loaded %d users: %s", msg.Result.Snapshot.Len(), msg.Result.Diff.Summary()))
		default:
			m.setStatus("No changes")
		}
		return m, nil

	case StoreUpdatedMsg:
		debug.Log("ui: store published gen=%d", msg.Snapshot.Generation)
		if msg.Snapshot.Generation > m.reportedGen {
			m.reportedGen = msg.Snapshot.Generation
			m.setStatus(fmt.Sprintf("Updated: %d users", msg.Snapshot.Len()))
		}
		if m.opts.Updates == nil {
			return m, nil
		}
		return m, WaitSnapshotCmd(m.ctx, m.opts.Updates)

	case FileChangedMsg:
		debug.Log("ui: source file changed")
		var cmds []tea.Cmd
		if m.opts.Watcher != nil {
			cmds = append(cmds, WatchFileCmd(m.ctx, m.opts.Watcher))
		}
		if cmd := m.startRefresh(); cmd != nil {
			cmds = append(cmds, cmd)
		}
		return m, tea.Batch(cmds...)

	case ExportDoneMsg:
		if msg.Err != nil {
			m.setError(fmt.Sprintf("Export failed: %v", msg.Err))
		} else {
			m.setStatus(fmt.Sprintf("Exported %d rows to %s", msg.Rows, msg.Path))
		}
		return m, nil

	case CopyDoneMsg:
		if msg.Err != nil {
			m.setError(fmt.Sprintf("Copy failed: %v", msg.Err))
		} else {
			m.setStatus(fmt.Sprintf("Copied %d rows to clipboard", msg.Rows))
		}
		return m, nil

	case tea.KeyMsg:
		if m.searching {
			return m.updateSearch(msg)
		}
		if m.showReport {
			return m.updateReport(msg)
		}
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc, tea.KeyEnter:
		m.searching = false
		m.search.Blur()
		return m, nil
	case tea.KeyCtrlC:
		return m, tea.Quit
	}
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	m.ctrl.SetQuery(m.search.Value())
	return m, cmd
}

func (m Model) updateReport(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Report), key.Matches(msg, m.keys.Leave):
		m.showReport = false
		return m, nil
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	}
	var cmd tea.Cmd
	m.report, cmd = m.report.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Search):
		m.searching = true
		return m, m.search.Focus()

	case key.Matches(msg, m.keys.Leave):
		if m.search.Value() != "" {
			m.search.SetValue("")
			m.ctrl.SetQuery("")
		}

	case key.Matches(msg, m.keys.OnlyActive):
		m.ctrl.ToggleOnlyActive()

	case key.Matches(msg, m.keys.Sort):
		mode, err := m.ctrl.CycleSortMode()
		if err != nil {
			m.setError(fmt.Sprintf("Sorting by %s (not saved: %v)", mode.Label(), err))
		} else {
			m.setStatus("Sorting by " + mode.Label())
		}

	case key.Matches(msg, m.keys.PrevPage):
		m.ctrl.PrevPage()

	case key.Matches(msg, m.keys.NextPage):
		m.ctrl.NextPage()

	case key.Matches(msg, m.keys.View):
		if _, err := m.ctrl.ToggleView(); err != nil {
			m.setError(fmt.Sprintf("View mode not saved: %v", err))
		}

	case key.Matches(msg, m.keys.Refresh):
		if m.opts.Refresher == nil {
			m.setError("Refresh unavailable")
			return m, nil
		}
		return m, m.startRefresh()

	case key.Matches(msg, m.keys.Copy):
		return m, m.copyCmd()

	case key.Matches(msg, m.keys.Export):
		return m, m.exportCmd()

	case key.Matches(msg, m.keys.Report):
		m.showReport = true
		m.report.SetContent(m.renderReport())
		m.report.GotoTop()

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}
	return m, nil
}

// startRefresh returns nil when no refresher is configured or one is
// already running.
func (m *Model) startRefresh() tea.Cmd {
	if m.opts.Refresher == nil || m.refreshing {
		return nil
	}
	m.refreshing = true
	m.setStatus("Refreshing…")
	return RefreshCmd(m.ctx, m.opts.Refresher)
}

func (m Model) copyCmd() tea.Cmd {
	records := m.ctrl.Export()
	copyFn := m.opts.copy
	return func() tea.Msg {
		return CopyDoneMsg{Rows: len(records), Err: copyFn(records)}
	}
}

func (m Model) exportCmd() tea.Cmd {
	ds := export.Dataset{
		Title:       m.opts.Title,
		GeneratedAt: m.opts.Now(),
		Records:     m.ctrl.Export(),
		Kpis:        m.ctrl.View().Kpis,
	}
	format := m.opts.ExportFormat
	path := filepath.Join(m.opts.ExportDir, export.DefaultFileName(format, ds.GeneratedAt))
	opts := export.Options{BOM: m.opts.ExportBOM}
	return func() tea.Msg {
		err := export.ExportFile(path, format, ds, opts)
		return ExportDoneMsg{Path: path, Rows: len(ds.Records), Err: err}
	}
}

func (m *Model) setStatus(s string) {
	m.statusMsg = s
	m.statusIsError = false
}

func (m *Model) setError(s string) {
	m.statusMsg = s
	m.statusIsError = true
}

// Searching reports whether the search input has focus.
func (m Model) Searching() bool {
	return m.searching
}

// Status returns the current status line and whether it is an error.
func (m Model) Status() (string, bool) {
	return m.statusMsg, m.statusIsError
}
