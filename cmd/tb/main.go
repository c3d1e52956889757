package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/pprof"
	"strconv"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"github.com/vanderheijden86/teamboard/internal/datasource"
	"github.com/vanderheijden86/teamboard/pkg/analysis"
	"github.com/vanderheijden86/teamboard/pkg/avatar"
	"github.com/vanderheijden86/teamboard/pkg/config"
	"github.com/vanderheijden86/teamboard/pkg/dashboard"
	"github.com/vanderheijden86/teamboard/pkg/debug"
	"github.com/vanderheijden86/teamboard/pkg/export"
	"github.com/vanderheijden86/teamboard/pkg/metrics"
	"github.com/vanderheijden86/teamboard/pkg/model"
	"github.com/vanderheijden86/teamboard/pkg/prefs"
	"github.com/vanderheijden86/teamboard/pkg/store"
	"github.com/vanderheijden86/teamboard/pkg/ui"
	"github.com/vanderheijden86/teamboard/pkg/version"
	"github.com/vanderheijden86/teamboard/pkg/watcher"
)

type options struct {
	source       string
	configPath   string
	query        string
	onlyActive   bool
	sort         string
	page         int
	pageSize     int
	robotJSON    bool
	exportPath   string
	format       string
	exportWizard bool
	chartPath    string
	avatarPath   string
	avatarOut    string
	avatarSize   int
	watch        bool
	noState      bool
	metricsAddr  string
	cpuProfile   string
	version      bool
	help         bool
}

func parseFlags(args []string, stderr io.Writer) (*options, *flag.FlagSet, error) {
	o := &options{}
	flags := flag.NewFlagSet("tb", flag.ContinueOnError)
	flags.SetOutput(stderr)

	flags.StringVar(&o.source, "source", "", "Stats location: http(s) URL, .json file, .db file, or a comma-separated list")
	flags.StringVar(&o.configPath, "config", "", "Config file (default: XDG config dir)")
	flags.StringVar(&o.query, "query", "", "Only users whose name contains this text")
	flags.BoolVar(&o.onlyActive, "only-active", false, "Hide users without tasks")
	flags.StringVar(&o.sort, "sort", "", "Sort mode: completedDesc, failedDesc, inWorkDesc, nameAsc")
	flags.IntVar(&o.page, "page", 1, "Page to show (robot output)")
	flags.IntVar(&o.pageSize, "page-size", 0, "Users per page")
	flags.BoolVar(&o.robotJSON, "robot-json", false, "Print the current view as JSON and exit")
	flags.StringVar(&o.exportPath, "export", "", "Export the sorted collection to a file and exit")
	flags.StringVar(&o.format, "format", "", "Export format: csv, json, xlsx, md (default from extension)")
	flags.BoolVar(&o.exportWizard, "export-wizard", false, "Choose export format and path interactively")
	flags.StringVar(&o.chartPath, "chart", "", "Write the leaderboard chart (.svg or .png) and exit")
	flags.StringVar(&o.avatarPath, "avatar", "", "Prepare an avatar image and exit")
	flags.StringVar(&o.avatarOut, "avatar-out", "", "Output path for --avatar")
	flags.IntVar(&o.avatarSize, "avatar-size", avatar.DefaultSize, "Edge length for --avatar")
	flags.BoolVar(&o.watch, "watch", false, "Reload when a file or SQLite source changes")
	flags.BoolVar(&o.noState, "no-state", false, "Do not read or write saved preferences")
	flags.StringVar(&o.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9100)")
	flags.StringVar(&o.cpuProfile, "cpu-profile", "", "Write CPU profile to file")
	flags.BoolVar(&o.version, "version", false, "Show version")
	flags.BoolVar(&o.help, "help", false, "Show help")

	if err := flags.Parse(args); err != nil {
		return nil, flags, err
	}
	return o, flags, nil
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	o, fset, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	if o.help {
		fmt.Fprintln(stdout, "Usage: tb [options]")
		fmt.Fprintln(stdout, "\nTeam task statistics dashboard.")
		fset.SetOutput(stdout)
		fset.PrintDefaults()
		return 0
	}
	if o.version {
		fmt.Fprintf(stdout, "tb %s\n", version.Version)
		return 0
	}

	// CPU profiling support
	if o.cpuProfile != "" {
		f, err := os.Create(o.cpuProfile)
		if err != nil {
			fmt.Fprintf(stderr, "Could not create CPU profile: %v\n", err)
			return 1
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			fmt.Fprintf(stderr, "Could not start CPU profile: %v\n", err)
			return 1
		}
		defer pprof.StopCPUProfile()
	}

	if o.avatarPath != "" {
		if err := runAvatar(o, stdout); err != nil {
			fmt.Fprintf(stderr, "Error preparing avatar: %v\n", err)
			return 1
		}
		return 0
	}

	// Credentials may live in .env; real environment variables win.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(stderr, "Warning: reading .env: %v\n", err)
	}

	cfg, err := loadConfig(o)
	if err != nil {
		fmt.Fprintf(stderr, "Error loading config: %v\n", err)
		return 1
	}
	if cfg.Source.Location == "" {
		fmt.Fprintln(stderr, "Error: no stats source configured (use --source or TB_SOURCE)")
		return 1
	}

	if o.metricsAddr != "" {
		srv := startMetricsServer(o.metricsAddr, stderr)
		defer srv.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := newApp(cfg, o, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "Error opening source: %v\n", err)
		return 1
	}
	defer app.Close()

	if o.headless() {
		if err := app.runHeadless(ctx, o, stdout); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		return 0
	}

	if err := app.runTUI(ctx, o); err != nil {
		fmt.Fprintf(stderr, "Error running dashboard: %v\n", err)
		return 1
	}
	return 0
}

func (o *options) headless() bool {
	return o.robotJSON || o.exportPath != "" || o.exportWizard || o.chartPath != ""
}

// loadConfig reads the config file and lets flags override it.
func loadConfig(o *options) (config.Config, error) {
	var (
		cfg config.Config
		err error
	)
	if o.configPath != "" {
		cfg, err = config.LoadFrom(o.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return cfg, err
	}

	if o.source != "" {
		cfg.Source.Location = o.source
	}
	if o.pageSize != 0 {
		cfg.Dashboard.PageSize = o.pageSize
	}
	if o.noState {
		cfg.State.Disabled = true
	}
	return cfg, cfg.Validate()
}

func startMetricsServer(addr string, stderr io.Writer) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fmt.Fprintf(stderr, "Warning: metrics server: %v\n", err)
		}
	}()
	return srv
}

// app bundles the long-lived pieces one invocation wires together.
type app struct {
	cfg       config.Config
	source    datasource.Source
	store     *store.Store
	refresher *datasource.Refresher
	prefs     *prefs.Preferences
	ctrl      *dashboard.Controller
}

func newApp(cfg config.Config, o *options, stderr io.Writer) (*app, error) {
	src, err := datasource.Open(cfg.Source.Location, datasource.Options{
		Username: cfg.Source.Username,
		Password: cfg.Source.Password,
		Timeout:  cfg.Source.Timeout,
	})
	if err != nil {
		return nil, err
	}

	p := prefs.New(nil)
	if path := cfg.PrefsPath(); path != "" {
		kv, err := prefs.OpenSQLite(path)
		if err != nil {
			fmt.Fprintf(stderr, "Warning: preferences unavailable, using defaults: %v\n", err)
		} else {
			p = prefs.New(kv)
		}
	}

	st := store.New()
	pipeline := analysis.NewPipeline(st, analysis.WithCollation(analysis.NewCollation(cfg.Dashboard.Locale)))
	ctrl := dashboard.New(pipeline, p, dashboard.Options{
		PageSize:    cfg.Dashboard.PageSize,
		DefaultSort: model.ParseSortMode(cfg.Dashboard.DefaultSort),
		DefaultView: cfg.Dashboard.DefaultView,
	})

	if o.sort != "" {
		mode := model.SortMode(o.sort)
		if !mode.Valid() {
			fmt.Fprintf(stderr, "Warning: unknown sort mode %q, using %s\n", o.sort, model.SortNameAsc)
		}
		if err := ctrl.SetSortMode(mode); err != nil {
			debug.Log("tb: saving sort mode: %v", err)
		}
	}
	ctrl.SetQuery(o.query)
	ctrl.SetOnlyActive(o.onlyActive)
	ctrl.SetPage(o.page)

	return &app{
		cfg:       cfg,
		source:    src,
		store:     st,
		refresher: datasource.NewRefresher(src, st, datasource.WithFetchTimeout(cfg.Source.Timeout)),
		prefs:     p,
		ctrl:      ctrl,
	}, nil
}

func (a *app) Close() {
	if err := a.source.Close(); err != nil {
		debug.Log("tb: closing source: %v", err)
	}
	if err := a.prefs.Close(); err != nil {
		debug.Log("tb: closing preferences: %v", err)
	}
}

func (a *app) dataset() export.Dataset {
	v := a.ctrl.View()
	return export.Dataset{
		Title:       "Team statistics",
		GeneratedAt: time.Now(),
		Records:     v.Sorted,
		Kpis:        v.Kpis,
	}
}

func (a *app) runHeadless(ctx context.Context, o *options, stdout io.Writer) error {
	res := a.refresher.Refresh(ctx)
	if res.Err != nil {
		return fmt.Errorf("fetching stats: %w", res.Err)
	}
	debug.Log("tb: fetched %d users in %s", res.Snapshot.Len(), res.Duration)

	if o.robotJSON {
		if err := writeRobotJSON(stdout, a.ctrl.View(), res.Snapshot.Source); err != nil {
			return err
		}
	}

	if o.exportPath != "" {
		format, err := exportFormat(o.format, o.exportPath, a.cfg.Export.Format)
		if err != nil {
			return err
		}
		ds := a.dataset()
		if err := export.ExportFile(o.exportPath, format, ds, export.Options{BOM: a.cfg.Export.BOM}); err != nil {
			return fmt.Errorf("exporting: %w", err)
		}
		fmt.Fprintf(stdout, "Exported %d users to %s\n", len(ds.Records), o.exportPath)
	}

	if o.exportWizard {
		format, _ := export.ParseFormat(a.cfg.Export.Format)
		res, err := export.NewWizard(a.cfg.Export.Dir, format).Run()
		if err != nil {
			return fmt.Errorf("export wizard: %w", err)
		}
		ds := a.dataset()
		if err := export.ExportFile(res.Path, res.Format, ds, export.Options{BOM: res.BOM}); err != nil {
			return fmt.Errorf("exporting: %w", err)
		}
		fmt.Fprintf(stdout, "Exported %d users to %s\n", len(ds.Records), res.Path)
	}

	if o.chartPath != "" {
		ds := a.dataset()
		if err := export.SaveLeaderboardChart(export.ChartOptions{Path: o.chartPath, Title: ds.Title, Kpis: ds.Kpis}); err != nil {
			return fmt.Errorf("writing chart: %w", err)
		}
		fmt.Fprintf(stdout, "Wrote leaderboard chart to %s\n", o.chartPath)
	}
	return nil
}

// exportFormat resolves --format, then the file extension, then the
// configured default.
func exportFormat(flagValue, path, configured string) (export.Format, error) {
	if flagValue != "" {
		return export.ParseFormat(flagValue)
	}
	if ext := filepath.Ext(path); ext != "" {
		return export.ParseFormat(ext)
	}
	return export.ParseFormat(configured)
}

// watchPath returns the file a --watch should follow, or "" for sources
// that are not local files.
func watchPath(location string) string {
	if strings.Contains(location, ",") {
		return ""
	}
	kind, err := datasource.DetectKind(location)
	if err != nil || kind == datasource.KindHTTP {
		return ""
	}
	return strings.TrimPrefix(location, "sqlite://")
}

func (a *app) runTUI(ctx context.Context, o *options) error {
	opts := ui.Options{
		Title:        "Team statistics",
		Refresher:    a.refresher,
		PollInterval: a.cfg.Source.PollInterval,
		ExportDir:    a.cfg.Export.Dir,
		ExportBOM:    a.cfg.Export.BOM,
		LastVisit:    a.ctrl.Open(),
	}
	if f, err := export.ParseFormat(a.cfg.Export.Format); err == nil {
		opts.ExportFormat = f
	}

	if o.watch {
		path := watchPath(a.cfg.Source.Location)
		if path == "" {
			return fmt.Errorf("--watch needs a single file or SQLite source")
		}
		w, err := watcher.NewWatcher(path)
		if err != nil {
			return fmt.Errorf("watching %s: %w", path, err)
		}
		if err := w.Start(); err != nil {
			return fmt.Errorf("watching %s: %w", path, err)
		}
		defer w.Stop()
		opts.Watcher = w
	}

	updates, unsubscribe := a.store.Subscribe()
	defer unsubscribe()
	opts.Updates = updates

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	return runTUIProgram(ui.NewModel(ctx, a.ctrl, opts))
}

func runTUIProgram(m ui.Model) error {
	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
		tea.WithoutSignalHandler(),
	)

	runDone := make(chan struct{})
	defer close(runDone)

	// Graceful shutdown on SIGINT/SIGTERM.
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-runDone:
			return
		case <-sigCh:
		}

		p.Quit()

		select {
		case <-runDone:
			return
		case <-sigCh:
		case <-time.After(5 * time.Second):
		}

		p.Kill()
	}()

	// Optional auto-quit for automated tests: set TB_TUI_AUTOCLOSE_MS.
	if v := os.Getenv("TB_TUI_AUTOCLOSE_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			go func() {
				timer := time.NewTimer(time.Duration(ms) * time.Millisecond)
				defer timer.Stop()
				select {
				case <-runDone:
				case <-timer.C:
					p.Quit()
				}
			}()
		}
	}

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) || errors.Is(err, tea.ErrInterrupted) {
		return nil
	}
	return err
}

func runAvatar(o *options, stdout io.Writer) error {
	data, err := os.ReadFile(o.avatarPath)
	if err != nil {
		return err
	}
	res, err := avatar.Prepare(data, o.avatarSize)
	if err != nil {
		return err
	}

	out := o.avatarOut
	if out == "" {
		base := strings.TrimSuffix(o.avatarPath, filepath.Ext(o.avatarPath))
		out = fmt.Sprintf("%s.avatar.%s", base, res.Format)
	}
	if err := os.WriteFile(out, res.Data, 0o644); err != nil {
		return err
	}

	if res.Animated {
		fmt.Fprintf(stdout, "Kept animated %s avatar (%dx%d) at %s\n", res.Format, res.Width, res.Height, out)
	} else {
		fmt.Fprintf(stdout, "Wrote %dx%d %s avatar to %s\n", res.Width, res.Height, res.Format, out)
	}
	return nil
}
