package main

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"github.com/vanderheijden86/teamboard/pkg/export"
	"github.com/vanderheijden86/teamboard/pkg/testutil"
	"github.com/vanderheijden86/teamboard/pkg/version"
)

// isolate points config and state at a temp dir and clears TB_* overrides.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_STATE_HOME", filepath.Join(dir, "state"))
	for _, k := range []string{"TB_SOURCE", "TB_USERNAME", "TB_PASSWORD", "TB_PAGE_SIZE", "TB_LOCALE"} {
		t.Setenv(k, "")
	}
	return dir
}

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRun_Version(t *testing.T) {
	code, out, _ := runCLI(t, "--version")
	if code != 0 || !strings.Contains(out, version.Version) {
		t.Errorf("unexpected version output (code %d): %q", code, out)
	}
}

func TestRun_Help(t *testing.T) {
	code, out, _ := runCLI(t, "--help")
	if code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	for _, flag := range []string{"-source", "-robot-json", "-only-active", "-avatar-size"} {
		if !strings.Contains(out, flag) {
			t.Errorf("help should list %s", flag)
		}
	}
}

func TestRun_MissingSource(t *testing.T) {
	isolate(t)
	code, _, errOut := runCLI(t, "--robot-json", "--no-state")
	if code != 1 || !strings.Contains(errOut, "no stats source") {
		t.Errorf("expected missing source error, got code %d: %q", code, errOut)
	}
}

func TestRun_FetchErrorExitsNonZero(t *testing.T) {
	dir := isolate(t)
	code, _, errOut := runCLI(t, "--source", filepath.Join(dir, "missing.json"), "--robot-json", "--no-state")
	if code != 1 || !strings.HasPrefix(errOut, "Error") {
		t.Errorf("expected fetch error, got code %d: %q", code, errOut)
	}
}

func TestRun_RobotJSON(t *testing.T) {
	dir := isolate(t)
	src := testutil.WriteStatsFile(t, filepath.Join(dir, "team.json"), testutil.Scenario())

	code, out, errOut := runCLI(t, "--source", src, "--robot-json", "--no-state", "--page-size", "2", "--page", "5")
	if code != 0 {
		t.Fatalf("exit %d: %s", code, errOut)
	}

	var doc struct {
		Generation uint64 `json:"generation"`
		Params     struct {
			Mode string `json:"sortMode"`
			Page int    `json:"page"`
		} `json:"params"`
		Page struct {
			Data []struct {
				Name string `json:"name"`
			} `json:"data"`
			CurrentPage int `json:"currentPage"`
			TotalPages  int `json:"totalPages"`
		} `json:"page"`
		Kpis struct {
			UserCount int `json:"userCount"`
		} `json:"kpis"`
	}
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out)
	}
	if doc.Generation != 1 || doc.Kpis.UserCount != 3 {
		t.Errorf("unexpected snapshot info: %+v", doc)
	}
	if doc.Params.Mode != "completedDesc" || doc.Page.CurrentPage != 2 || doc.Page.TotalPages != 2 {
		t.Errorf("unexpected paging: %+v", doc)
	}
	if len(doc.Page.Data) != 1 || doc.Page.Data[0].Name != "Вера" {
		t.Errorf("expected Вера alone on the last page, got %+v", doc.Page.Data)
	}
}

func TestRun_RobotJSONFilters(t *testing.T) {
	dir := isolate(t)
	src := testutil.WriteStatsFile(t, filepath.Join(dir, "team.json"), testutil.Scenario())

	code, out, errOut := runCLI(t, "--source", src, "--robot-json", "--no-state", "--query", "ВЕР", "--sort", "nameAsc")
	if code != 0 {
		t.Fatalf("exit %d: %s", code, errOut)
	}
	var doc struct {
		Page struct {
			Data []struct {
				ID string `json:"id"`
			} `json:"data"`
			Total int `json:"total"`
		} `json:"page"`
	}
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if doc.Page.Total != 1 || doc.Page.Data[0].ID != "3" {
		t.Errorf("expected only user 3, got %+v", doc.Page)
	}
}

func TestRun_ExportAndChart(t *testing.T) {
	dir := isolate(t)
	src := testutil.WriteStatsFile(t, filepath.Join(dir, "team.json"), testutil.QuickTeam(8))
	csvPath := filepath.Join(dir, "out", "team.csv")
	chartPath := filepath.Join(dir, "out", "chart.svg")

	code, out, errOut := runCLI(t, "--source", src, "--no-state", "--export", csvPath, "--chart", chartPath)
	if code != 0 {
		t.Fatalf("exit %d: %s", code, errOut)
	}
	if !strings.Contains(out, "Exported 8 users") {
		t.Errorf("unexpected output %q", out)
	}

	data, err := os.ReadFile(csvPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "ID,Name,Completed") {
		t.Errorf("unexpected CSV header: %q", strings.SplitN(string(data), "\n", 2)[0])
	}
	svg, err := os.ReadFile(chartPath)
	if err != nil || !bytes.Contains(svg, []byte("<svg")) {
		t.Errorf("expected SVG chart, err=%v", err)
	}
}

func TestRun_SortPersistsAcrossRuns(t *testing.T) {
	dir := isolate(t)
	src := testutil.WriteStatsFile(t, filepath.Join(dir, "team.json"), testutil.Scenario())

	if code, _, errOut := runCLI(t, "--source", src, "--robot-json", "--sort", "failedDesc"); code != 0 {
		t.Fatalf("exit %d: %s", code, errOut)
	}
	code, out, errOut := runCLI(t, "--source", src, "--robot-json")
	if code != 0 {
		t.Fatalf("exit %d: %s", code, errOut)
	}
	if !strings.Contains(out, `"sortMode": "failedDesc"`) {
		t.Errorf("expected persisted sort mode, got\n%s", out)
	}
	if _, err := os.Stat(filepath.Join(dir, "state", "teamboard", "prefs.db")); err != nil {
		t.Errorf("expected prefs database: %v", err)
	}
}

func TestRun_Avatar(t *testing.T) {
	dir := t.TempDir()
	img := image.NewRGBA(image.Rect(0, 0, 40, 20))
	for x := 0; x < 40; x++ {
		for y := 0; y < 20; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 6), A: 0xff})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	in := filepath.Join(dir, "face.png")
	if err := os.WriteFile(in, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}

	code, out, errOut := runCLI(t, "--avatar", in, "--avatar-size", "16")
	if code != 0 {
		t.Fatalf("exit %d: %s", code, errOut)
	}
	if !strings.Contains(out, "16x16") {
		t.Errorf("unexpected output %q", out)
	}
	f, err := os.Open(filepath.Join(dir, "face.avatar.png"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	if err != nil || cfg.Width != 16 || cfg.Height != 16 {
		t.Errorf("unexpected avatar %+v (err %v)", cfg, err)
	}
}

func TestExportFormat(t *testing.T) {
	tests := []struct {
		flag, path, configured string
		want                   export.Format
		wantErr                bool
	}{
		{"", "a.xlsx", "csv", export.FormatXLSX, false},
		{"json", "a.xlsx", "csv", export.FormatJSON, false},
		{"", "report", "md", export.FormatMarkdown, false},
		{"", "a.pdf", "csv", "", true},
	}
	for _, tt := range tests {
		got, err := exportFormat(tt.flag, tt.path, tt.configured)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("exportFormat(%q, %q, %q) = %q, %v", tt.flag, tt.path, tt.configured, got, err)
		}
	}
}

func TestWatchPath(t *testing.T) {
	tests := map[string]string{
		"team.json":               "team.json",
		"sqlite:///data/stats.db": "/data/stats.db",
		"https://example.com/api": "",
		"a.json,b.json":           "",
		"notes.txt":               "",
	}
	for in, want := range tests {
		if got := watchPath(in); got != want {
			t.Errorf("watchPath(%q) = %q, want %q", in, got, want)
		}
	}
}
