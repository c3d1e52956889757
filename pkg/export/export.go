// Package export writes the dashboard's sorted collection and KPIs to files,
// the clipboard and charts.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/vanderheijden86/teamboard/pkg/debug"
	"github.com/vanderheijden86/teamboard/pkg/metrics"
	"github.com/vanderheijden86/teamboard/pkg/model"
)

// Format names an export file type.
type Format string

const (
	FormatCSV      Format = "csv"
	FormatJSON     Format = "json"
	FormatXLSX     Format = "xlsx"
	FormatMarkdown Format = "md"
	FormatSVG      Format = "svg"
	FormatPNG      Format = "png"
)

// Formats lists every supported format.
var Formats = []Format{FormatCSV, FormatJSON, FormatXLSX, FormatMarkdown, FormatSVG, FormatPNG}

// ParseFormat accepts a format name or file extension, case-insensitively.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")))
	switch f {
	case "markdown":
		return FormatMarkdown, nil
	case FormatCSV, FormatJSON, FormatXLSX, FormatMarkdown, FormatSVG, FormatPNG:
		return f, nil
	}
	return "", fmt.Errorf("unsupported export format %q", s)
}

// Dataset is what every exporter consumes: the sorted, unpaginated
// collection and whole-snapshot KPIs.
type Dataset struct {
	Title       string
	GeneratedAt time.Time
	Records     []model.StatRecord
	Kpis        model.Kpis
}

// Options tune file exports.
type Options struct {
	// BOM prefixes CSV output with a UTF-8 byte order mark.
	BOM bool
}

// columns is the shared header for tabular formats.
var columns = []string{"ID", "Name", "Completed", "In progress", "Overdue", "Total", "Done %"}

func row(r model.StatRecord) []string {
	return []string{
		r.ID,
		r.Name,
		strconv.Itoa(r.CompletedCount),
		strconv.Itoa(r.InProgressCount),
		strconv.Itoa(r.OverdueCount),
		strconv.Itoa(r.Total()),
		strconv.Itoa(r.DoneRatePercent()),
	}
}

// DefaultFileName returns a timestamped file name for format.
func DefaultFileName(format Format, at time.Time) string {
	return fmt.Sprintf("teamboard-%s.%s", at.Format("20060102-1504"), format)
}

// ExportFile writes ds to path. An empty format is inferred from the path's
// extension. Parent directories are created.
func ExportFile(path string, format Format, ds Dataset, opts Options) error {
	defer metrics.Timer(metrics.ExportWrite)()

	if format == "" {
		f, err := ParseFormat(filepath.Ext(path))
		if err != nil {
			return err
		}
		format = f
	}
	if ds.GeneratedAt.IsZero() {
		ds.GeneratedAt = time.Now()
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating export directory: %w", err)
		}
	}

	debug.Log("export: %s -> %s (%d records)", format, path, len(ds.Records))

	switch format {
	case FormatSVG, FormatPNG:
		return SaveLeaderboardChart(ChartOptions{Path: path, Format: format, Title: ds.Title, Kpis: ds.Kpis})
	case FormatMarkdown:
		return os.WriteFile(path, []byte(renderMarkdown(ds)), 0o644)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating export file: %w", err)
	}
	switch format {
	case FormatCSV:
		err = WriteCSV(f, ds.Records, opts.BOM)
	case FormatJSON:
		err = WriteJSON(f, ds)
	case FormatXLSX:
		err = WriteXLSX(f, ds)
	default:
		err = fmt.Errorf("unsupported export format %q", format)
	}
	if cerr := f.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("closing export file: %w", cerr)
	}
	return err
}
