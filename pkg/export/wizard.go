package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"
)

// WizardResult is what the user picked.
type WizardResult struct {
	Format Format
	Path   string
	BOM    bool
}

// Wizard interactively collects export settings.
type Wizard struct {
	dir    string
	now    func() time.Time
	result WizardResult
}

// NewWizard creates a wizard proposing files under dir (cwd when empty) and
// defaulting to format.
func NewWizard(dir string, format Format) *Wizard {
	if format == "" {
		format = FormatCSV
	}
	return &Wizard{
		dir:    dir,
		now:    time.Now,
		result: WizardResult{Format: format},
	}
}

// isTerminal checks if stdin is connected to a terminal
func isTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// newForm creates a form with appropriate settings based on TTY detection
func newForm(groups ...*huh.Group) *huh.Form {
	form := huh.NewForm(groups...).WithTheme(huh.ThemeDracula())
	if !isTerminal() {
		form = form.WithAccessible(true)
	}
	return form
}

// Run asks for format, destination and CSV options.
func (w *Wizard) Run() (*WizardResult, error) {
	formatOptions := []huh.Option[Format]{
		huh.NewOption("CSV (spreadsheets)", FormatCSV),
		huh.NewOption("Excel workbook (.xlsx)", FormatXLSX),
		huh.NewOption("JSON", FormatJSON),
		huh.NewOption("Markdown report", FormatMarkdown),
		huh.NewOption("Leaderboard chart (SVG)", FormatSVG),
		huh.NewOption("Leaderboard chart (PNG)", FormatPNG),
	}

	form := newForm(
		huh.NewGroup(
			huh.NewSelect[Format]().
				Title("Export format").
				Options(formatOptions...).
				Value(&w.result.Format),
		),
	)
	if err := form.Run(); err != nil {
		return nil, err
	}

	w.result.Path = w.SuggestedPath()
	fields := []huh.Field{
		huh.NewInput().
			Title("Save to").
			Value(&w.result.Path).
			Validate(func(s string) error {
				if strings.TrimSpace(s) == "" {
					return fmt.Errorf("path is required")
				}
				return nil
			}),
	}
	if w.result.Format == FormatCSV {
		fields = append(fields, huh.NewConfirm().
			Title("Add a byte order mark?").
			Description("Helps Excel open non-ASCII names correctly").
			Value(&w.result.BOM))
	}
	if err := newForm(huh.NewGroup(fields...)).Run(); err != nil {
		return nil, err
	}

	w.result.Path = strings.TrimSpace(w.result.Path)
	if ext := filepath.Ext(w.result.Path); ext == "" {
		w.result.Path += "." + string(w.result.Format)
	}
	res := w.result
	return &res, nil
}

// SuggestedPath returns the default destination for the selected format.
func (w *Wizard) SuggestedPath() string {
	return filepath.Join(w.dir, DefaultFileName(w.result.Format, w.now()))
}
