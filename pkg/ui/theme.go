package ui

import (
	"os"

	"github.com/charmbracelet/colorprofile"
	"github.com/charmbracelet/lipgloss"
)

// TermProfile holds the detected terminal color profile. Computed once at
// package init so every style helper can branch without re-detecting.
var TermProfile colorprofile.Profile

func init() {
	TermProfile = colorprofile.Detect(os.Stdout, os.Environ())
}

// ThemeBg returns the given hex color for TrueColor terminals and
// lipgloss.NoColor{} otherwise, so 16/256-color terminals keep their own
// background.
func ThemeBg(hex string) lipgloss.TerminalColor {
	if TermProfile < colorprofile.TrueColor {
		return lipgloss.NoColor{}
	}
	return lipgloss.Color(hex)
}

// ThemeFg returns the given hex color for ANSI256+ terminals and a safe
// ANSI white (color 7) for 16-color or lower terminals.
func ThemeFg(hex string) lipgloss.TerminalColor {
	if TermProfile < colorprofile.ANSI256 {
		return lipgloss.ANSIColor(7)
	}
	return lipgloss.Color(hex)
}

// Adaptive palette (Dracula on dark terminals, WCAG AA tuned on light ones).
var (
	ColorText      = lipgloss.AdaptiveColor{Light: "#1A1A1A", Dark: "#F8F8F2"}
	ColorSubtext   = lipgloss.AdaptiveColor{Light: "#555555", Dark: "#BFBFBF"}
	ColorMuted     = lipgloss.AdaptiveColor{Light: "#666666", Dark: "#6272A4"}
	ColorPrimary   = lipgloss.AdaptiveColor{Light: "#6B47D9", Dark: "#BD93F9"}
	ColorInfo      = lipgloss.AdaptiveColor{Light: "#006080", Dark: "#8BE9FD"}
	ColorSuccess   = lipgloss.AdaptiveColor{Light: "#007700", Dark: "#50FA7B"}
	ColorWarning   = lipgloss.AdaptiveColor{Light: "#B06800", Dark: "#FFB86C"}
	ColorDanger    = lipgloss.AdaptiveColor{Light: "#CC0000", Dark: "#FF5555"}
	ColorBorder    = lipgloss.AdaptiveColor{Light: "#AAAAAA", Dark: "#44475A"}
	ColorHighlight = lipgloss.AdaptiveColor{Light: "#E0E0E0", Dark: "#44475A"}
)

// Theme holds the styles the dashboard renders with. Styles are built once
// per renderer instead of per frame.
type Theme struct {
	Renderer *lipgloss.Renderer

	Base      lipgloss.Style
	Title     lipgloss.Style
	Header    lipgloss.Style
	Muted     lipgloss.Style
	Card      lipgloss.Style
	CardLabel lipgloss.Style
	CardValue lipgloss.Style
	Completed lipgloss.Style
	InWork    lipgloss.Style
	Overdue   lipgloss.Style
	Rank      lipgloss.Style
	Bar       lipgloss.Style
	Status    lipgloss.Style
	Error     lipgloss.Style
	Search    lipgloss.Style
	Overlay   lipgloss.Style
}

// DefaultTheme returns the standard Dracula-inspired theme (adaptive).
func DefaultTheme(r *lipgloss.Renderer) Theme {
	if r == nil {
		r = lipgloss.DefaultRenderer()
	}
	t := Theme{Renderer: r}

	t.Base = r.NewStyle().Foreground(ColorText)
	t.Title = r.NewStyle().Foreground(ColorPrimary).Bold(true)
	t.Header = r.NewStyle().
		Background(ColorPrimary).
		Foreground(lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#282A36"}).
		Bold(true)
	t.Muted = r.NewStyle().Foreground(ColorMuted)

	t.Card = r.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorBorder).
		Padding(0, 1)
	t.CardLabel = r.NewStyle().Foreground(ColorSubtext)
	t.CardValue = r.NewStyle().Foreground(ColorText).Bold(true)

	t.Completed = r.NewStyle().Foreground(ColorSuccess)
	t.InWork = r.NewStyle().Foreground(ColorInfo)
	t.Overdue = r.NewStyle().Foreground(ColorDanger)
	t.Rank = r.NewStyle().Foreground(ThemeFg("#FFD700")).Bold(true)
	t.Bar = r.NewStyle().Foreground(ColorPrimary)

	t.Status = r.NewStyle().Foreground(ColorSubtext)
	t.Error = r.NewStyle().Foreground(ColorDanger).Bold(true)
	t.Search = r.NewStyle().Foreground(ColorWarning)
	t.Overlay = r.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorPrimary).
		Padding(0, 1)

	return t
}
