package export

import (
	"fmt"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"strings"

	"git.sr.ht/~sbinet/gg"
	"github.com/ajstarks/svgo"
	"golang.org/x/image/font/basicfont"

	"github.com/vanderheijden86/teamboard/pkg/model"
)

// ChartOptions controls leaderboard chart export.
type ChartOptions struct {
	Path   string // Output path; format inferred from extension when Format empty
	Format Format // FormatSVG or FormatPNG
	Title  string
	Kpis   model.Kpis
}

var (
	colorBackdrop = color.RGBA{R: 0xf8, G: 0xf9, B: 0xfb, A: 0xff}
	colorHeaderBG = color.RGBA{R: 0xe7, G: 0xec, B: 0xf3, A: 0xff}
	colorBar      = color.RGBA{R: 0x4c, G: 0x9a, B: 0x6a, A: 0xff}
	colorBarTop   = color.RGBA{R: 0xe0, G: 0xa1, B: 0x2b, A: 0xff}
	colorTrack    = color.RGBA{R: 0xde, G: 0xe3, B: 0xea, A: 0xff}
	colorText     = color.RGBA{R: 0x1f, G: 0x29, B: 0x37, A: 0xff}
	colorSubtle   = color.RGBA{R: 0x5b, G: 0x67, B: 0x78, A: 0xff}
)

// chartLayout is computed once and drawn by both renderers.
type chartLayout struct {
	Width, Height int
	Header        int
	Title         string
	Subtitle      string
	Bars          []chartBar
}

type chartBar struct {
	Label    string
	Value    int
	Y        int
	BarWidth int
	Top      bool
}

const (
	chartWidth  = 640
	chartHeader = 84
	barRow      = 36
	barHeight   = 20
	labelWidth  = 200
	barMaxWidth = chartWidth - labelWidth - 80
)

func buildChartLayout(title string, k model.Kpis) chartLayout {
	if title == "" {
		title = "Leaderboard"
	}
	l := chartLayout{
		Width:    chartWidth,
		Header:   chartHeader,
		Title:    title,
		Subtitle: fmt.Sprintf("completed %d  in progress %d  overdue %d  done %d%%", k.Totals.Completed, k.Totals.InWork, k.Totals.Failed, k.DoneRate),
	}

	maxVal := 0
	for _, e := range k.Leaderboard {
		maxVal = max(maxVal, e.Record.CompletedCount)
	}
	for i, e := range k.Leaderboard {
		w := 0
		if maxVal > 0 {
			w = e.Record.CompletedCount * barMaxWidth / maxVal
		}
		l.Bars = append(l.Bars, chartBar{
			Label:    fmt.Sprintf("%d. %s", e.Place, truncate(e.Record.Name, 24)),
			Value:    e.Record.CompletedCount,
			Y:        chartHeader + 16 + i*barRow,
			BarWidth: max(w, 2),
			Top:      e.Place == 1,
		})
	}
	rows := max(len(l.Bars), 1)
	l.Height = chartHeader + 16 + rows*barRow + 16
	return l
}

// SaveLeaderboardChart renders the KPI leaderboard as a horizontal bar chart.
func SaveLeaderboardChart(opts ChartOptions) error {
	format := opts.Format
	if format == "" {
		f, err := ParseFormat(filepath.Ext(opts.Path))
		if err != nil {
			return err
		}
		format = f
	}
	if opts.Path == "" {
		return fmt.Errorf("chart path is required")
	}

	layout := buildChartLayout(opts.Title, opts.Kpis)
	switch format {
	case FormatPNG:
		return renderPNG(opts.Path, layout)
	case FormatSVG:
		file, err := os.Create(opts.Path)
		if err != nil {
			return err
		}
		if err := renderSVGToWriter(file, layout); err != nil {
			file.Close()
			return err
		}
		return file.Close()
	}
	return fmt.Errorf("unsupported chart format %q (want svg or png)", format)
}

// WriteLeaderboardSVG renders the chart as SVG to w.
func WriteLeaderboardSVG(w io.Writer, title string, k model.Kpis) error {
	return renderSVGToWriter(w, buildChartLayout(title, k))
}

func renderPNG(path string, layout chartLayout) error {
	dc := gg.NewContext(layout.Width, layout.Height)
	dc.SetColor(colorBackdrop)
	dc.Clear()

	dc.SetColor(colorHeaderBG)
	dc.DrawRoundedRectangle(16, 16, float64(layout.Width)-32, float64(layout.Header)-24, 10)
	dc.Fill()

	dc.SetFontFace(basicfont.Face7x13)
	dc.SetColor(colorText)
	dc.DrawStringAnchored(asciiFallback(layout.Title), 32, 40, 0, 0.5)
	dc.SetColor(colorSubtle)
	dc.DrawStringAnchored(layout.Subtitle, 32, 60, 0, 0.5)

	if len(layout.Bars) == 0 {
		dc.DrawStringAnchored("no completed tasks yet", 32, float64(layout.Header+34), 0, 0.5)
	}
	for _, b := range layout.Bars {
		y := float64(b.Y)
		dc.SetColor(colorText)
		// basicfont only covers ASCII; other runes draw as boxes.
		dc.DrawStringAnchored(asciiFallback(b.Label), 32, y+barHeight/2, 0, 0.5)

		dc.SetColor(colorTrack)
		dc.DrawRoundedRectangle(labelWidth, y, barMaxWidth, barHeight, 4)
		dc.Fill()

		if b.Top {
			dc.SetColor(colorBarTop)
		} else {
			dc.SetColor(colorBar)
		}
		dc.DrawRoundedRectangle(labelWidth, y, float64(b.BarWidth), barHeight, 4)
		dc.Fill()

		dc.SetColor(colorSubtle)
		dc.DrawStringAnchored(fmt.Sprintf("%d", b.Value), float64(labelWidth+barMaxWidth+10), y+barHeight/2, 0, 0.5)
	}

	return dc.SavePNG(path)
}

func renderSVGToWriter(w io.Writer, layout chartLayout) error {
	canvas := svg.New(w)
	canvas.Start(layout.Width, layout.Height)
	canvas.Rect(0, 0, layout.Width, layout.Height, fmt.Sprintf("fill:%s", css(colorBackdrop)))
	canvas.Roundrect(16, 16, layout.Width-32, layout.Header-24, 10, 10, fmt.Sprintf("fill:%s", css(colorHeaderBG)))

	canvas.Text(32, 44, layout.Title, fmt.Sprintf("fill:%s;font-size:16px;font-family:sans-serif;font-weight:bold", css(colorText)))
	canvas.Text(32, 64, layout.Subtitle, fmt.Sprintf("fill:%s;font-size:12px;font-family:monospace", css(colorSubtle)))

	if len(layout.Bars) == 0 {
		canvas.Text(32, layout.Header+34, "no completed tasks yet", fmt.Sprintf("fill:%s;font-size:13px;font-family:sans-serif", css(colorSubtle)))
	}
	for _, b := range layout.Bars {
		fill := colorBar
		if b.Top {
			fill = colorBarTop
		}
		canvas.Text(32, b.Y+15, b.Label, fmt.Sprintf("fill:%s;font-size:13px;font-family:sans-serif", css(colorText)))
		canvas.Roundrect(labelWidth, b.Y, barMaxWidth, barHeight, 4, 4, fmt.Sprintf("fill:%s", css(colorTrack)))
		canvas.Roundrect(labelWidth, b.Y, b.BarWidth, barHeight, 4, 4, fmt.Sprintf("fill:%s", css(fill)))
		canvas.Text(labelWidth+barMaxWidth+10, b.Y+15, fmt.Sprintf("%d", b.Value), fmt.Sprintf("fill:%s;font-size:12px;font-family:monospace", css(colorSubtle)))
	}

	canvas.End()
	return nil
}

// --- helpers ---------------------------------------------------------------

func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}

// asciiFallback replaces runes the bitmap font cannot draw.
func asciiFallback(s string) string {
	return strings.Map(func(r rune) rune {
		if r > 0x7e {
			return '?'
		}
		return r
	}, s)
}

func css(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
