package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const (
	statsSheet   = "Stats"
	summarySheet = "Summary"
)

// WriteXLSX writes a workbook with the records on a "Stats" sheet (numeric
// cells, frozen header) and the KPIs on a "Summary" sheet.
func WriteXLSX(w io.Writer, ds Dataset) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", statsSheet); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}

	header := make([]any, len(columns))
	for i, c := range columns {
		header[i] = c
	}
	if err := f.SetSheetRow(statsSheet, "A1", &header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, r := range ds.Records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := []any{r.ID, r.Name, r.CompletedCount, r.InProgressCount, r.OverdueCount, r.Total(), r.DoneRatePercent()}
		if err := f.SetSheetRow(statsSheet, cell, &values); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("creating header style: %w", err)
	}
	if err := f.SetCellStyle(statsSheet, "A1", "G1", bold); err != nil {
		return fmt.Errorf("styling header: %w", err)
	}
	if err := f.SetColWidth(statsSheet, "B", "B", 28); err != nil {
		return fmt.Errorf("sizing columns: %w", err)
	}
	if err := f.SetPanes(statsSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("freezing header: %w", err)
	}

	if _, err := f.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("creating summary sheet: %w", err)
	}
	for i, kv := range summaryRows(ds) {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		values := []any{kv.label, kv.value}
		if err := f.SetSheetRow(summarySheet, cell, &values); err != nil {
			return fmt.Errorf("writing summary: %w", err)
		}
	}
	if err := f.SetColWidth(summarySheet, "A", "A", 26); err != nil {
		return fmt.Errorf("sizing columns: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

type summaryRow struct {
	label string
	value any
}

func summaryRows(ds Dataset) []summaryRow {
	k := ds.Kpis
	top := ""
	if k.Top != nil {
		top = k.Top.Name
	}
	return []summaryRow{
		{"Users", k.UserCount},
		{"Active users", k.ActiveUsers},
		{"Completed", k.Totals.Completed},
		{"In progress", k.Totals.InWork},
		{"Overdue", k.Totals.Failed},
		{"Done rate %", k.DoneRate},
		{"Avg completed per user", k.AvgCompletedPerUser},
		{"Median completed", k.CompletedMedian},
		{"Std dev completed", k.CompletedStdDev},
		{"Top performer", top},
	}
}
