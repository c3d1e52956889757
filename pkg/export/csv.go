package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/atotto/clipboard"

	"github.com/vanderheijden86/teamboard/pkg/model"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// WriteCSV writes records with a header row. With bom set, the output starts
// with a UTF-8 byte order mark so spreadsheet apps detect the encoding.
func WriteCSV(w io.Writer, records []model.StatRecord, bom bool) error {
	if bom {
		if _, err := w.Write(utf8BOM); err != nil {
			return fmt.Errorf("writing BOM: %w", err)
		}
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(columns); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}
	for _, r := range records {
		if err := cw.Write(row(r)); err != nil {
			return fmt.Errorf("writing CSV row %s: %w", r.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// FormatTSV renders records as tab-separated text, the shape spreadsheets
// accept on paste. Tabs and newlines inside names become spaces.
func FormatTSV(records []model.StatRecord) string {
	clean := strings.NewReplacer("\t", " ", "\r", " ", "\n", " ")

	var sb strings.Builder
	sb.WriteString(strings.Join(columns, "\t"))
	sb.WriteByte('\n')
	for _, r := range records {
		cells := row(r)
		for i := range cells {
			cells[i] = clean.Replace(cells[i])
		}
		sb.WriteString(strings.Join(cells, "\t"))
		sb.WriteByte('\n')
	}
	return sb.String()
}

// CopyToClipboard places records on the system clipboard as TSV.
func CopyToClipboard(records []model.StatRecord) error {
	if clipboard.Unsupported {
		return fmt.Errorf("clipboard is not available on this system")
	}
	if err := clipboard.WriteAll(FormatTSV(records)); err != nil {
		return fmt.Errorf("copying to clipboard: %w", err)
	}
	return nil
}
