package export

import (
	"fmt"
	"io"
	"time"

	"github.com/goccy/go-json"

	"github.com/vanderheijden86/teamboard/pkg/model"
)

// jsonRecord adds the derived columns to a record.
type jsonRecord struct {
	model.StatRecord
	Total    int `json:"total"`
	DoneRate int `json:"doneRate"`
}

type jsonDocument struct {
	Title       string       `json:"title,omitempty"`
	GeneratedAt time.Time    `json:"generatedAt"`
	Kpis        model.Kpis   `json:"kpis"`
	Records     []jsonRecord `json:"records"`
}

// WriteJSON writes ds as an indented JSON document.
func WriteJSON(w io.Writer, ds Dataset) error {
	doc := jsonDocument{
		Title:       ds.Title,
		GeneratedAt: ds.GeneratedAt.UTC(),
		Kpis:        ds.Kpis,
		Records:     make([]jsonRecord, len(ds.Records)),
	}
	for i, r := range ds.Records {
		doc.Records[i] = jsonRecord{StatRecord: r, Total: r.Total(), DoneRate: r.DoneRatePercent()}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encoding JSON export: %w", err)
	}
	return nil
}
