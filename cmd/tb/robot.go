package main

import (
	"io"
	"time"

	"github.com/goccy/go-json"

	"github.com/vanderheijden86/teamboard/pkg/analysis"
	"github.com/vanderheijden86/teamboard/pkg/model"
	"github.com/vanderheijden86/teamboard/pkg/version"
)

// robotOutput is the --robot-json document.
type robotOutput struct {
	Version     string          `json:"version"`
	GeneratedAt time.Time       `json:"generatedAt"`
	Source      string          `json:"source"`
	Generation  uint64          `json:"generation"`
	FetchedAt   time.Time       `json:"fetchedAt"`
	Params      analysis.Params `json:"params"`
	Page        model.Page      `json:"page"`
	Kpis        model.Kpis      `json:"kpis"`
}

func writeRobotJSON(w io.Writer, v analysis.View, source string) error {
	out := robotOutput{
		Version:     version.Version,
		GeneratedAt: time.Now().UTC(),
		Source:      source,
		Generation:  v.Generation,
		FetchedAt:   v.FetchedAt,
		Params:      v.Params,
		Page:        v.Page,
		Kpis:        v.Kpis,
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
