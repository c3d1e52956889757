package datasource

import (
	"bytes"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/vanderheijden86/teamboard/pkg/debug"
	"github.com/vanderheijden86/teamboard/pkg/model"
)

type envelope struct {
	Data *[]model.StatRecord `json:"data"`
}

// DecodeRecords parses a stats payload: either a bare JSON array of records
// or an object wrapping the array under "data". Records are normalized;
// records without an ID are skipped.
func DecodeRecords(data []byte) ([]model.StatRecord, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty stats payload")
	}

	var raw []model.StatRecord
	switch trimmed[0] {
	case '[':
		if err := json.Unmarshal(trimmed, &raw); err != nil {
			return nil, fmt.Errorf("decoding stats array: %w", err)
		}
	case '{':
		var env envelope
		if err := json.Unmarshal(trimmed, &env); err != nil {
			return nil, fmt.Errorf("decoding stats envelope: %w", err)
		}
		if env.Data == nil {
			return nil, fmt.Errorf("stats envelope has no \"data\" array")
		}
		raw = *env.Data
	default:
		return nil, fmt.Errorf("unexpected stats payload starting with %q", trimmed[0])
	}

	out := make([]model.StatRecord, 0, len(raw))
	for i, r := range raw {
		r = r.Normalize()
		if err := r.Validate(); err != nil {
			debug.Log("datasource: skipping record %d: %v", i, err)
			continue
		}
		out = append(out, r)
	}
	return out, nil
}
