// Package model defines the data types shared across teamboard: the per-user
// statistics record delivered by the stats endpoint, the sort modes the
// dashboard offers, and the derived page and KPI shapes the pipeline returns.
package model

import (
	"bytes"
	"fmt"
	"math"
	"strings"

	"github.com/goccy/go-json"
)

// StatRecord is one user's task-count snapshot as reported by the stats endpoint.
// Records are treated as read-only values once they enter the pipeline.
type StatRecord struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	AvatarURL       string `json:"avatarUrl,omitempty"`
	CompletedCount  int    `json:"completedCount"`
	InProgressCount int    `json:"inProgressCount"`
	OverdueCount    int    `json:"overdueCount"`
}

// UnmarshalJSON accepts "id" as a JSON string or a JSON number. Backends
// keyed by integer primary keys send the latter; it is stored in its
// literal decimal form, so 7 and "7" are the same user.
func (r *StatRecord) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID              json.RawMessage `json:"id"`
		Name            string          `json:"name"`
		AvatarURL       string          `json:"avatarUrl"`
		CompletedCount  int             `json:"completedCount"`
		InProgressCount int             `json:"inProgressCount"`
		OverdueCount    int             `json:"overdueCount"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	id, err := decodeID(raw.ID)
	if err != nil {
		return err
	}
	*r = StatRecord{
		ID:              id,
		Name:            raw.Name,
		AvatarURL:       raw.AvatarURL,
		CompletedCount:  raw.CompletedCount,
		InProgressCount: raw.InProgressCount,
		OverdueCount:    raw.OverdueCount,
	}
	return nil
}

func decodeID(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	switch {
	case len(raw) == 0 || string(raw) == "null":
		return "", nil
	case raw[0] == '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", fmt.Errorf("record id: %w", err)
		}
		return s, nil
	case raw[0] == '-' || (raw[0] >= '0' && raw[0] <= '9'):
		var n json.Number
		if err := json.Unmarshal(raw, &n); err != nil {
			return "", fmt.Errorf("record id: %w", err)
		}
		return n.String(), nil
	default:
		return "", fmt.Errorf("record id must be a string or a number, got %s", raw)
	}
}

// Total returns the number of tasks the user holds in any state.
func (r StatRecord) Total() int {
	return r.CompletedCount + r.InProgressCount + r.OverdueCount
}

// DoneRatePercent returns the share of completed tasks as a whole percentage.
func (r StatRecord) DoneRatePercent() int {
	return DoneRate(r.CompletedCount, r.Total())
}

// IsActive reports whether the user holds at least one task.
func (r StatRecord) IsActive() bool {
	return r.Total() > 0
}

// HasAvatar reports whether the record carries an avatar reference.
func (r StatRecord) HasAvatar() bool {
	return strings.TrimSpace(r.AvatarURL) != ""
}

// Normalize returns a copy with surrounding whitespace trimmed from text fields
// and negative counters clamped to zero.
func (r StatRecord) Normalize() StatRecord {
	r.ID = strings.TrimSpace(r.ID)
	r.Name = strings.TrimSpace(r.Name)
	r.AvatarURL = strings.TrimSpace(r.AvatarURL)
	r.CompletedCount = max(r.CompletedCount, 0)
	r.InProgressCount = max(r.InProgressCount, 0)
	r.OverdueCount = max(r.OverdueCount, 0)
	return r
}

// Validate checks the fields a source must always provide.
func (r StatRecord) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("record ID cannot be empty")
	}
	if r.CompletedCount < 0 || r.InProgressCount < 0 || r.OverdueCount < 0 {
		return fmt.Errorf("record %s has negative counters", r.ID)
	}
	return nil
}

// DoneRate is the single definition of the completion rate used by both
// per-record display and the aggregate KPIs. Returns 0 when total is 0.
func DoneRate(completed, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(completed) / float64(total) * 100))
}
