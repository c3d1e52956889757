package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"

	"github.com/vanderheijden86/teamboard/pkg/model"
)

// AssertRecordCount verifies the expected number of records.
func AssertRecordCount(t *testing.T, records []model.StatRecord, expected int) {
	t.Helper()
	if len(records) != expected {
		t.Errorf("expected %d records, got %d", expected, len(records))
	}
}

// AssertNoDuplicateIDs verifies all record IDs are unique.
func AssertNoDuplicateIDs(t *testing.T, records []model.StatRecord) {
	t.Helper()
	seen := make(map[string]bool)
	for _, r := range records {
		if seen[r.ID] {
			t.Errorf("duplicate record ID: %s", r.ID)
		}
		seen[r.ID] = true
	}
}

// AssertAllValid verifies all records pass validation.
func AssertAllValid(t *testing.T, records []model.StatRecord) {
	t.Helper()
	for i, r := range records {
		if err := r.Validate(); err != nil {
			t.Errorf("record %d (%s) invalid: %v", i, r.ID, err)
		}
	}
}

// AssertOrder verifies records appear with exactly the given names.
func AssertOrder(t *testing.T, records []model.StatRecord, names ...string) {
	t.Helper()
	got := Names(records)
	if len(got) != len(names) {
		t.Errorf("expected order %v, got %v", names, got)
		return
	}
	for i := range names {
		if got[i] != names[i] {
			t.Errorf("expected order %v, got %v", names, got)
			return
		}
	}
}

// AssertJSONEqual compares two values after JSON round-tripping.
func AssertJSONEqual(t *testing.T, expected, actual any) {
	t.Helper()

	expectedJSON, err := json.Marshal(expected)
	if err != nil {
		t.Fatalf("failed to marshal expected: %v", err)
	}

	actualJSON, err := json.Marshal(actual)
	if err != nil {
		t.Fatalf("failed to marshal actual: %v", err)
	}

	if string(expectedJSON) != string(actualJSON) {
		t.Errorf("JSON mismatch:\nexpected: %s\nactual:   %s", expectedJSON, actualJSON)
	}
}

// WriteStatsFile writes records as a JSON array to path, creating parent
// directories.
func WriteStatsFile(t *testing.T, path string, records []model.StatRecord) string {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("failed to create directory: %v", err)
	}
	if err := os.WriteFile(path, []byte(ToJSON(records)), 0o644); err != nil {
		t.Fatalf("failed to write stats file: %v", err)
	}
	return path
}

// Names extracts record names in order.
func Names(records []model.StatRecord) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Name
	}
	return out
}

// IDs extracts record IDs in order.
func IDs(records []model.StatRecord) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.ID
	}
	return out
}

// FindRecord returns the record with the given ID, or nil.
func FindRecord(records []model.StatRecord, id string) *model.StatRecord {
	for i := range records {
		if records[i].ID == id {
			return &records[i]
		}
	}
	return nil
}
