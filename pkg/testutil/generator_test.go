package testutil

import (
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"github.com/vanderheijden86/teamboard/pkg/model"
)

func TestTeam(t *testing.T) {
	records := NewDefault().Team(50)

	AssertRecordCount(t, records, 50)
	AssertNoDuplicateIDs(t, records)
	AssertAllValid(t, records)

	if records[0].ID != "u0000" || records[49].ID != "u0049" {
		t.Errorf("unexpected IDs %s..%s", records[0].ID, records[49].ID)
	}
	for _, r := range records {
		if r.CompletedCount > 20 || r.InProgressCount > 5 || r.OverdueCount > 5 {
			t.Errorf("record %s exceeds configured bounds: %+v", r.ID, r)
		}
	}
}

func TestTeam_InactiveShare(t *testing.T) {
	all := New(GeneratorConfig{Seed: 7, InactiveShare: 1}).Team(20)
	for _, r := range all {
		if r.IsActive() {
			t.Fatalf("expected every user inactive, got %+v", r)
		}
	}

	none := New(GeneratorConfig{Seed: 7, InactiveShare: 0, MaxCompleted: 3}).Team(200)
	active := 0
	for _, r := range none {
		if r.IsActive() {
			active++
		}
	}
	if active == 0 {
		t.Error("expected active users when InactiveShare is 0")
	}
}

func TestTeam_WithAvatars(t *testing.T) {
	cfg := DefaultConfig()
	cfg.WithAvatars = true
	for _, r := range New(cfg).Team(3) {
		if !r.HasAvatar() || !strings.HasSuffix(r.AvatarURL, r.ID+".png") {
			t.Errorf("unexpected avatar %q for %s", r.AvatarURL, r.ID)
		}
	}
}

func TestDeterminism(t *testing.T) {
	a := New(GeneratorConfig{Seed: 99}).Team(30)
	b := New(GeneratorConfig{Seed: 99}).Team(30)
	AssertJSONEqual(t, a, b)

	c := New(GeneratorConfig{Seed: 100}).Team(30)
	if ToJSON(a) == ToJSON(c) {
		t.Error("different seeds should produce different teams")
	}
}

func TestTies(t *testing.T) {
	records := NewDefault().Ties(4, 3)
	for _, r := range records {
		if r.Name != records[0].Name || r.CompletedCount != 3 {
			t.Errorf("expected identical keys, got %+v", r)
		}
	}
	AssertNoDuplicateIDs(t, records)
}

func TestToJSONShapes(t *testing.T) {
	records := Scenario()

	var arr []model.StatRecord
	if err := json.Unmarshal([]byte(ToJSON(records)), &arr); err != nil || len(arr) != 3 {
		t.Fatalf("bad array payload: %v (%d)", err, len(arr))
	}

	var env struct {
		Data []model.StatRecord `json:"data"`
	}
	if err := json.Unmarshal([]byte(ToEnvelopeJSON(records)), &env); err != nil || len(env.Data) != 3 {
		t.Fatalf("bad envelope payload: %v (%d)", err, len(env.Data))
	}
}

func TestHelpers(t *testing.T) {
	records := Scenario()
	if got := strings.Join(IDs(records), ","); got != "2,3,1" {
		t.Errorf("unexpected IDs %s", got)
	}
	if r := FindRecord(records, "3"); r == nil || r.Name != "Вера" {
		t.Errorf("FindRecord returned %+v", r)
	}
	if FindRecord(records, "nope") != nil {
		t.Error("expected nil for missing ID")
	}
	AssertOrder(t, records, "Борис", "Вера", "Аня")
}

func BenchmarkTeam1000(b *testing.B) {
	g := NewDefault()
	for i := 0; i < b.N; i++ {
		_ = g.Team(1000)
	}
}
