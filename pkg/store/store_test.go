package store

import (
	"testing"
	"time"

	"github.com/vanderheijden86/teamboard/pkg/model"
)

func sample() []model.StatRecord {
	return []model.StatRecord{
		{ID: "1", Name: "Аня", CompletedCount: 5},
		{ID: "2", Name: "Борис", CompletedCount: 5, OverdueCount: 1},
	}
}

func TestNew_StartsWithEmptySnapshot(t *testing.T) {
	s := New()
	snap := s.Current()
	if snap == nil {
		t.Fatal("Current must never be nil")
	}
	if snap.Generation != 0 || snap.Len() != 0 {
		t.Errorf("expected empty generation-0 snapshot, got gen=%d len=%d", snap.Generation, snap.Len())
	}
	if snap.Records == nil {
		t.Error("expected non-nil empty records")
	}
}

func TestReplace_CopiesInput(t *testing.T) {
	s := New()
	in := sample()
	snap, changed := s.Replace(in, time.Now(), "test")
	if !changed || snap.Generation != 1 {
		t.Fatalf("expected first replace to change, got changed=%v gen=%d", changed, snap.Generation)
	}

	in[0].Name = "mutated"
	if s.Current().Records[0].Name != "Аня" {
		t.Error("store must not share the caller's backing array")
	}
}

func TestReplace_UnchangedContentKeepsSnapshot(t *testing.T) {
	s := New()
	first, _ := s.Replace(sample(), time.Now(), "test")
	second, changed := s.Replace(sample(), time.Now(), "test")
	if changed {
		t.Error("identical content should not produce a new snapshot")
	}
	if first != second {
		t.Error("expected the same snapshot pointer for unchanged content")
	}
}

func TestReplace_ChangedContentReplaces(t *testing.T) {
	s := New()
	first, _ := s.Replace(sample(), time.Now(), "test")

	next := sample()
	next[1].CompletedCount = 6
	second, changed := s.Replace(next, time.Now(), "test")
	if !changed {
		t.Fatal("expected changed content to replace the snapshot")
	}
	if second.Generation != first.Generation+1 {
		t.Errorf("expected generation %d, got %d", first.Generation+1, second.Generation)
	}
	if first.Records[1].CompletedCount != 5 {
		t.Error("older snapshot must be unaffected by replacement")
	}
	if &first.Records[0] == &second.Records[0] {
		t.Error("consecutive snapshots must not share backing arrays")
	}
}

func TestReplace_NormalizesRecords(t *testing.T) {
	s := New()
	snap, _ := s.Replace([]model.StatRecord{{ID: " x ", Name: " Вера ", OverdueCount: -2}}, time.Now(), "test")
	r := snap.Records[0]
	if r.ID != "x" || r.Name != "Вера" || r.OverdueCount != 0 {
		t.Errorf("expected normalized record, got %+v", r)
	}
}

func TestComputeDataHash_OrderSensitive(t *testing.T) {
	a := sample()
	b := []model.StatRecord{a[1], a[0]}
	if ComputeDataHash(a) == ComputeDataHash(b) {
		t.Error("reordered records must hash differently")
	}
	if ComputeDataHash(nil) != "empty" {
		t.Error("expected 'empty' hash for no records")
	}
}

func TestSubscribe_LatestWins(t *testing.T) {
	s := New()
	ch, cancel := s.Subscribe()
	defer cancel()

	s.Replace(sample(), time.Now(), "a")
	next := sample()
	next[0].CompletedCount = 9
	latest, _ := s.Replace(next, time.Now(), "b")

	select {
	case got := <-ch:
		if got != latest {
			t.Errorf("expected latest snapshot gen %d, got gen %d", latest.Generation, got.Generation)
		}
	case <-time.After(time.Second):
		t.Fatal("expected a snapshot notification")
	}

	select {
	case extra := <-ch:
		t.Errorf("expected no stale notification, got gen %d", extra.Generation)
	default:
	}
}

func TestSubscribe_CancelStopsDelivery(t *testing.T) {
	s := New()
	ch, cancel := s.Subscribe()
	cancel()
	s.Replace(sample(), time.Now(), "a")

	select {
	case <-ch:
		t.Error("cancelled subscriber must not receive snapshots")
	default:
	}
}
