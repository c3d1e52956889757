// Package store holds the record collection the dashboard renders from.
//
// A Store publishes immutable Snapshots. Each successful fetch replaces the
// whole collection; there is no incremental patching. Consumers holding an
// older Snapshot are never affected by later replacements.
package store

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"strconv"
	"sync"
	"time"

	"github.com/vanderheijden86/teamboard/pkg/model"
)

// Snapshot is one immutable record collection. Callers must treat Records as
// read-only.
type Snapshot struct {
	Records    []model.StatRecord
	Hash       string
	Generation uint64
	FetchedAt  time.Time
	Source     string
}

// Len returns the number of records in the snapshot.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Records)
}

// Store owns the current snapshot. Safe for concurrent use: fetches complete
// on background goroutines while the UI reads.
type Store struct {
	mu      sync.RWMutex
	current *Snapshot
	subs    map[int]chan *Snapshot
	nextSub int
}

// New returns a store holding an empty generation-0 snapshot.
func New() *Store {
	return &Store{
		current: &Snapshot{Records: []model.StatRecord{}, Hash: ComputeDataHash(nil)},
		subs:    make(map[int]chan *Snapshot),
	}
}

// Current returns the latest snapshot. Never nil.
func (s *Store) Current() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Replace publishes records as the new snapshot. Records are normalized and
// copied, so the caller may reuse its slice. When the content hash equals the
// current snapshot's, the current snapshot is kept and changed is false; this
// is the only case where consecutive fetches share structure.
func (s *Store) Replace(records []model.StatRecord, fetchedAt time.Time, source string) (snap *Snapshot, changed bool) {
	owned := make([]model.StatRecord, len(records))
	for i, r := range records {
		owned[i] = r.Normalize()
	}
	hash := ComputeDataHash(owned)

	s.mu.Lock()
	defer s.mu.Unlock()

	if hash == s.current.Hash {
		return s.current, false
	}

	next := &Snapshot{
		Records:    owned,
		Hash:       hash,
		Generation: s.current.Generation + 1,
		FetchedAt:  fetchedAt,
		Source:     source,
	}
	s.current = next
	for _, ch := range s.subs {
		publishLatest(ch, next)
	}
	return next, true
}

// Subscribe returns a channel that receives each new snapshot. Slow readers
// only ever see the most recent one. Call cancel to stop receiving.
func (s *Store) Subscribe() (ch <-chan *Snapshot, cancel func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSub
	s.nextSub++
	c := make(chan *Snapshot, 1)
	s.subs[id] = c

	return c, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

func publishLatest(ch chan *Snapshot, snap *Snapshot) {
	select {
	case ch <- snap:
		return
	default:
	}
	// Drop the stale pending snapshot in favour of the new one.
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- snap:
	default:
	}
}

// ComputeDataHash returns a deterministic content hash of records. Unlike an
// ID-sorted hash it is order-sensitive: input order decides how equal sort
// keys are arranged, so a reordered fetch is a different snapshot.
func ComputeDataHash(records []model.StatRecord) string {
	if len(records) == 0 {
		return "empty"
	}

	h := sha256.New()
	for _, r := range records {
		writeString(h, r.ID)
		writeString(h, r.Name)
		writeString(h, r.AvatarURL)
		writeInt(h, r.CompletedCount)
		writeInt(h, r.InProgressCount)
		writeInt(h, r.OverdueCount)
		_, _ = h.Write([]byte{1}) // record separator
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}

func writeString(w io.Writer, v string) {
	_, _ = io.WriteString(w, v)
	_, _ = w.Write([]byte{0})
}

func writeInt(w io.Writer, v int) {
	_, _ = io.WriteString(w, strconv.Itoa(v))
	_, _ = w.Write([]byte{0})
}
