package datasource

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/vanderheijden86/teamboard/pkg/debug"
	"github.com/vanderheijden86/teamboard/pkg/metrics"
	"github.com/vanderheijden86/teamboard/pkg/store"
)

// Result reports one refresh attempt.
type Result struct {
	// Snapshot is the store's current snapshot after the attempt. On error it
	// is the last good snapshot.
	Snapshot *store.Snapshot
	// Changed is true when a new snapshot was published.
	Changed  bool
	Diff     RecordDiff
	Err      error
	Duration time.Duration
}

// DefaultFetchTimeout bounds a shared fetch once it no longer follows any
// caller's context.
const DefaultFetchTimeout = time.Minute

// Refresher fetches from a Source into a Store. Concurrent Refresh calls
// share one in-flight fetch. A failed fetch never clears the store.
type Refresher struct {
	source  Source
	store   *store.Store
	now     func() time.Time
	timeout time.Duration
	group   singleflight.Group

	mu      sync.Mutex
	lastErr error
	lastAt  time.Time
}

// RefresherOption configures a Refresher.
type RefresherOption func(*Refresher)

// WithFetchTimeout bounds each shared fetch. Non-positive values keep
// DefaultFetchTimeout.
func WithFetchTimeout(d time.Duration) RefresherOption {
	return func(r *Refresher) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// NewRefresher creates a refresher for source writing into st.
func NewRefresher(source Source, st *store.Store, opts ...RefresherOption) *Refresher {
	r := &Refresher{source: source, store: st, now: time.Now, timeout: DefaultFetchTimeout}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Refresh fetches once. Callers arriving while a fetch is running receive
// that fetch's result. The shared fetch is detached from ctx: a caller that
// gives up gets ctx.Err() and the current snapshot, while the fetch carries
// on for everyone else, bounded by the fetch timeout.
func (r *Refresher) Refresh(ctx context.Context) Result {
	ch := r.group.DoChan("refresh", func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
		defer cancel()
		return r.refresh(fetchCtx), nil
	})

	select {
	case res := <-ch:
		return res.Val.(Result)
	case <-ctx.Done():
		return Result{Snapshot: r.store.Current(), Err: ctx.Err()}
	}
}

func (r *Refresher) refresh(ctx context.Context) Result {
	start := time.Now()
	stop := metrics.Timer(metrics.SnapshotFetch)
	records, err := r.source.Fetch(ctx)
	stop()

	before := r.store.Current()
	res := Result{Snapshot: before, Err: err, Duration: time.Since(start)}

	if err == nil {
		snap, changed := r.store.Replace(records, r.now(), r.source.Name())
		res.Snapshot = snap
		res.Changed = changed
		if changed {
			res.Diff = DiffRecords(before.Records, snap.Records)
		}
		debug.Log("refresh: %s gen=%d changed=%v (%v)", r.source.Name(), snap.Generation, changed, res.Duration)
	} else {
		debug.Log("refresh: %s failed, keeping gen=%d: %v", r.source.Name(), before.Generation, err)
	}

	r.mu.Lock()
	r.lastErr = err
	r.lastAt = start
	r.mu.Unlock()

	return res
}

// LastError returns the error of the most recent attempt (nil on success).
func (r *Refresher) LastError() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastErr
}

// LastAttempt returns when the most recent attempt started.
func (r *Refresher) LastAttempt() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastAt
}

// Run refreshes every interval until ctx is done and returns ctx.Err().
// The first refresh is left to the caller. A non-positive interval
// disables polling and Run returns nil at once.
func (r *Refresher) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return nil
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			r.Refresh(ctx)
		}
	}
}
