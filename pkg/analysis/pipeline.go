// Package analysis implements the derived-view pipeline behind the dashboard.
//
// Records flow Filter → Sort → Paginate, each stage consuming the previous
// stage's output verbatim. Aggregate reads the full snapshot directly. Every
// stage is a pure function; Pipeline memoizes each one on its argument tuple
// (collections by reference, scalars by value) so re-rendering without data
// or parameter changes performs no recomputation.
package analysis

import (
	"time"

	"github.com/vanderheijden86/teamboard/pkg/debug"
	"github.com/vanderheijden86/teamboard/pkg/metrics"
	"github.com/vanderheijden86/teamboard/pkg/model"
	"github.com/vanderheijden86/teamboard/pkg/store"
)

// DefaultPageSize is the page size the dashboard starts with when none is
// configured.
const DefaultPageSize = 10

// SnapshotSource supplies the snapshot the pipeline reads. *store.Store
// satisfies it.
type SnapshotSource interface {
	Current() *store.Snapshot
}

// Params are the caller-owned view parameters.
type Params struct {
	Query      string         `json:"query"`
	OnlyActive bool           `json:"onlyActive"`
	Mode       model.SortMode `json:"sortMode"`
	Page       int            `json:"page"`
	PageSize   int            `json:"pageSize"`
}

// View is the derived state for one render.
type View struct {
	// Params holds the effective parameters: the sort mode after fallback,
	// the page and page size after clamping.
	Params     Params             `json:"params"`
	Page       model.Page         `json:"page"`
	Kpis       model.Kpis         `json:"kpis"`
	Sorted     []model.StatRecord `json:"-"`
	Generation uint64             `json:"generation"`
	FetchedAt  time.Time          `json:"fetchedAt"`
}

// PageCorrected reports whether the pipeline moved the requested page.
func (v View) PageCorrected(requested int) bool {
	return v.Page.CurrentPage != requested
}

// recordsRef identifies a slice by reference: its first element and length.
type recordsRef struct {
	first *model.StatRecord
	n     int
}

func refOf(records []model.StatRecord) recordsRef {
	if len(records) == 0 {
		return recordsRef{}
	}
	return recordsRef{first: &records[0], n: len(records)}
}

type filterKey struct {
	snap       *store.Snapshot
	query      string
	onlyActive bool
}

type sortKey struct {
	src  recordsRef
	mode model.SortMode
}

type pageKey struct {
	src      recordsRef
	page     int
	pageSize int
}

// Pipeline wires the four stages to a snapshot source with one memo each.
type Pipeline struct {
	source SnapshotSource
	coll   *Collation

	filterMemo *Memo[filterKey, []model.StatRecord]
	sortMemo   *Memo[sortKey, []model.StatRecord]
	pageMemo   *Memo[pageKey, model.Page]
	aggMemo    *Memo[*store.Snapshot, model.Kpis]
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithCollation sets the collation used for name ordering.
func WithCollation(c *Collation) Option {
	return func(p *Pipeline) {
		if c != nil {
			p.coll = c
		}
	}
}

// NewPipeline creates a pipeline reading from source.
func NewPipeline(source SnapshotSource, opts ...Option) *Pipeline {
	p := &Pipeline{
		source:     source,
		coll:       NewCollation(DefaultLocale),
		filterMemo: NewMemo[filterKey, []model.StatRecord](metrics.FilterCache),
		sortMemo:   NewMemo[sortKey, []model.StatRecord](metrics.SortCache),
		pageMemo:   NewMemo[pageKey, model.Page](metrics.PaginateCache),
		aggMemo:    NewMemo[*store.Snapshot, model.Kpis](metrics.AggregateCache),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Collation returns the collation the pipeline sorts with.
func (p *Pipeline) Collation() *Collation {
	return p.coll
}

// Filtered returns the current snapshot narrowed by query and onlyActive.
func (p *Pipeline) Filtered(query string, onlyActive bool) []model.StatRecord {
	return p.filtered(p.source.Current(), query, onlyActive)
}

// Sorted returns the filtered collection in mode order. This is the
// collection exports receive.
func (p *Pipeline) Sorted(query string, onlyActive bool, mode model.SortMode) []model.StatRecord {
	return p.sorted(p.filtered(p.source.Current(), query, onlyActive), mode)
}

// Page returns one page of the sorted collection.
func (p *Pipeline) Page(query string, onlyActive bool, mode model.SortMode, page, pageSize int) model.Page {
	return p.paginated(p.Sorted(query, onlyActive, mode), page, pageSize)
}

// Kpis returns aggregate KPIs for the current snapshot.
func (p *Pipeline) Kpis() model.Kpis {
	return p.kpis(p.source.Current())
}

// View runs every stage for params against one snapshot.
func (p *Pipeline) View(params Params) View {
	snap := p.source.Current()

	mode := params.Mode
	if !mode.Valid() {
		mode = model.SortNameAsc
	}
	size := max(params.PageSize, 1)

	sorted := p.sorted(p.filtered(snap, params.Query, params.OnlyActive), mode)
	page := p.paginated(sorted, params.Page, size)

	effective := params
	effective.Mode = mode
	effective.PageSize = size
	effective.Page = page.CurrentPage

	return View{
		Params:     effective,
		Page:       page,
		Kpis:       p.kpis(snap),
		Sorted:     sorted,
		Generation: snap.Generation,
		FetchedAt:  snap.FetchedAt,
	}
}

func (p *Pipeline) filtered(snap *store.Snapshot, query string, onlyActive bool) []model.StatRecord {
	key := filterKey{snap: snap, query: NormalizeQuery(query), onlyActive: onlyActive}
	return p.filterMemo.Get(key, func() []model.StatRecord {
		defer metrics.Timer(metrics.FilterStage)()
		debug.Log("filter: gen=%d query=%q onlyActive=%v", snap.Generation, key.query, onlyActive)
		return Filter(snap.Records, key.query, onlyActive)
	})
}

func (p *Pipeline) sorted(records []model.StatRecord, mode model.SortMode) []model.StatRecord {
	return p.sortMemo.Get(sortKey{src: refOf(records), mode: mode}, func() []model.StatRecord {
		defer metrics.Timer(metrics.SortStage)()
		debug.Log("sort: n=%d mode=%s", len(records), mode)
		return Sort(records, mode, p.coll)
	})
}

func (p *Pipeline) paginated(records []model.StatRecord, page, size int) model.Page {
	return p.pageMemo.Get(pageKey{src: refOf(records), page: page, pageSize: size}, func() model.Page {
		defer metrics.Timer(metrics.PaginateStage)()
		return Paginate(records, page, size)
	})
}

func (p *Pipeline) kpis(snap *store.Snapshot) model.Kpis {
	return p.aggMemo.Get(snap, func() model.Kpis {
		defer metrics.Timer(metrics.AggregateStage)()
		debug.Log("aggregate: gen=%d users=%d", snap.Generation, snap.Len())
		return Aggregate(snap.Records, p.coll)
	})
}
