// Package dashboard owns the dashboard's mutable view state and feeds it to
// the analysis pipeline.
package dashboard

import (
	"sync"
	"time"

	"github.com/vanderheijden86/teamboard/pkg/analysis"
	"github.com/vanderheijden86/teamboard/pkg/debug"
	"github.com/vanderheijden86/teamboard/pkg/model"
	"github.com/vanderheijden86/teamboard/pkg/prefs"
)

// Controller holds query, filter, sort and page state. Preferences are
// injected; nothing here touches global state.
type Controller struct {
	mu       sync.Mutex
	pipeline *analysis.Pipeline
	prefs    *prefs.Preferences
	now      func() time.Time

	params   analysis.Params
	viewMode string
}

// Options configure a Controller.
type Options struct {
	PageSize    int
	DefaultSort model.SortMode
	DefaultView string
	Now         func() time.Time
}

// New builds a controller. The sort mode and view mode are restored from p,
// falling back to opts.
func New(pipeline *analysis.Pipeline, p *prefs.Preferences, opts Options) *Controller {
	if p == nil {
		p = prefs.New(nil)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if !opts.DefaultSort.Valid() {
		opts.DefaultSort = model.SortCompletedDesc
	}
	if opts.DefaultView == "" {
		opts.DefaultView = prefs.ViewTable
	}
	if opts.PageSize == 0 {
		opts.PageSize = analysis.DefaultPageSize
	}

	return &Controller{
		pipeline: pipeline,
		prefs:    p,
		now:      opts.Now,
		params: analysis.Params{
			Mode:     p.SortMode(opts.DefaultSort),
			Page:     1,
			PageSize: opts.PageSize,
		},
		viewMode: p.ViewMode(opts.DefaultView),
	}
}

// Open records the current visit and returns the previous one (zero when
// this is the first visit).
func (c *Controller) Open() time.Time {
	prev := c.prefs.LastVisit()
	if err := c.prefs.SetLastVisit(c.now()); err != nil {
		debug.Log("dashboard: saving last visit: %v", err)
	}
	return prev
}

// Params returns a copy of the current view parameters.
func (c *Controller) Params() analysis.Params {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.params
}

// ViewMode returns prefs.ViewTable or prefs.ViewCards.
func (c *Controller) ViewMode() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewMode
}

// SetQuery changes the search query and returns to the first page.
func (c *Controller) SetQuery(q string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.params.Query == q {
		return
	}
	c.params.Query = q
	c.params.Page = 1
}

// SetOnlyActive toggles the active-only filter and returns to the first page.
func (c *Controller) SetOnlyActive(on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.params.OnlyActive == on {
		return
	}
	c.params.OnlyActive = on
	c.params.Page = 1
}

// ToggleOnlyActive flips the active-only filter.
func (c *Controller) ToggleOnlyActive() {
	c.SetOnlyActive(!c.Params().OnlyActive)
}

// SetSortMode changes and persists the sort mode. Unknown modes are stored
// as given but sort as nameAsc.
func (c *Controller) SetSortMode(mode model.SortMode) error {
	c.mu.Lock()
	c.params.Mode = mode
	c.mu.Unlock()
	return c.prefs.SetSortMode(mode)
}

// CycleSortMode advances to the next sort mode and returns it.
func (c *Controller) CycleSortMode() (model.SortMode, error) {
	next := c.Params().Mode.Next()
	return next, c.SetSortMode(next)
}

// SetPage requests a page. The pipeline clamps it on the next View.
func (c *Controller) SetPage(page int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.params.Page = page
}

// SetPageSize changes the page size and returns to the first page.
func (c *Controller) SetPageSize(size int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.params.PageSize = size
	c.params.Page = 1
}

// NextPage moves forward one page.
func (c *Controller) NextPage() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.params.Page++
}

// PrevPage moves back one page, stopping at 1.
func (c *Controller) PrevPage() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.params.Page > 1 {
		c.params.Page--
	}
}

// ToggleView switches between table and cards and persists the choice.
func (c *Controller) ToggleView() (string, error) {
	c.mu.Lock()
	if c.viewMode == prefs.ViewCards {
		c.viewMode = prefs.ViewTable
	} else {
		c.viewMode = prefs.ViewCards
	}
	v := c.viewMode
	c.mu.Unlock()
	return v, c.prefs.SetViewMode(v)
}

// View runs the pipeline for the current parameters. When the pipeline
// corrects the page (out of range after a filter change or a smaller
// snapshot), the controller adopts the corrected page.
func (c *Controller) View() analysis.View {
	params := c.Params()
	v := c.pipeline.View(params)

	if v.PageCorrected(params.Page) {
		c.mu.Lock()
		if c.params.Page == params.Page {
			c.params.Page = v.Page.CurrentPage
		}
		c.mu.Unlock()
		debug.Log("dashboard: page %d corrected to %d", params.Page, v.Page.CurrentPage)
	}
	return v
}

// Export returns the sorted, unpaginated collection for the current filter
// and sort state.
func (c *Controller) Export() []model.StatRecord {
	p := c.Params()
	return c.pipeline.Sorted(p.Query, p.OnlyActive, p.Mode)
}
