package prefs

import (
	"time"

	"github.com/vanderheijden86/teamboard/pkg/debug"
	"github.com/vanderheijden86/teamboard/pkg/model"
)

// Keys used by the dashboard.
const (
	KeySortMode  = "dashboard:sortMode"
	KeyLastVisit = "dashboard:lastVisit"
	KeyView      = "dashboard:view"
)

// View modes stored under KeyView.
const (
	ViewTable = "table"
	ViewCards = "cards"
)

// Preferences is a typed wrapper over a KV. Read failures degrade to the
// supplied default and are logged; the dashboard must keep working when the
// state file is unreadable.
type Preferences struct {
	kv KV
}

// New wraps kv. A nil kv behaves like an empty MemoryKV.
func New(kv KV) *Preferences {
	if kv == nil {
		kv = NewMemoryKV()
	}
	return &Preferences{kv: kv}
}

func (p *Preferences) get(key string) (string, bool) {
	v, ok, err := p.kv.Get(key)
	if err != nil {
		debug.Log("prefs: %v", err)
		return "", false
	}
	return v, ok
}

// SortMode returns the stored sort mode, or def when none is stored or the
// stored value is not a known mode.
func (p *Preferences) SortMode(def model.SortMode) model.SortMode {
	v, ok := p.get(KeySortMode)
	if !ok {
		return def
	}
	m := model.SortMode(v)
	if !m.Valid() {
		return def
	}
	return m
}

// SetSortMode persists mode.
func (p *Preferences) SetSortMode(mode model.SortMode) error {
	return p.kv.Set(KeySortMode, string(mode))
}

// LastVisit returns the stored last-visit time, or the zero time.
func (p *Preferences) LastVisit() time.Time {
	v, ok := p.get(KeyLastVisit)
	if !ok {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		debug.Log("prefs: bad %s value %q: %v", KeyLastVisit, v, err)
		return time.Time{}
	}
	return t
}

// SetLastVisit persists t with second precision.
func (p *Preferences) SetLastVisit(t time.Time) error {
	return p.kv.Set(KeyLastVisit, t.UTC().Format(time.RFC3339))
}

// ViewMode returns ViewTable or ViewCards, falling back to def.
func (p *Preferences) ViewMode(def string) string {
	v, ok := p.get(KeyView)
	if !ok || (v != ViewTable && v != ViewCards) {
		return def
	}
	return v
}

// SetViewMode persists the view mode.
func (p *Preferences) SetViewMode(v string) error {
	return p.kv.Set(KeyView, v)
}

// Close closes the underlying KV.
func (p *Preferences) Close() error {
	return p.kv.Close()
}
