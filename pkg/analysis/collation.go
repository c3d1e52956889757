package analysis

import (
	"strings"
	"sync"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// DefaultLocale is the collation locale used when none is configured.
const DefaultLocale = "ru"

// Collation orders display names with the rules of one locale (case- and
// accent-aware, not code point order). A collate.Collator keeps internal
// buffers, so access is serialized.
type Collation struct {
	mu       sync.Mutex
	collator *collate.Collator
	tag      language.Tag
}

// NewCollation returns a collation for the given BCP 47 locale. Unparseable
// locales fall back to DefaultLocale.
func NewCollation(locale string) *Collation {
	tag, err := language.Parse(strings.TrimSpace(locale))
	if err != nil {
		tag = language.MustParse(DefaultLocale)
	}
	return &Collation{collator: collate.New(tag), tag: tag}
}

// Compare returns -1, 0 or 1 depending on the collation order of a and b.
// A nil Collation compares by code point.
func (c *Collation) Compare(a, b string) int {
	if c == nil {
		return strings.Compare(a, b)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.collator.CompareString(a, b)
}

// Locale returns the canonical locale tag in use.
func (c *Collation) Locale() string {
	if c == nil {
		return ""
	}
	return c.tag.String()
}
