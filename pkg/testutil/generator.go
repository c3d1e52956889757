// Package testutil provides deterministic record fixtures and assertions
// shared by package tests.
package testutil

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/goccy/go-json"

	"github.com/vanderheijden86/teamboard/pkg/model"
)

// firstNames mixes scripts and case so collation and search paths are
// exercised.
var firstNames = []string{
	"Аня", "Борис", "Вера", "Глеб", "Дина", "Егор", "Ёжик", "Жанна",
	"Зоя", "Игорь", "Кира", "Лев", "Мила", "Никита", "Оля", "Пётр",
	"Anna", "Émile", "Zoe", "Ying",
}

var lastNames = []string{
	"Иванова", "Петров", "Сидорова", "Кузнецов", "Смирнова",
	"Smith", "Müller", "Østergaard", "Nakamura", "O'Brien",
}

// GeneratorConfig controls record generation.
type GeneratorConfig struct {
	Seed          int64   // Random seed for determinism (0 = use 42)
	IDPrefix      string  // Prefix for record IDs (default: "u")
	InactiveShare float64 // Fraction of users with no tasks at all
	MaxCompleted  int     // Upper bound for completed counts (default 20)
	MaxOpen       int     // Upper bound for in-progress and overdue counts (default 5)
	WithAvatars   bool    // Fill AvatarURL
}

// DefaultConfig returns a config suitable for most tests.
func DefaultConfig() GeneratorConfig {
	return GeneratorConfig{
		Seed:          42,
		IDPrefix:      "u",
		InactiveShare: 0.1,
		MaxCompleted:  20,
		MaxOpen:       5,
	}
}

// Generator creates StatRecord fixtures.
type Generator struct {
	cfg GeneratorConfig
	rng *rand.Rand
}

// New creates a Generator with the given config.
func New(cfg GeneratorConfig) *Generator {
	if cfg.Seed == 0 {
		cfg.Seed = 42
	}
	if cfg.IDPrefix == "" {
		cfg.IDPrefix = "u"
	}
	if cfg.MaxCompleted <= 0 {
		cfg.MaxCompleted = 20
	}
	if cfg.MaxOpen <= 0 {
		cfg.MaxOpen = 5
	}
	return &Generator{cfg: cfg, rng: rand.New(rand.NewSource(cfg.Seed))}
}

// NewDefault creates a Generator with default config.
func NewDefault() *Generator {
	return New(DefaultConfig())
}

// Team creates size records with unique IDs in generation order.
func (g *Generator) Team(size int) []model.StatRecord {
	records := make([]model.StatRecord, size)
	for i := range records {
		r := model.StatRecord{
			ID:   RecordID(g.cfg.IDPrefix, i),
			Name: g.name(i),
		}
		if g.rng.Float64() >= g.cfg.InactiveShare {
			r.CompletedCount = g.rng.Intn(g.cfg.MaxCompleted + 1)
			r.InProgressCount = g.rng.Intn(g.cfg.MaxOpen + 1)
			r.OverdueCount = g.rng.Intn(g.cfg.MaxOpen + 1)
		}
		if g.cfg.WithAvatars {
			r.AvatarURL = fmt.Sprintf("https://avatars.example.com/%s.png", r.ID)
		}
		records[i] = r
	}
	return records
}

// Ties creates size records that all share one name and one set of counters,
// for stability checks.
func (g *Generator) Ties(size int, completed int) []model.StatRecord {
	records := make([]model.StatRecord, size)
	for i := range records {
		records[i] = model.StatRecord{
			ID:             RecordID(g.cfg.IDPrefix, i),
			Name:           "Одинаковый",
			CompletedCount: completed,
		}
	}
	return records
}

func (g *Generator) name(i int) string {
	first := firstNames[g.rng.Intn(len(firstNames))]
	last := lastNames[g.rng.Intn(len(lastNames))]
	// Occasionally vary case to exercise case-insensitive search.
	if i%7 == 3 {
		first = strings.ToLower(first)
	}
	return first + " " + last
}

// RecordID formats the ID for the record at index.
func RecordID(prefix string, index int) string {
	return fmt.Sprintf("%s%04d", prefix, index)
}

// ToJSON converts records to the bare-array payload the stats endpoint returns.
func ToJSON(records []model.StatRecord) string {
	data, err := json.Marshal(records)
	if err != nil {
		return "[]"
	}
	return string(data)
}

// ToEnvelopeJSON wraps records in {"data": [...]}.
func ToEnvelopeJSON(records []model.StatRecord) string {
	return `{"data":` + ToJSON(records) + `}`
}

// QuickTeam returns a default-generated team of size records.
func QuickTeam(size int) []model.StatRecord {
	return NewDefault().Team(size)
}

// Scenario returns the three-user team used across package tests: two users
// tied on completed count and one behind them.
func Scenario() []model.StatRecord {
	return []model.StatRecord{
		{ID: "2", Name: "Борис", CompletedCount: 5},
		{ID: "3", Name: "Вера", CompletedCount: 2},
		{ID: "1", Name: "Аня", CompletedCount: 5},
	}
}
