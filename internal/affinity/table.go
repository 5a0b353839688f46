package affinity

import (
	"sort"

	"github.com/MikeSquared-Agency/lure/internal/persona"
)

// Scam categories used to index persona affinities.
const (
	TechSupport = "Tech Support"
	Financial   = "Financial"
	Lottery     = "Lottery"
	General     = "General"
)

const (
	// RewardIncrement is added to a (category, persona) cell on confirmed capture.
	RewardIncrement = 0.5
	// SeedScore is the starting score of a persona unknown to a category.
	SeedScore = 1.0
	// DefaultEpsilon is the exploration probability of the selector.
	DefaultEpsilon = 0.1
)

// Categories returns the fixed classification labels, General last.
func Categories() []string {
	return []string{TechSupport, Financial, Lottery, General}
}

// Table maps category -> persona -> affinity score.
type Table map[string]map[string]float64

const (
	ramesh = string(persona.UncleRamesh)
	mary   = string(persona.AuntMary)
	rohan  = string(persona.Rohan)
	sharma = string(persona.MrsSharma)
	gupta  = string(persona.MrGupta)
)

func builtin() Table {
	return Table{
		TechSupport: {ramesh: 1.2, sharma: 1.0, rohan: 0.8},
		Financial:   {ramesh: 1.0, sharma: 1.2, gupta: 1.1},
		Lottery:     {mary: 1.5, ramesh: 1.0, rohan: 1.0},
		General:     {ramesh: 1.0, sharma: 1.0, rohan: 1.0},
	}
}

// Defaults returns a fresh copy of the built-in table. Callers may mutate it.
func Defaults() Table {
	return builtin()
}

// DefaultsFor returns a fresh copy of the built-in scores for category,
// or of the General scores when the category has no built-in entry.
func DefaultsFor(category string) map[string]float64 {
	d := builtin()
	if s, ok := d[category]; ok {
		return s
	}
	return d[General]
}

// Clone deep-copies t.
func (t Table) Clone() Table {
	out := make(Table, len(t))
	for cat, scores := range t {
		inner := make(map[string]float64, len(scores))
		for p, s := range scores {
			inner[p] = s
		}
		out[cat] = inner
	}
	return out
}

// Strategies returns the persona scores for category. Unseen or empty
// categories fall back to the table's General entry, then to the
// built-in General scores.
func (t Table) Strategies(category string) map[string]float64 {
	if s := t[category]; len(s) > 0 {
		return s
	}
	if s := t[General]; len(s) > 0 {
		return s
	}
	return DefaultsFor(General)
}

// Score returns the stored score for a cell and whether it exists.
func (t Table) Score(category, persona string) (float64, bool) {
	s, ok := t[category][persona]
	return s, ok
}

// Seed makes sure category and persona exist in t, seeding the category
// from built-in defaults and the persona at SeedScore.
func (t Table) Seed(category, persona string) {
	if len(t[category]) == 0 {
		t[category] = DefaultsFor(category)
	}
	if _, ok := t[category][persona]; !ok {
		t[category][persona] = SeedScore
	}
}

// Apply adds RewardIncrement to the (category, persona) cell, seeding it
// first if needed, and returns the new score. Only that cell changes.
func (t Table) Apply(category, persona string) float64 {
	t.Seed(category, persona)
	t[category][persona] += RewardIncrement
	return t[category][persona]
}

// Personas returns the persona names of a strategy set in canonical
// order: catalog order first, then names outside the catalog sorted
// lexicographically.
func Personas(strategies map[string]float64) []string {
	names := make([]string, 0, len(strategies))
	for name := range strategies {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		ri, rj := rank(names[i]), rank(names[j])
		if ri != rj {
			return ri < rj
		}
		return names[i] < names[j]
	})
	return names
}

func rank(name string) int {
	all := persona.All()
	for i, p := range all {
		if string(p.Name) == name {
			return i
		}
	}
	return len(all)
}
