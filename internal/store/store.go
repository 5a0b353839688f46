// Package store persists the persona affinity table. Every backend exposes
// the same whole-table Load/Save boundary; backends that can add to a
// single cell atomically also implement Incrementer.
package store

import (
	"context"
	"errors"

	"github.com/MikeSquared-Agency/lure/internal/affinity"
)

// ErrCorrupt means persisted scores exist but could not be decoded.
var ErrCorrupt = errors.New("corrupt score data")

// ScoreStore loads and saves the whole affinity table.
// Load may return a nil table alongside an error; callers fall back to
// affinity.Defaults() in that case.
type ScoreStore interface {
	Load(ctx context.Context) (affinity.Table, error)
	Save(ctx context.Context, table affinity.Table) error
}

// Incrementer adds delta to one (category, persona) cell in storage,
// seeding the category from built-in defaults and the persona at
// affinity.SeedScore when missing. It returns the new score.
type Incrementer interface {
	Increment(ctx context.Context, category, persona string, delta float64) (float64, error)
}

// incrementSeed returns the cells an Incrementer must insert if absent
// before adding to (category, persona). An empty store is seeded with the
// whole built-in table so the categories Load reported as defaults survive
// the first write.
func incrementSeed(storeEmpty, categoryExists bool, category, persona string) affinity.Table {
	seed := affinity.Table{}
	if storeEmpty {
		seed = affinity.Defaults()
	}
	if categoryExists {
		seed[category] = map[string]float64{persona: affinity.SeedScore}
		return seed
	}
	seed.Seed(category, persona)
	return seed
}
