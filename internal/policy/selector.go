// Package policy chooses personas with an epsilon-greedy contextual bandit
// and reinforces them when a conversation yields payment intel.
package policy

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"sync"

	"github.com/MikeSquared-Agency/lure/internal/affinity"
	"github.com/MikeSquared-Agency/lure/internal/metrics"
	"github.com/MikeSquared-Agency/lure/internal/persona"
	"github.com/MikeSquared-Agency/lure/internal/store"
)

// Classifier maps a message to a category label. It must not fail.
type Classifier interface {
	Classify(ctx context.Context, message string) string
}

// Selection is the outcome of one persona decision.
type Selection struct {
	Persona  string `json:"persona"`
	Category string `json:"category"`
	Explored bool   `json:"explored"`
}

type Selector struct {
	classifier Classifier
	store      store.ScoreStore
	epsilon    float64
	logger     *slog.Logger
	metrics    *metrics.Metrics

	mu  sync.Mutex
	rng affinity.Rand
}

// NewSelector builds a selector. A nil rng uses the process-wide source;
// pass a seeded *rand.Rand for reproducible runs.
func NewSelector(c Classifier, s store.ScoreStore, epsilon float64, rng affinity.Rand, logger *slog.Logger, m *metrics.Metrics) *Selector {
	if logger == nil {
		logger = slog.Default()
	}
	if rng == nil {
		rng = globalRand{}
	}
	if epsilon < 0 {
		epsilon = 0
	}
	return &Selector{
		classifier: c,
		store:      s,
		epsilon:    epsilon,
		rng:        rng,
		logger:     logger,
		metrics:    m,
	}
}

func (s *Selector) Epsilon() float64 {
	return s.epsilon
}

// Select classifies message, looks up the category's persona scores and
// applies the epsilon-greedy rule. It never fails: storage errors fall
// back to the built-in table.
func (s *Selector) Select(ctx context.Context, message string) Selection {
	category := affinity.General
	if s.classifier != nil {
		category = s.classifier.Classify(ctx, message)
	}

	table := s.load(ctx)
	strategies := table.Strategies(category)

	s.mu.Lock()
	name, explored := affinity.Choose(strategies, s.epsilon, s.rng)
	s.mu.Unlock()

	if name == "" {
		name = string(persona.Default)
	}

	s.logger.Info("persona selected",
		"category", category,
		"persona", name,
		"explored", explored,
	)
	s.metrics.ObserveSelection(category, name, explored)

	return Selection{Persona: name, Category: category, Explored: explored}
}

func (s *Selector) load(ctx context.Context) affinity.Table {
	if s.store == nil {
		return affinity.Defaults()
	}
	table, err := s.store.Load(ctx)
	if err != nil {
		s.logger.Warn("load affinity table failed, using defaults", "error", err)
		return affinity.Defaults()
	}
	if table == nil {
		return affinity.Defaults()
	}
	return table
}

type globalRand struct{}

func (globalRand) Float64() float64 { return rand.Float64() }
func (globalRand) IntN(n int) int   { return rand.IntN(n) }
