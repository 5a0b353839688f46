package policy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/MikeSquared-Agency/lure/internal/affinity"
	"github.com/MikeSquared-Agency/lure/internal/metrics"
	"github.com/MikeSquared-Agency/lure/internal/store"
)

// Applied describes one reward written to the affinity table.
type Applied struct {
	Category string  `json:"category"`
	Persona  string  `json:"persona"`
	Score    float64 `json:"score"`
}

// Rewarder adds RewardIncrement to a (category, persona) cell whenever a
// conversation is confirmed to have captured intel. There is no penalty
// path; scores only grow.
type Rewarder struct {
	store   store.ScoreStore
	logger  *slog.Logger
	metrics *metrics.Metrics

	mu      sync.Mutex
	onApply []func(context.Context, Applied)
}

func NewRewarder(s store.ScoreStore, logger *slog.Logger, m *metrics.Metrics) *Rewarder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Rewarder{store: s, logger: logger, metrics: m}
}

// OnApplied registers fn to run after every successful reward.
func (r *Rewarder) OnApplied(fn func(context.Context, Applied)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onApply = append(r.onApply, fn)
}

// Reward records the outcome of a conversation. success=false is a no-op.
// The returned error only reports a persistence failure.
func (r *Rewarder) Reward(ctx context.Context, category, persona string, success bool) error {
	if !success {
		return nil
	}
	category = strings.TrimSpace(category)
	persona = strings.TrimSpace(persona)
	if category == "" {
		category = affinity.General
	}
	if persona == "" {
		r.logger.Warn("reward without persona ignored", "category", category)
		return nil
	}

	r.mu.Lock()
	score, err := r.apply(ctx, category, persona)
	hooks := r.onApply
	r.mu.Unlock()

	r.metrics.ObserveReward(category, persona, err)
	if err != nil {
		return err
	}

	r.logger.Info("reward applied", "category", category, "persona", persona, "score", score)
	applied := Applied{Category: category, Persona: persona, Score: score}
	for _, fn := range hooks {
		fn(ctx, applied)
	}
	return nil
}

func (r *Rewarder) apply(ctx context.Context, category, persona string) (float64, error) {
	if inc, ok := r.store.(store.Incrementer); ok {
		score, err := inc.Increment(ctx, category, persona, affinity.RewardIncrement)
		if err != nil {
			return 0, fmt.Errorf("increment %s/%s: %w", category, persona, err)
		}
		return score, nil
	}

	table, err := r.store.Load(ctx)
	switch {
	case errors.Is(err, store.ErrCorrupt):
		r.logger.Warn("affinity table corrupt, rebuilding from defaults", "error", err)
		table = affinity.Defaults()
	case err != nil:
		return 0, fmt.Errorf("load affinity table: %w", err)
	case table == nil:
		table = affinity.Defaults()
	}

	score := table.Apply(category, persona)
	if err := r.store.Save(ctx, table); err != nil {
		return 0, fmt.Errorf("save affinity table: %w", err)
	}
	return score, nil
}
