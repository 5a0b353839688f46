package simulator

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/MikeSquared-Agency/lure/internal/affinity"
	"github.com/MikeSquared-Agency/lure/internal/dialogue"
	"github.com/MikeSquared-Agency/lure/internal/oracle"
	"github.com/MikeSquared-Agency/lure/internal/policy"
	"github.com/MikeSquared-Agency/lure/internal/scammer"
	"github.com/MikeSquared-Agency/lure/internal/store"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type staticClassifier string

func (c staticClassifier) Classify(context.Context, string) string { return string(c) }

type countingRewarder struct {
	inner Rewarder
	calls int
}

func (r *countingRewarder) Reward(ctx context.Context, category, persona string, success bool) error {
	r.calls++
	return r.inner.Reward(ctx, category, persona, success)
}

// victimOracle always asks how to pay, which trips the scammer's leak.
var victimOracle = oracle.Func(func(context.Context, string, []oracle.Message, int) (string, error) {
	return `{"next_response": "beta how do i send the amount?"}`, nil
})

func newSim(t *testing.T, category string) (*Simulator, *store.FileStore, *countingRewarder) {
	t.Helper()
	logger := discardLogger()
	fs := store.NewFileStore(filepath.Join(t.TempDir(), "rl_weights.json"))
	rew := &countingRewarder{inner: policy.NewRewarder(fs, logger, nil)}
	sim := New(
		policy.NewSelector(staticClassifier(category), fs, 0, nil, logger, nil),
		dialogue.NewOrchestrator(victimOracle, nil, logger, nil),
		rew,
		scammer.New(nil, logger),
		logger,
	)
	return sim, fs, rew
}

func TestRun_CapturesAndRewardsOnce(t *testing.T) {
	sim, fs, rew := newSim(t, affinity.Lottery)

	var observed []Step
	res, err := sim.Run(context.Background(), Options{Turns: 4, Persona: "auto"}, func(s Step) {
		observed = append(observed, s)
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if res.Persona != "Aunt Mary" || res.Category != affinity.Lottery {
		t.Errorf("selection = %s/%s", res.Persona, res.Category)
	}
	if len(res.Steps) != 4 || len(observed) != 4 {
		t.Fatalf("steps = %d observed = %d, want 4", len(res.Steps), len(observed))
	}
	if res.Steps[0].Scammer != DefaultOpening {
		t.Errorf("opening = %q", res.Steps[0].Scammer)
	}
	if len(res.Steps[0].Record.UPIIDs) != 0 {
		t.Errorf("opening should not capture: %v", res.Steps[0].Record.UPIIDs)
	}
	if !reflect.DeepEqual(res.Steps[1].Record.UPIIDs, []string{scammer.LeakUPI}) {
		t.Errorf("turn 2 UPI = %v", res.Steps[1].Record.UPIIDs)
	}
	if !reflect.DeepEqual(res.Intel.BankNumbers, []string{scammer.LeakBank}) {
		t.Errorf("intel bank = %v", res.Intel.BankNumbers)
	}

	if !res.Rewarded || !res.Steps[1].Rewarded || res.Steps[2].Rewarded {
		t.Errorf("reward should fire on turn 2 only: %+v", res.Steps)
	}
	if rew.calls != 1 {
		t.Errorf("reward calls = %d, want 1", rew.calls)
	}

	table, err := fs.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if table[affinity.Lottery]["Aunt Mary"] != 2.0 {
		t.Errorf("Aunt Mary = %v, want 2.0", table[affinity.Lottery]["Aunt Mary"])
	}
}

func TestRun_ExplicitPersonaKeepsCategory(t *testing.T) {
	sim, _, _ := newSim(t, affinity.Financial)

	res, err := sim.Run(context.Background(), Options{Turns: 1, Persona: "rohan", Opening: "KYC expired, update now"}, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Persona != "Rohan" || res.Category != affinity.Financial {
		t.Errorf("got %s/%s", res.Persona, res.Category)
	}
	if res.Rewarded {
		t.Error("no capture, no reward")
	}
}

func TestRun_CancelledContext(t *testing.T) {
	sim, _, _ := newSim(t, affinity.General)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := sim.Run(ctx, Options{Turns: 3}, nil); err == nil {
		t.Fatal("expected context error")
	}
}
