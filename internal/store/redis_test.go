package store

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/MikeSquared-Agency/lure/internal/affinity"
)

func newTestRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisStore(client), mr
}

func TestRedisStore_EmptyLoadsDefaults(t *testing.T) {
	s, _ := newTestRedisStore(t)

	table, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if table[affinity.TechSupport]["Uncle Ramesh"] != 1.2 {
		t.Errorf("expected defaults, got %v", table)
	}
}

func TestRedisStore_SaveReplacesTable(t *testing.T) {
	s, _ := newTestRedisStore(t)
	ctx := context.Background()

	if err := s.Save(ctx, affinity.Defaults()); err != nil {
		t.Fatalf("Save defaults: %v", err)
	}
	replacement := affinity.Table{affinity.General: {"Rohan": 3.5}}
	if err := s.Save(ctx, replacement); err != nil {
		t.Fatalf("Save replacement: %v", err)
	}

	got, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected only General after replacement, got %v", got)
	}
	if got[affinity.General]["Rohan"] != 3.5 {
		t.Errorf("Rohan = %v, want 3.5", got[affinity.General]["Rohan"])
	}
}

func TestRedisStore_IncrementSeedsAndAdds(t *testing.T) {
	s, _ := newTestRedisStore(t)
	ctx := context.Background()

	score, err := s.Increment(ctx, affinity.Lottery, "Aunt Mary", affinity.RewardIncrement)
	if err != nil {
		t.Fatalf("Increment: %v", err)
	}
	if math.Abs(score-2.0) > 1e-9 {
		t.Errorf("first increment = %v, want 2.0", score)
	}

	score, err = s.Increment(ctx, affinity.Lottery, "Aunt Mary", affinity.RewardIncrement)
	if err != nil {
		t.Fatalf("Increment: %v", err)
	}
	if math.Abs(score-2.5) > 1e-9 {
		t.Errorf("second increment = %v, want 2.5", score)
	}

	table, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if table[affinity.Lottery]["Rohan"] != 1.0 || table[affinity.Lottery]["Uncle Ramesh"] != 1.0 {
		t.Errorf("seeded cells changed: %v", table[affinity.Lottery])
	}
}

func TestRedisStore_IncrementUnknownPersona(t *testing.T) {
	s, _ := newTestRedisStore(t)
	ctx := context.Background()

	if err := s.Save(ctx, affinity.Defaults()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	score, err := s.Increment(ctx, affinity.Financial, "Aunt Mary", affinity.RewardIncrement)
	if err != nil {
		t.Fatalf("Increment: %v", err)
	}
	if math.Abs(score-1.5) > 1e-9 {
		t.Errorf("score = %v, want 1.5", score)
	}
}

func TestRedisStore_CorruptValue(t *testing.T) {
	s, mr := newTestRedisStore(t)
	mr.SAdd(redisCategoriesKey, affinity.General)
	mr.HSet(s.key(affinity.General), "Rohan", "lots")

	_, err := s.Load(context.Background())
	if !errors.Is(err, ErrCorrupt) {
		t.Fatalf("expected ErrCorrupt, got %v", err)
	}
}

func TestRedisStore_IncrementOnEmptyStoreKeepsDefaults(t *testing.T) {
	s, _ := newTestRedisStore(t)
	ctx := context.Background()

	before, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, err := s.Increment(ctx, affinity.Financial, "Mr. Gupta", affinity.RewardIncrement); err != nil {
		t.Fatalf("Increment: %v", err)
	}
	after, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if math.Abs(after[affinity.Financial]["Mr. Gupta"]-1.6) > 1e-9 {
		t.Errorf("Mr. Gupta = %v, want 1.6", after[affinity.Financial]["Mr. Gupta"])
	}
	if len(after) != len(before) {
		t.Fatalf("categories = %d, want %d: %v", len(after), len(before), after)
	}
	for cat, scores := range before {
		for p, score := range scores {
			if cat == affinity.Financial && p == "Mr. Gupta" {
				continue
			}
			if after[cat][p] != score {
				t.Errorf("cell %s/%s changed: %v -> %v", cat, p, score, after[cat][p])
			}
		}
	}
}
