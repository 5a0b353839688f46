package store

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/MikeSquared-Agency/lure/internal/affinity"
)

const (
	redisKeyPrefix     = "lure:affinity:"
	redisCategoriesKey = "lure:affinity:categories"
)

// RedisStore keeps each category as a hash of persona -> score and tracks
// category names in a set. Rewards use HINCRBYFLOAT.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// NewRedis connects using a redis:// URL.
func NewRedis(ctx context.Context, url string) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &RedisStore{client: client}, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) key(category string) string {
	return redisKeyPrefix + "category:" + category
}

func (s *RedisStore) Load(ctx context.Context) (affinity.Table, error) {
	cats, err := s.client.SMembers(ctx, redisCategoriesKey).Result()
	if err != nil {
		return nil, fmt.Errorf("affinity: list categories: %w", err)
	}

	t := affinity.Table{}
	for _, cat := range cats {
		fields, err := s.client.HGetAll(ctx, s.key(cat)).Result()
		if err != nil {
			return nil, fmt.Errorf("affinity: get %s: %w", cat, err)
		}
		if len(fields) == 0 {
			continue
		}
		scores := make(map[string]float64, len(fields))
		for persona, raw := range fields {
			score, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: %s/%s=%q", ErrCorrupt, cat, persona, raw)
			}
			scores[persona] = score
		}
		t[cat] = scores
	}
	if len(t) == 0 {
		return affinity.Defaults(), nil
	}
	return t, nil
}

// Save replaces every stored category in one MULTI/EXEC block.
func (s *RedisStore) Save(ctx context.Context, table affinity.Table) error {
	old, err := s.client.SMembers(ctx, redisCategoriesKey).Result()
	if err != nil {
		return fmt.Errorf("affinity: list categories: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, cat := range old {
			pipe.Del(ctx, s.key(cat))
		}
		pipe.Del(ctx, redisCategoriesKey)
		for _, cat := range sortedCategories(table) {
			scores := table[cat]
			if len(scores) == 0 {
				continue
			}
			fields := make(map[string]any, len(scores))
			for persona, score := range scores {
				fields[persona] = score
			}
			pipe.HSet(ctx, s.key(cat), fields)
			pipe.SAdd(ctx, redisCategoriesKey, cat)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("affinity: save: %w", err)
	}
	return nil
}

// Increment adds delta to one cell with HINCRBYFLOAT. Missing cells are
// seeded with HSETNX in the same MULTI/EXEC block.
func (s *RedisStore) Increment(ctx context.Context, category, persona string, delta float64) (float64, error) {
	stored, err := s.client.SCard(ctx, redisCategoriesKey).Result()
	if err != nil {
		return 0, fmt.Errorf("affinity: count categories: %w", err)
	}
	exists, err := s.client.Exists(ctx, s.key(category)).Result()
	if err != nil {
		return 0, fmt.Errorf("affinity: exists %s: %w", category, err)
	}
	seed := incrementSeed(stored == 0, exists > 0, category, persona)

	var incr *redis.FloatCmd
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, cat := range sortedCategories(seed) {
			for p, score := range seed[cat] {
				pipe.HSetNX(ctx, s.key(cat), p, score)
			}
			pipe.SAdd(ctx, redisCategoriesKey, cat)
		}
		incr = pipe.HIncrByFloat(ctx, s.key(category), persona, delta)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("affinity: increment %s/%s: %w", category, persona, err)
	}
	return incr.Val(), nil
}
