package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MikeSquared-Agency/lure/internal/affinity"
)

const schema = `
CREATE TABLE IF NOT EXISTS persona_affinity (
	category   TEXT NOT NULL,
	persona    TEXT NOT NULL,
	score      DOUBLE PRECISION NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (category, persona)
)`

// db is the subset of *pgxpool.Pool the store uses, so tests can pass a pgxmock pool.
type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

// PostgresStore keeps one row per (category, persona) cell and applies
// rewards with an in-database increment.
type PostgresStore struct {
	db   db
	pool *pgxpool.Pool
}

func NewPostgres(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &PostgresStore{db: pool, pool: pool}, nil
}

func newPostgresWithDB(d db) *PostgresStore {
	return &PostgresStore{db: d}
}

func (s *PostgresStore) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Migrate creates the affinity table if it does not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrate persona_affinity: %w", err)
	}
	return nil
}

// Load reads every cell. An empty table yields the built-in defaults.
func (s *PostgresStore) Load(ctx context.Context) (affinity.Table, error) {
	rows, err := s.db.Query(ctx, `SELECT category, persona, score FROM persona_affinity`)
	if err != nil {
		return nil, fmt.Errorf("query persona_affinity: %w", err)
	}
	defer rows.Close()

	t := affinity.Table{}
	for rows.Next() {
		var category, persona string
		var score float64
		if err := rows.Scan(&category, &persona, &score); err != nil {
			return nil, fmt.Errorf("scan persona_affinity: %w", err)
		}
		if t[category] == nil {
			t[category] = map[string]float64{}
		}
		t[category][persona] = score
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate persona_affinity: %w", err)
	}
	if len(t) == 0 {
		return affinity.Defaults(), nil
	}
	return t, nil
}

// Save replaces the stored table with table in one transaction.
func (s *PostgresStore) Save(ctx context.Context, table affinity.Table) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM persona_affinity`); err != nil {
		return fmt.Errorf("clear persona_affinity: %w", err)
	}
	for _, category := range sortedCategories(table) {
		scores := table[category]
		for _, persona := range affinity.Personas(scores) {
			_, err := tx.Exec(ctx, `
				INSERT INTO persona_affinity (category, persona, score, updated_at)
				VALUES ($1, $2, $3, now())`,
				category, persona, scores[persona],
			)
			if err != nil {
				return fmt.Errorf("insert persona_affinity: %w", err)
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Increment seeds the cell if needed and adds delta inside one transaction.
// Concurrent increments on the same cell serialize on the row lock.
func (s *PostgresStore) Increment(ctx context.Context, category, persona string, delta float64) (float64, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var total, existing int64
	if err := tx.QueryRow(ctx, `
		SELECT count(*), count(*) FILTER (WHERE category = $1)
		FROM persona_affinity`, category,
	).Scan(&total, &existing); err != nil {
		return 0, fmt.Errorf("count persona_affinity: %w", err)
	}

	seed := incrementSeed(total == 0, existing > 0, category, persona)
	for _, c := range sortedCategories(seed) {
		for _, p := range affinity.Personas(seed[c]) {
			_, err := tx.Exec(ctx, `
				INSERT INTO persona_affinity (category, persona, score, updated_at)
				VALUES ($1, $2, $3, now())
				ON CONFLICT (category, persona) DO NOTHING`,
				c, p, seed[c][p],
			)
			if err != nil {
				return 0, fmt.Errorf("seed persona_affinity: %w", err)
			}
		}
	}

	var score float64
	if err := tx.QueryRow(ctx, `
		UPDATE persona_affinity
		SET score = score + $3, updated_at = now()
		WHERE category = $1 AND persona = $2
		RETURNING score`,
		category, persona, delta,
	).Scan(&score); err != nil {
		return 0, fmt.Errorf("increment persona_affinity: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return score, nil
}
