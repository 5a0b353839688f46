// Package app builds the shared runtime pieces both binaries need from a
// loaded config.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/MikeSquared-Agency/lure/internal/anthropic"
	"github.com/MikeSquared-Agency/lure/internal/config"
	"github.com/MikeSquared-Agency/lure/internal/groq"
	"github.com/MikeSquared-Agency/lure/internal/oracle"
	"github.com/MikeSquared-Agency/lure/internal/store"
)

const (
	victimTemperature  = 1.0
	scammerTemperature = 0.8
)

// SetupLogging installs a JSON slog handler on stdout as the default logger.
func SetupLogging(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)
	return logger
}

// NewOracle returns the configured provider, falling back to the other
// provider when its key is also present. Every call is bounded by
// cfg.OracleTimeout.
func NewOracle(cfg config.Config, logger *slog.Logger) (oracle.Oracle, error) {
	var groqOracle, anthropicOracle oracle.Oracle
	if cfg.GroqAPIKey != "" {
		groqOracle = groq.NewClient(cfg.GroqAPIKey, cfg.GroqModel, victimTemperature)
	}
	if cfg.AnthropicAPIKey != "" {
		anthropicOracle = anthropic.NewClient(cfg.AnthropicAPIKey, cfg.AnthropicModel)
	}

	var primary, secondary oracle.Oracle
	switch strings.ToLower(cfg.LLMProvider) {
	case "anthropic":
		primary, secondary = anthropicOracle, groqOracle
	case "groq", "":
		primary, secondary = groqOracle, anthropicOracle
	default:
		return nil, fmt.Errorf("unknown LURE_LLM_PROVIDER %q", cfg.LLMProvider)
	}
	if primary == nil {
		primary, secondary = secondary, nil
	}
	if primary == nil {
		return nil, fmt.Errorf("no oracle configured: set GROQ_API_KEY or ANTHROPIC_API_KEY")
	}

	var o oracle.Oracle = primary
	if secondary != nil {
		o = oracle.NewFallback(primary, secondary, logger)
	}
	return oracle.WithTimeout(o, cfg.OracleTimeout), nil
}

// NewScammerOracle returns the Groq client used by the simulated scammer,
// preferring its dedicated key. It returns nil when no Groq key is set; the
// scammer then relies on its scripted lines.
func NewScammerOracle(cfg config.Config) oracle.Oracle {
	key := cfg.GroqScammerKey
	if key == "" {
		key = cfg.GroqAPIKey
	}
	if key == "" {
		return nil
	}
	return oracle.WithTimeout(groq.NewClient(key, cfg.GroqModel, scammerTemperature), cfg.OracleTimeout)
}

// OpenStore opens the score backend named by cfg.ScoreBackend. The returned
// close function is never nil.
func OpenStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (store.ScoreStore, func(), error) {
	switch strings.ToLower(cfg.ScoreBackend) {
	case "", "file":
		fs := store.NewFileStore(cfg.ScoreFile)
		logger.Info("score store ready", "backend", "file", "path", fs.Path())
		return fs, func() {}, nil

	case "postgres":
		if cfg.DatabaseURL == "" {
			return nil, nil, fmt.Errorf("DATABASE_URL is required for the postgres score backend")
		}
		pg, err := store.NewPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		if err := pg.Migrate(ctx); err != nil {
			pg.Close()
			return nil, nil, err
		}
		logger.Info("score store ready", "backend", "postgres")
		return pg, pg.Close, nil

	case "redis":
		if cfg.RedisURL == "" {
			return nil, nil, fmt.Errorf("REDIS_URL is required for the redis score backend")
		}
		rs, err := store.NewRedis(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("score store ready", "backend", "redis")
		return rs, func() { _ = rs.Close() }, nil

	default:
		return nil, nil, fmt.Errorf("unknown LURE_SCORE_BACKEND %q", cfg.ScoreBackend)
	}
}
