package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port     int
	LogLevel string

	LLMProvider     string
	GroqAPIKey      string
	GroqModel       string
	GroqScammerKey  string
	AnthropicAPIKey string
	AnthropicModel  string
	OracleTimeout   time.Duration
	Epsilon         float64

	ScoreBackend string
	ScoreFile    string
	DatabaseURL  string
	RedisURL     string
	CaptureLog   string

	NatsURL       string
	NatsToken     string
	SlackBotToken string
	SlackChannel  string
	APIToken      string
}

// LoadDotEnv reads KEY=VALUE pairs from the given files (default ".env")
// into the environment without overriding variables that are already set.
// A missing file is not an error.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}

func Load() Config {
	return Config{
		Port:     envInt("LURE_PORT", 8760),
		LogLevel: envStr("LOG_LEVEL", "info"),

		LLMProvider:     envStr("LURE_LLM_PROVIDER", "groq"),
		GroqAPIKey:      envStr("GROQ_API_KEY", ""),
		GroqModel:       envStr("GROQ_MODEL", "llama-3.1-8b-instant"),
		GroqScammerKey:  envStr("GROQ_API_KEY_SCAMMER", ""),
		AnthropicAPIKey: envStr("ANTHROPIC_API_KEY", ""),
		AnthropicModel:  envStr("LURE_MODEL", "claude-sonnet-4-20250514"),
		OracleTimeout:   envDuration("LURE_ORACLE_TIMEOUT", 15*time.Second),
		Epsilon:         envFloat("LURE_EPSILON", 0.1),

		ScoreBackend: envStr("LURE_SCORE_BACKEND", "file"),
		ScoreFile:    envStr("LURE_SCORE_FILE", "rl_weights.json"),
		DatabaseURL:  envStr("DATABASE_URL", ""),
		RedisURL:     envStr("REDIS_URL", ""),
		CaptureLog:   envStr("LURE_CAPTURE_LOG", "scam_log.jsonl"),

		NatsURL:       envStr("NATS_URL", ""),
		NatsToken:     envStr("NATS_TOKEN", ""),
		SlackBotToken: envStr("SLACK_BOT_TOKEN", ""),
		SlackChannel:  envStr("SLACK_CAPTURE_CHANNEL", ""),
		APIToken:      envStr("LURE_API_TOKEN", ""),
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

// envFloat accepts values in [0,1]; anything else keeps the fallback.
func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f >= 0 && f <= 1 {
			return f
		}
	}
	return fallback
}

// envDuration accepts Go durations ("15s") or plain seconds ("15").
func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil && d > 0 {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil && n > 0 {
		return time.Duration(n) * time.Second
	}
	return fallback
}
