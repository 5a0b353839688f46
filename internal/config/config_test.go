package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

var allKeys = []string{
	"LURE_PORT", "LOG_LEVEL", "LURE_LLM_PROVIDER", "GROQ_API_KEY", "GROQ_MODEL",
	"GROQ_API_KEY_SCAMMER", "ANTHROPIC_API_KEY", "LURE_MODEL", "LURE_ORACLE_TIMEOUT",
	"LURE_EPSILON", "LURE_SCORE_BACKEND", "LURE_SCORE_FILE", "DATABASE_URL", "REDIS_URL",
	"LURE_CAPTURE_LOG", "NATS_URL", "NATS_TOKEN", "SLACK_BOT_TOKEN",
	"SLACK_CAPTURE_CHANNEL", "LURE_API_TOKEN",
}

func TestLoad_Defaults(t *testing.T) {
	for _, key := range allKeys {
		t.Setenv(key, "")
	}

	cfg := Load()

	if cfg.Port != 8760 {
		t.Errorf("expected default port 8760, got %d", cfg.Port)
	}
	if cfg.LLMProvider != "groq" {
		t.Errorf("expected default provider groq, got %s", cfg.LLMProvider)
	}
	if cfg.GroqModel != "llama-3.1-8b-instant" {
		t.Errorf("expected default groq model, got %s", cfg.GroqModel)
	}
	if cfg.OracleTimeout != 15*time.Second {
		t.Errorf("expected 15s oracle timeout, got %s", cfg.OracleTimeout)
	}
	if cfg.Epsilon != 0.1 {
		t.Errorf("expected epsilon 0.1, got %v", cfg.Epsilon)
	}
	if cfg.ScoreBackend != "file" || cfg.ScoreFile != "rl_weights.json" {
		t.Errorf("expected file backend at rl_weights.json, got %s %s", cfg.ScoreBackend, cfg.ScoreFile)
	}
	if cfg.CaptureLog != "scam_log.jsonl" {
		t.Errorf("expected default capture log, got %s", cfg.CaptureLog)
	}
	if cfg.NatsURL != "" || cfg.APIToken != "" {
		t.Errorf("expected optional integrations off, got nats=%q token=%q", cfg.NatsURL, cfg.APIToken)
	}
}

func TestLoad_CustomValues(t *testing.T) {
	t.Setenv("LURE_PORT", "9999")
	t.Setenv("LURE_LLM_PROVIDER", "anthropic")
	t.Setenv("ANTHROPIC_API_KEY", "sk-test-key")
	t.Setenv("LURE_ORACLE_TIMEOUT", "3s")
	t.Setenv("LURE_EPSILON", "0")
	t.Setenv("LURE_SCORE_BACKEND", "redis")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("NATS_URL", "nats://custom:4222")
	t.Setenv("SLACK_CAPTURE_CHANNEL", "C12345")
	t.Setenv("LURE_API_TOKEN", "lure-secret")

	cfg := Load()

	if cfg.Port != 9999 {
		t.Errorf("expected port 9999, got %d", cfg.Port)
	}
	if cfg.LLMProvider != "anthropic" || cfg.AnthropicAPIKey != "sk-test-key" {
		t.Errorf("unexpected provider config: %s %s", cfg.LLMProvider, cfg.AnthropicAPIKey)
	}
	if cfg.OracleTimeout != 3*time.Second {
		t.Errorf("expected 3s timeout, got %s", cfg.OracleTimeout)
	}
	if cfg.Epsilon != 0 {
		t.Errorf("expected epsilon 0, got %v", cfg.Epsilon)
	}
	if cfg.ScoreBackend != "redis" || cfg.RedisURL != "redis://localhost:6379/0" {
		t.Errorf("unexpected backend: %s %s", cfg.ScoreBackend, cfg.RedisURL)
	}
	if cfg.NatsURL != "nats://custom:4222" {
		t.Errorf("expected custom nats url, got %s", cfg.NatsURL)
	}
	if cfg.SlackChannel != "C12345" {
		t.Errorf("expected custom slack channel, got %s", cfg.SlackChannel)
	}
	if cfg.APIToken != "lure-secret" {
		t.Errorf("expected custom api token, got %s", cfg.APIToken)
	}
}

func TestLoad_InvalidValuesKeepDefaults(t *testing.T) {
	t.Setenv("LURE_PORT", "notanumber")
	t.Setenv("LURE_EPSILON", "1.5")
	t.Setenv("LURE_ORACLE_TIMEOUT", "soon")

	cfg := Load()

	if cfg.Port != 8760 {
		t.Errorf("expected default port on invalid value, got %d", cfg.Port)
	}
	if cfg.Epsilon != 0.1 {
		t.Errorf("expected default epsilon on out-of-range value, got %v", cfg.Epsilon)
	}
	if cfg.OracleTimeout != 15*time.Second {
		t.Errorf("expected default timeout on invalid value, got %s", cfg.OracleTimeout)
	}
}

func TestEnvDuration_PlainSeconds(t *testing.T) {
	t.Setenv("LURE_ORACLE_TIMEOUT", "20")
	if got := envDuration("LURE_ORACLE_TIMEOUT", time.Second); got != 20*time.Second {
		t.Errorf("expected 20s, got %s", got)
	}
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("GROQ_MODEL=from-dotenv\nLURE_PORT=7000\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("LURE_PORT", "8123")
	t.Setenv("GROQ_MODEL", "")
	os.Unsetenv("GROQ_MODEL")

	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}
	cfg := Load()
	if cfg.GroqModel != "from-dotenv" {
		t.Errorf("expected model from .env, got %s", cfg.GroqModel)
	}
	if cfg.Port != 8123 {
		t.Errorf("existing env must win over .env, got %d", cfg.Port)
	}
}

func TestLoadDotEnv_MissingFile(t *testing.T) {
	if err := LoadDotEnv(filepath.Join(t.TempDir(), "nope.env")); err != nil {
		t.Errorf("missing file should be ignored, got %v", err)
	}
}
