package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/MikeSquared-Agency/lure/internal/api"
	"github.com/MikeSquared-Agency/lure/internal/app"
	"github.com/MikeSquared-Agency/lure/internal/capture"
	"github.com/MikeSquared-Agency/lure/internal/classifier"
	"github.com/MikeSquared-Agency/lure/internal/config"
	"github.com/MikeSquared-Agency/lure/internal/dialogue"
	"github.com/MikeSquared-Agency/lure/internal/hermes"
	"github.com/MikeSquared-Agency/lure/internal/metrics"
	"github.com/MikeSquared-Agency/lure/internal/policy"
	"github.com/MikeSquared-Agency/lure/internal/slack"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		slog.Warn("failed to read .env", "error", err)
	}
	cfg := config.Load()
	logger := app.SetupLogging(cfg.LogLevel)

	logger.Info("lure starting", "port", cfg.Port)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Oracle
	llm, err := app.NewOracle(cfg, logger)
	if err != nil {
		logger.Error("failed to configure oracle", "error", err)
		os.Exit(1)
	}
	logger.Info("oracle ready", "provider", cfg.LLMProvider, "timeout", cfg.OracleTimeout)

	// Score store
	scores, closeStore, err := app.OpenStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open score store", "backend", cfg.ScoreBackend, "error", err)
		os.Exit(1)
	}
	defer closeStore()

	reg := prometheus.DefaultRegisterer
	m := metrics.New(reg)

	// Capture sinks: JSONL log always, NATS and Slack when configured
	sinks := capture.NewMulti(logger, capture.NewLog(cfg.CaptureLog))

	var bus *hermes.Client
	if cfg.NatsURL != "" {
		bus, err = hermes.NewClient(ctx, cfg.NatsURL, cfg.NatsToken, logger)
		if err != nil {
			logger.Error("failed to connect to NATS", "error", err)
			os.Exit(1)
		}
		defer bus.Close()
		sinks.Add(hermes.NewCaptureSink(bus))
		logger.Info("NATS connected", "url", cfg.NatsURL)
	} else {
		logger.Warn("NATS_URL not set, running without event bus")
	}

	if cfg.SlackBotToken != "" && cfg.SlackChannel != "" {
		sinks.Add(slack.NewPoster(cfg.SlackBotToken, cfg.SlackChannel, logger))
		logger.Info("slack capture alerts enabled", "channel", cfg.SlackChannel)
	}

	// Core pipeline
	selector := policy.NewSelector(classifier.New(llm, logger, m), scores, cfg.Epsilon, nil, logger, m)
	rewarder := policy.NewRewarder(scores, logger, m)
	orchestrator := dialogue.NewOrchestrator(llm, sinks, logger, m)

	if bus != nil {
		rewarder.OnApplied(hermes.PublishApplied(bus, logger))
		if err := bus.Subscribe(hermes.SubjectRewardRequested, hermes.RewardHandler(rewarder, logger)); err != nil {
			logger.Error("failed to subscribe to reward requests", "error", err)
			os.Exit(1)
		}
	}

	// HTTP API
	deps := api.Deps{
		Orchestrator: orchestrator,
		Selector:     selector,
		Rewarder:     rewarder,
		Store:        scores,
		Logger:       logger,
		APIToken:     cfg.APIToken,
		CaptureLog:   cfg.CaptureLog,
		ScoreBackend: cfg.ScoreBackend,
		Epsilon:      cfg.Epsilon,
	}
	if bus != nil {
		deps.BusConnected = bus.Connected
	}
	srv := api.NewServer(cfg.Port, deps)
	go func() {
		if err := srv.Start(); err != nil {
			logger.Error("HTTP server error", "error", err)
			cancel()
		}
	}()

	if bus != nil {
		if err := bus.Publish(hermes.SubjectRegistered, map[string]any{
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"port":      cfg.Port,
			"backend":   cfg.ScoreBackend,
		}); err != nil {
			logger.Warn("failed to publish registration", "error", err)
		}
	}

	logger.Info("lure ready", "port", cfg.Port, "epsilon", cfg.Epsilon, "capture_sinks", sinks.Len())

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
	case <-ctx.Done():
	}
	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP shutdown", "error", err)
	}
	cancel()
	logger.Info("lure stopped")
}
