package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/MikeSquared-Agency/lure/internal/affinity"
	"github.com/MikeSquared-Agency/lure/internal/app"
	"github.com/MikeSquared-Agency/lure/internal/capture"
	"github.com/MikeSquared-Agency/lure/internal/classifier"
	"github.com/MikeSquared-Agency/lure/internal/config"
	"github.com/MikeSquared-Agency/lure/internal/dialogue"
	"github.com/MikeSquared-Agency/lure/internal/metrics"
	"github.com/MikeSquared-Agency/lure/internal/policy"
	"github.com/MikeSquared-Agency/lure/internal/scammer"
	"github.com/MikeSquared-Agency/lure/internal/simulator"
)

var (
	turnsFlag   int
	personaFlag string
	openingFlag string
	seedFlag    uint64
	jsonFlag    bool
)

var rootCmd = &cobra.Command{
	Use:   "lure-sim",
	Short: "Run the honeypot against a simulated scammer",
	Long: "Plays the honeypot persona against the scripted scammer agent, " +
		"extracts payment identifiers each turn and reinforces the persona on the first capture.",
	Args: cobra.NoArgs,
	RunE: runSim,
}

func init() {
	f := rootCmd.Flags()
	f.IntVarP(&turnsFlag, "turns", "n", 6, "Number of honeypot turns")
	f.StringVarP(&personaFlag, "persona", "p", "auto", "Persona name, or auto to let the policy choose")
	f.StringVarP(&openingFlag, "opening", "o", simulator.DefaultOpening, "Scammer opening line, or random to pick a canned threat")
	f.Uint64Var(&seedFlag, "seed", 0, "Seed for persona exploration and random openings (0 = unseeded)")
	f.BoolVar(&jsonFlag, "json", false, "Emit one JSON record per turn instead of a transcript")
}

func runSim(cmd *cobra.Command, _ []string) error {
	if err := config.LoadDotEnv(); err != nil {
		return fmt.Errorf("read .env: %w", err)
	}
	cfg := config.Load()

	// Logs go to stderr so stdout stays a clean transcript or JSONL stream.
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	if strings.EqualFold(cfg.LogLevel, "debug") {
		logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	ctx := cmd.Context()

	llm, err := app.NewOracle(cfg, logger)
	if err != nil {
		return err
	}
	scores, closeStore, err := app.OpenStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	var rng affinity.Rand
	if seedFlag != 0 {
		rng = rand.New(rand.NewPCG(seedFlag, seedFlag^0x9e3779b97f4a7c15))
	}

	opening := openingFlag
	if strings.EqualFold(opening, "random") {
		if rng != nil {
			opening = scammer.Threats[rng.IntN(len(scammer.Threats))]
		} else {
			opening = scammer.Threats[rand.IntN(len(scammer.Threats))]
		}
	}

	m := metrics.New(prometheus.NewRegistry())
	sim := simulator.New(
		policy.NewSelector(classifier.New(llm, logger, m), scores, cfg.Epsilon, rng, logger, m),
		dialogue.NewOrchestrator(llm, capture.NewLog(cfg.CaptureLog), logger, m),
		policy.NewRewarder(scores, logger, m),
		scammer.New(app.NewScammerOracle(cfg), logger),
		logger,
	)

	out := cmd.OutOrStdout()
	var observe func(simulator.Step)
	if jsonFlag {
		enc := json.NewEncoder(out)
		observe = func(s simulator.Step) { _ = enc.Encode(s) }
	} else {
		observe = func(s simulator.Step) { printStep(out, s) }
	}

	res, err := sim.Run(ctx, simulator.Options{
		Turns:   turnsFlag,
		Persona: personaFlag,
		Opening: opening,
	}, observe)
	if err != nil {
		return err
	}

	if !jsonFlag {
		printSummary(out, res)
	}
	return nil
}

func printStep(w io.Writer, s simulator.Step) {
	fmt.Fprintf(w, "\n[turn %d]\n", s.Turn)
	fmt.Fprintf(w, "  SCAMMER: %s\n", s.Scammer)
	fmt.Fprintf(w, "  AGENT:   %s\n", s.Record.NextResponse)
	if len(s.Record.UPIIDs) > 0 || len(s.Record.BankNumbers) > 0 {
		fmt.Fprintf(w, "  CAPTURED upi=%v bank=%v\n", s.Record.UPIIDs, s.Record.BankNumbers)
	}
	if s.Rewarded {
		fmt.Fprintln(w, "  REWARD applied")
	}
}

func printSummary(w io.Writer, res simulator.Result) {
	mode := "exploit"
	if res.Explored {
		mode = "explore"
	}
	fmt.Fprintf(w, "\npersona=%s category=%s mode=%s turns=%d\n", res.Persona, res.Category, mode, len(res.Steps))
	fmt.Fprintf(w, "upi=%v bank=%v links=%v rewarded=%v\n",
		res.Intel.UPIIDs, res.Intel.BankNumbers, res.Intel.PhishingLinks, res.Rewarded)
}
