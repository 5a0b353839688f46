// Package dialogue produces the honeypot's next in-character line and the
// intelligence record for one conversation turn.
package dialogue

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/MikeSquared-Agency/lure/internal/capture"
	"github.com/MikeSquared-Agency/lure/internal/extractor"
	"github.com/MikeSquared-Agency/lure/internal/metrics"
	"github.com/MikeSquared-Agency/lure/internal/oracle"
	"github.com/MikeSquared-Agency/lure/internal/persona"
)

const maxTokens = 400

type Orchestrator struct {
	oracle  oracle.Oracle
	sink    capture.Sink
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewOrchestrator wires the oracle and an optional capture sink.
func NewOrchestrator(o oracle.Oracle, sink capture.Sink, logger *slog.Logger, m *metrics.Metrics) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{oracle: o, sink: sink, logger: logger, metrics: m}
}

// Respond answers one turn as personaName. It always returns a complete
// record: oracle failures degrade to a stalling placeholder, and the
// identifiers in the latest scammer turn are extracted regardless.
func (o *Orchestrator) Respond(ctx context.Context, history []Turn, personaName string, hint Hint) (rec Record) {
	start := time.Now()
	p := persona.Resolve(personaName)

	scamText, _ := LastScammerTurn(history)
	intel := extractor.Extract(scamText)

	parse := "placeholder"
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("respond panic, returning placeholder", "panic", r, "persona", p.Name)
			rec = mergeIntel(Placeholder(), intel, scamText)
			parse = "placeholder"
		}
		o.metrics.ObserveTurn(string(p.Name), parse, time.Since(start).Seconds())
	}()

	raw, err := o.generate(ctx, history, p, hint)
	if err != nil {
		o.logger.Warn("oracle failed, stalling", "persona", p.Name, "error", err)
		o.metrics.ObserveOracleFailure("dialogue")
	}

	rec = Placeholder()
	claimed := extractor.Result{}
	if err == nil {
		if d, name, ok := parseOutput(raw); ok {
			rec, parse = d.toRecord(), name
			claimed = extractor.Result{
				UPIIDs:        d.UPIIDs,
				BankNumbers:   d.BankNumbers,
				PhishingLinks: d.PhishingLinks,
			}
		}
	}
	rec = mergeIntel(rec, intel.Merge(claimed), scamText)

	// Only identifiers not already leaked earlier in the conversation are logged.
	if fresh := intel.Without(earlierIntel(history)); !fresh.Empty() {
		o.emit(ctx, p, scamText, fresh)
	}
	return rec
}

func (o *Orchestrator) generate(ctx context.Context, history []Turn, p persona.Profile, hint Hint) (out string, err error) {
	if o.oracle == nil {
		return "", fmt.Errorf("no oracle configured")
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("oracle panic: %v", r)
		}
	}()

	system := buildSystemPrompt(p, Goal(hint))
	return o.oracle.Complete(ctx, system, []oracle.Message{
		{Role: oracle.RoleUser, Content: renderTranscript(history)},
	}, maxTokens)
}

// mergeIntel puts identifiers into rec. Only values that literally occur
// in the scammer's text survive, so the extractor has the final say over
// anything the oracle claims.
func mergeIntel(rec Record, intel extractor.Result, scamText string) Record {
	rec.UPIIDs = grounded(intel.UPIIDs, scamText)
	rec.BankNumbers = grounded(intel.BankNumbers, scamText)
	rec.PhishingLinks = grounded(intel.PhishingLinks, scamText)
	return rec
}

func grounded(ids []string, text string) []string {
	out := []string{}
	for _, id := range extractor.Union(ids) {
		if id != "" && strings.Contains(text, id) {
			out = append(out, id)
		}
	}
	return out
}

func (o *Orchestrator) emit(ctx context.Context, p persona.Profile, scamText string, intel extractor.Result) {
	o.metrics.ObserveCapture("upi", len(intel.UPIIDs))
	o.metrics.ObserveCapture("bank", len(intel.BankNumbers))
	o.metrics.ObserveCapture("link", len(intel.PhishingLinks))
	o.logger.Info("intel captured",
		"persona", p.Name,
		"upi", intel.UPIIDs,
		"bank", intel.BankNumbers,
		"links", intel.PhishingLinks,
	)

	if o.sink == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("capture sink panic", "panic", r)
		}
	}()
	ev := capture.NewEvent(conversationID(ctx), string(p.Name), scamText, intel)
	if err := o.sink.Capture(ctx, ev); err != nil {
		o.logger.Warn("capture sink failed", "event_id", ev.ID, "error", err)
	}
}
