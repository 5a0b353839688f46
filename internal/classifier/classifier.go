// Package classifier maps a scammer's opening message to a scam category.
package classifier

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/MikeSquared-Agency/lure/internal/affinity"
	"github.com/MikeSquared-Agency/lure/internal/metrics"
	"github.com/MikeSquared-Agency/lure/internal/oracle"
)

const maxTokens = 64

var systemPrompt = fmt.Sprintf(`You triage scam messages. Pick exactly one category for the message:
- %s: fake tech support, virus alerts, remote access, refunds for software.
- %s: banking, KYC, customs duty, tax, loans, investment, payment demands.
- %s: prizes, lottery wins, gifts, lucky draws.
- %s: anything else.

Respond with ONLY a JSON object: {"category": "<one of the labels above>"}`,
	affinity.TechSupport, affinity.Financial, affinity.Lottery, affinity.General)

type Classifier struct {
	oracle  oracle.Oracle
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func New(o oracle.Oracle, logger *slog.Logger, m *metrics.Metrics) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Classifier{oracle: o, logger: logger, metrics: m}
}

// Classify returns one of affinity.Categories(). Any oracle failure or
// unrecognised answer yields affinity.General.
func (c *Classifier) Classify(ctx context.Context, message string) (category string) {
	category = affinity.General
	if c.oracle == nil {
		return category
	}
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("classifier panic", "panic", r)
			c.metrics.ObserveOracleFailure("classifier")
			category = affinity.General
		}
	}()

	raw, err := c.oracle.Complete(ctx, systemPrompt, []oracle.Message{
		{Role: oracle.RoleUser, Content: message},
	}, maxTokens)
	if err != nil {
		c.logger.Warn("classify failed, using General", "error", err)
		c.metrics.ObserveOracleFailure("classifier")
		return category
	}

	var out struct {
		Category string `json:"category"`
	}
	if err := oracle.DecodeObject(raw, &out); err == nil {
		if label, ok := Normalize(out.Category); ok {
			return label
		}
	}
	if label, ok := Normalize(raw); ok {
		return label
	}

	c.logger.Debug("unrecognised category, using General", "raw", raw)
	return category
}

// Normalize matches label against the known categories, ignoring case,
// spaces, hyphens and underscores. Failing an exact match, the first
// category named inside label wins.
func Normalize(label string) (string, bool) {
	k := key(label)
	if k == "" {
		return "", false
	}
	cats := affinity.Categories()
	for _, cat := range cats {
		if key(cat) == k {
			return cat, true
		}
	}
	for _, cat := range cats {
		if strings.Contains(k, key(cat)) {
			return cat, true
		}
	}
	return "", false
}

func key(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '_', '\t', '\n', '\r':
			return -1
		}
		return r
	}, strings.ToLower(s))
}
