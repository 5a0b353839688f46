package dialogue

import (
	"math"
	"strconv"
	"strings"

	"github.com/MikeSquared-Agency/lure/internal/oracle"
)

// draft is the oracle's best-effort object. Every field is optional.
type draft struct {
	IsScam        *bool    `json:"is_scam"`
	Confidence    any      `json:"agent_confidence"`
	Strategy      string   `json:"scammer_strategy"`
	Reasoning     string   `json:"reasoning"`
	UPIIDs        []string `json:"extracted_upi_ids"`
	BankNumbers   []string `json:"extracted_bank_details"`
	PhishingLinks []string `json:"extracted_phishing_links"`
	NextResponse  string   `json:"next_response"`
}

type parseStrategy struct {
	name  string
	parse func(raw string) (draft, bool)
}

// parseChain is tried in order; the first strategy that succeeds wins.
// When all fail the caller falls back to Placeholder.
var parseChain = []parseStrategy{
	{name: "json", parse: decodeWith(oracle.DecodeWhole)},
	{name: "embedded", parse: decodeWith(oracle.DecodeEmbedded)},
	{name: "raw", parse: rawText},
}

func decodeWith(decode func(string, any) error) func(string) (draft, bool) {
	return func(raw string) (draft, bool) {
		var d draft
		if err := decode(raw, &d); err != nil {
			return draft{}, false
		}
		return d, true
	}
}

func rawText(raw string) (draft, bool) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return draft{}, false
	}
	return draft{NextResponse: text}, true
}

func parseOutput(raw string) (draft, string, bool) {
	for _, s := range parseChain {
		if d, ok := s.parse(raw); ok {
			return d, s.name, true
		}
	}
	return draft{}, "placeholder", false
}

// toRecord fills gaps in d with the engaged-persona defaults.
func (d draft) toRecord() Record {
	r := Record{
		IsScam:       true,
		Confidence:   defaultConfidence,
		Strategy:     defaultStrategy,
		Reasoning:    defaultReasoning,
		NextResponse: strings.TrimSpace(d.NextResponse),
	}
	if d.IsScam != nil {
		r.IsScam = *d.IsScam
	}
	if c, ok := confidence(d.Confidence); ok {
		r.Confidence = c
	}
	if s := strings.TrimSpace(d.Strategy); s != "" {
		r.Strategy = s
	}
	if s := strings.TrimSpace(d.Reasoning); s != "" {
		r.Reasoning = s
	}
	if r.NextResponse == "" {
		r.NextResponse = stallLine
	}
	return r
}

// confidence accepts numbers or numeric strings and clamps to [0,100].
func confidence(v any) (int, bool) {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case string:
		n, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(x), "%"), 64)
		if err != nil {
			return 0, false
		}
		f = n
	default:
		return 0, false
	}
	if math.IsNaN(f) {
		return 0, false
	}
	return int(math.Round(math.Max(0, math.Min(100, f)))), true
}
