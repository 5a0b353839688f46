package dialogue

import (
	"context"
	"strings"

	"github.com/MikeSquared-Agency/lure/internal/extractor"
)

// Role is the speaker of a conversation turn.
type Role string

const (
	RoleScammer Role = "scammer"
	RoleAgent   Role = "agent"
)

// ParseRole maps the role names clients send to the two speakers.
// Anything that is not recognisably the scammer is the agent.
func ParseRole(s string) Role {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "scammer", "user":
		return RoleScammer
	default:
		return RoleAgent
	}
}

// Turn is one message in a conversation.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// LastScammerTurn returns the content of the most recent scammer turn.
func LastScammerTurn(history []Turn) (string, bool) {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == RoleScammer {
			return history[i].Content, true
		}
	}
	return "", false
}

// earlierIntel extracts from every scammer turn before the most recent one.
func earlierIntel(history []Turn) extractor.Result {
	last := -1
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == RoleScammer {
			last = i
			break
		}
	}
	seen := extractor.Result{}
	for i := 0; i < last; i++ {
		if history[i].Role == RoleScammer {
			seen = seen.Merge(extractor.Extract(history[i].Content))
		}
	}
	return seen
}

// Hint tells the orchestrator which identifiers the conversation has
// already yielded.
type Hint struct {
	HasUPI  bool `json:"has_upi"`
	HasBank bool `json:"has_bank"`
}

// Captured reports whether any payment identifier is known.
func (h Hint) Captured() bool {
	return h.HasUPI || h.HasBank
}

// Update folds a turn's record into the hint.
func (h Hint) Update(r Record) Hint {
	return Hint{
		HasUPI:  h.HasUPI || len(r.UPIIDs) > 0,
		HasBank: h.HasBank || len(r.BankNumbers) > 0,
	}
}

// HintFromHistory derives a hint by extracting from every scammer turn.
func HintFromHistory(history []Turn) Hint {
	var h Hint
	for _, t := range history {
		if t.Role != RoleScammer {
			continue
		}
		res := extractor.Extract(t.Content)
		h.HasUPI = h.HasUPI || len(res.UPIIDs) > 0
		h.HasBank = h.HasBank || len(res.BankNumbers) > 0
	}
	return h
}

// Record is the per-turn response: the agent's next line plus the
// intelligence gathered so far from the latest scammer turn.
type Record struct {
	IsScam        bool     `json:"is_scam"`
	Confidence    int      `json:"agent_confidence"`
	Strategy      string   `json:"scammer_strategy"`
	Reasoning     string   `json:"reasoning"`
	UPIIDs        []string `json:"extracted_upi_ids"`
	BankNumbers   []string `json:"extracted_bank_details"`
	PhishingLinks []string `json:"extracted_phishing_links"`
	NextResponse  string   `json:"next_response"`
}

// Intel returns the record's identifier sets.
func (r Record) Intel() extractor.Result {
	return extractor.Result{
		UPIIDs:        r.UPIIDs,
		BankNumbers:   r.BankNumbers,
		PhishingLinks: r.PhishingLinks,
	}
}

const (
	stallLine         = "I am confusing... please repeat."
	placeholderReason = "Response generation unavailable; stalling in character."
	defaultStrategy   = "Active Engagement"
	defaultReasoning  = "Persona Active"
	unknownStrategy   = "Unknown"
	defaultConfidence = 100
)

// Placeholder is the record returned when nothing usable came back from
// the oracle.
func Placeholder() Record {
	return Record{
		IsScam:        true,
		Confidence:    0,
		Strategy:      unknownStrategy,
		Reasoning:     placeholderReason,
		UPIIDs:        []string{},
		BankNumbers:   []string{},
		PhishingLinks: []string{},
		NextResponse:  stallLine,
	}
}

type conversationKey struct{}

// WithConversationID tags ctx so capture events can be correlated.
func WithConversationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, conversationKey{}, id)
}

func conversationID(ctx context.Context) string {
	id, _ := ctx.Value(conversationKey{}).(string)
	return id
}
