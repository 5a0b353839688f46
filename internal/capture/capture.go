// Package capture records the moment payment identifiers are pulled out of
// a scammer turn. Events fan out to any number of sinks; a failing sink
// never affects the dialogue that produced the event.
package capture

import (
	"context"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/lure/internal/extractor"
)

const scamTextLimit = 100

// Event is one capture snapshot, written as a single JSON line.
type Event struct {
	ID             uuid.UUID `json:"id"`
	Timestamp      time.Time `json:"timestamp"`
	ConversationID string    `json:"conversation_id,omitempty"`
	Persona        string    `json:"persona"`
	ScamText       string    `json:"scam_text"`
	ExtractedUPI   []string  `json:"extracted_upi"`
	ExtractedBank  []string  `json:"extracted_bank"`
	ExtractedLinks []string  `json:"extracted_links"`
}

// NewEvent builds an event from the scammer turn that produced intel.
func NewEvent(conversationID, persona, scamText string, intel extractor.Result) Event {
	return Event{
		ID:             uuid.New(),
		Timestamp:      time.Now().UTC(),
		ConversationID: conversationID,
		Persona:        persona,
		ScamText:       Truncate(scamText),
		ExtractedUPI:   extractor.Union(intel.UPIIDs),
		ExtractedBank:  extractor.Union(intel.BankNumbers),
		ExtractedLinks: extractor.Union(intel.PhishingLinks),
	}
}

// Truncate keeps the first 100 characters of s and marks the cut with "...".
func Truncate(s string) string {
	if utf8.RuneCountInString(s) <= scamTextLimit {
		return s + "..."
	}
	runes := []rune(s)
	return string(runes[:scamTextLimit]) + "..."
}

// Sink receives capture events.
type Sink interface {
	Capture(ctx context.Context, ev Event) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, ev Event) error

func (f SinkFunc) Capture(ctx context.Context, ev Event) error {
	return f(ctx, ev)
}

// Multi delivers each event to every sink in order. Errors are logged and
// swallowed.
type Multi struct {
	sinks  []Sink
	logger *slog.Logger
}

func NewMulti(logger *slog.Logger, sinks ...Sink) *Multi {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Multi{logger: logger}
	for _, s := range sinks {
		if s != nil {
			m.sinks = append(m.sinks, s)
		}
	}
	return m
}

func (m *Multi) Add(s Sink) {
	if s != nil {
		m.sinks = append(m.sinks, s)
	}
}

func (m *Multi) Len() int {
	return len(m.sinks)
}

func (m *Multi) Capture(ctx context.Context, ev Event) error {
	for _, s := range m.sinks {
		if err := s.Capture(ctx, ev); err != nil {
			m.logger.Warn("capture sink failed", "event_id", ev.ID, "error", err)
		}
	}
	return nil
}
