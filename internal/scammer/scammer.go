// Package scammer plays the adversary in closed-loop simulations. When the
// victim sounds ready to pay it leaks a fixed set of payment details so the
// extraction path is exercised on every run.
package scammer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/MikeSquared-Agency/lure/internal/dialogue"
	"github.com/MikeSquared-Agency/lure/internal/oracle"
)

const (
	LeakUPI  = "boss@scam"
	LeakBank = "8822334455"

	leakMessage = "Okay, listen carefully. Send the money immediately to UPI: " + LeakUPI +
		" or Bank Account: " + LeakBank + " (IFSC: SCAM001). Send me the screenshot once done."
	fallbackMessage = "Pay the duty immediately to avoid arrest."

	maxTokens = 200
)

// Triggers are the words in a victim's reply that make the scammer hand
// over payment details.
var Triggers = []string{"upi", "account", "pay", "send", "details", "number", "how", "amount"}

// Threats are canned opening lines.
var Threats = []string{
	"Pay customs duty now",
	"Netflix: Payment Declined. Update now.",
	"Customs: Package held. Pay duty.",
	"CBI: Warrant issued. Pay fine.",
}

// Move is one scammer turn.
type Move struct {
	InternalThought string `json:"internal_thought"`
	Confidence      int    `json:"scammer_confidence"`
	Message         string `json:"dialogue_message"`
}

type Agent struct {
	oracle oracle.Oracle
	logger *slog.Logger
}

func New(o oracle.Oracle, logger *slog.Logger) *Agent {
	if logger == nil {
		logger = slog.Default()
	}
	return &Agent{oracle: o, logger: logger}
}

// Triggered reports whether text contains any trigger word.
func Triggered(text string) bool {
	lower := strings.ToLower(text)
	for _, t := range Triggers {
		if strings.Contains(lower, t) {
			return true
		}
	}
	return false
}

// Next produces the scammer's reply to the latest victim turn in history.
func (a *Agent) Next(ctx context.Context, history []dialogue.Turn, victim string) Move {
	if n := len(history); n > 0 && history[n-1].Role == dialogue.RoleAgent && Triggered(history[n-1].Content) {
		return Move{
			InternalThought: "The victim is hooked! Giving them the details now.",
			Confidence:      100,
			Message:         leakMessage,
		}
	}

	move, err := a.generate(ctx, history, victim)
	if err != nil {
		a.logger.Warn("scammer oracle failed, using fallback line", "error", err)
		return Move{InternalThought: "Fallback", Confidence: 80, Message: fallbackMessage}
	}
	return move
}

func (a *Agent) generate(ctx context.Context, history []dialogue.Turn, victim string) (move Move, err error) {
	if a.oracle == nil {
		return Move{}, fmt.Errorf("no oracle configured")
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("oracle panic: %v", r)
		}
	}()

	raw, err := a.oracle.Complete(ctx, systemPrompt(victim), messages(history), maxTokens)
	if err != nil {
		return Move{}, err
	}
	if err := oracle.DecodeObject(raw, &move); err == nil && strings.TrimSpace(move.Message) != "" {
		return move, nil
	}
	if text := strings.TrimSpace(raw); text != "" {
		return Move{InternalThought: "Unstructured", Confidence: 80, Message: text}, nil
	}
	return Move{}, oracle.ErrEmpty
}

func systemPrompt(victim string) string {
	return fmt.Sprintf(`ROLE: You are 'Vikram', a scammer.
VICTIM: %s.
GOAL: Pressure them to pay.
INSTRUCTIONS:
1. Threaten them with legal action or loss of service.
2. Keep your messages short and urgent.

Respond with ONLY a JSON object:
{"internal_thought": "<tactical reasoning>", "scammer_confidence": <0-100>, "dialogue_message": "<message to the victim>"}`, victim)
}

// messages renders history from the scammer's side: its own lines are the
// assistant's, the victim's are the user's.
func messages(history []dialogue.Turn) []oracle.Message {
	out := make([]oracle.Message, 0, len(history))
	for _, t := range history {
		role := oracle.RoleUser
		if t.Role == dialogue.RoleScammer {
			role = oracle.RoleAssistant
		}
		out = append(out, oracle.Message{Role: role, Content: t.Content})
	}
	return out
}
