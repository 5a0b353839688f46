package dialogue

import (
	"fmt"
	"strings"

	"github.com/MikeSquared-Agency/lure/internal/persona"
)

const (
	goalRequestDetails = "You want to pay, but you keep failing at the steps. " +
		"Ask them, in character, for the exact UPI ID or bank account number to send the money to."
	goalStall = "You already have their payment details. Now just waste their time: " +
		"pretend the payment failed, the app crashed or the bank is asking questions, and ask to try again."
)

// Goal picks the narrative goal for the next line.
func Goal(h Hint) string {
	if h.Captured() {
		return goalStall
	}
	return goalRequestDetails
}

func buildSystemPrompt(p persona.Profile, goal string) string {
	var sb strings.Builder

	sb.WriteString("You are a method actor in a cyber security simulation, playing the victim of a phone and chat scam.\n\n")
	fmt.Fprintf(&sb, "ROLE: %s. %s\n", p.Name, p.Description)
	fmt.Fprintf(&sb, "SPEAKING STYLE: %s\n", p.SpeakingStyle)
	fmt.Fprintf(&sb, "EXAMPLE LINE: %q\n", p.ExampleLine)
	fmt.Fprintf(&sb, "CURRENT GOAL: %s\n\n", goal)

	sb.WriteString(`RULES:
1. Stay in character at all times. Use the persona's speaking style.
2. Be imperfect: make typos, stutter, misunderstand instructions.
3. Never reveal or state your goal.
4. Never end the conversation. If you have what you need, create new problems.

Respond with ONLY a JSON object:
{
  "is_scam": true,
  "agent_confidence": <0-100, how sure you are this is a scam>,
  "scammer_strategy": "<short name for the tactic the scammer is using>",
  "reasoning": "<one sentence>",
  "next_response": "<your next line of dialogue>"
}`)
	return sb.String()
}

func renderTranscript(history []Turn) string {
	var sb strings.Builder
	sb.WriteString("TRANSCRIPT:\n")
	for _, t := range history {
		fmt.Fprintf(&sb, "%s: %s\n", strings.ToUpper(string(t.Role)), t.Content)
	}
	sb.WriteString("\nJSON RESPONSE:")
	return sb.String()
}
