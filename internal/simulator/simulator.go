// Package simulator runs the honeypot against the scammer agent in a
// closed loop and reinforces the chosen persona on the first capture.
package simulator

import (
	"context"
	"log/slog"
	"strings"

	"github.com/MikeSquared-Agency/lure/internal/dialogue"
	"github.com/MikeSquared-Agency/lure/internal/extractor"
	"github.com/MikeSquared-Agency/lure/internal/persona"
	"github.com/MikeSquared-Agency/lure/internal/policy"
	"github.com/MikeSquared-Agency/lure/internal/scammer"
)

const DefaultOpening = "Pay customs duty now"

type Selector interface {
	Select(ctx context.Context, message string) policy.Selection
}

type Responder interface {
	Respond(ctx context.Context, history []dialogue.Turn, personaName string, hint dialogue.Hint) dialogue.Record
}

type Rewarder interface {
	Reward(ctx context.Context, category, persona string, success bool) error
}

type Adversary interface {
	Next(ctx context.Context, history []dialogue.Turn, victim string) scammer.Move
}

// Options control one simulated conversation.
type Options struct {
	Turns   int
	Persona string // "" or "auto" selects via the policy
	Opening string
}

// Step is one honeypot turn plus the scammer line that preceded it.
type Step struct {
	Turn     int             `json:"turn"`
	Scammer  string          `json:"scammer"`
	Thought  string          `json:"scammer_thought,omitempty"`
	Record   dialogue.Record `json:"record"`
	Rewarded bool            `json:"rewarded,omitempty"`
}

type Result struct {
	Persona  string           `json:"persona"`
	Category string           `json:"category"`
	Explored bool             `json:"explored"`
	Steps    []Step           `json:"steps"`
	Intel    extractor.Result `json:"intel"`
	Rewarded bool             `json:"rewarded"`
}

type Simulator struct {
	selector     Selector
	orchestrator Responder
	rewarder     Rewarder
	adversary    Adversary
	logger       *slog.Logger
}

func New(sel Selector, orc Responder, rew Rewarder, adv Adversary, logger *slog.Logger) *Simulator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Simulator{
		selector:     sel,
		orchestrator: orc,
		rewarder:     rew,
		adversary:    adv,
		logger:       logger,
	}
}

// Run plays opts.Turns honeypot turns. observe, when non-nil, sees each
// step as it completes. Run stops early only when ctx is done.
func (s *Simulator) Run(ctx context.Context, opts Options, observe func(Step)) (Result, error) {
	if opts.Turns <= 0 {
		opts.Turns = 1
	}
	opening := strings.TrimSpace(opts.Opening)
	if opening == "" {
		opening = DefaultOpening
	}

	sel := s.selector.Select(ctx, opening)
	res := Result{Persona: sel.Persona, Category: sel.Category, Explored: sel.Explored, Intel: extractor.Extract("")}
	if name := strings.TrimSpace(opts.Persona); name != "" && !strings.EqualFold(name, "auto") {
		res.Persona = string(persona.Resolve(name).Name)
		res.Explored = false
	}
	s.logger.Info("simulation started", "persona", res.Persona, "category", res.Category, "turns", opts.Turns)

	history := []dialogue.Turn{{Role: dialogue.RoleScammer, Content: opening}}
	step := Step{Scammer: opening}
	var hint dialogue.Hint

	for turn := 1; turn <= opts.Turns; turn++ {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		step.Turn = turn
		step.Record = s.orchestrator.Respond(ctx, history, res.Persona, hint)
		hint = hint.Update(step.Record)
		res.Intel = res.Intel.Merge(step.Record.Intel())
		history = append(history, dialogue.Turn{Role: dialogue.RoleAgent, Content: step.Record.NextResponse})

		if hint.Captured() && !res.Rewarded {
			if err := s.rewarder.Reward(ctx, res.Category, res.Persona, true); err != nil {
				s.logger.Error("reward failed", "category", res.Category, "persona", res.Persona, "error", err)
			} else {
				res.Rewarded, step.Rewarded = true, true
			}
		}

		res.Steps = append(res.Steps, step)
		if observe != nil {
			observe(step)
		}
		if turn == opts.Turns {
			break
		}

		move := s.adversary.Next(ctx, history, res.Persona)
		history = append(history, dialogue.Turn{Role: dialogue.RoleScammer, Content: move.Message})
		step = Step{Scammer: move.Message, Thought: move.InternalThought}
	}

	s.logger.Info("simulation finished",
		"persona", res.Persona,
		"upi", res.Intel.UPIIDs,
		"bank", res.Intel.BankNumbers,
		"rewarded", res.Rewarded,
	)
	return res, nil
}
