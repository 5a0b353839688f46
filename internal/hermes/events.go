package hermes

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/MikeSquared-Agency/lure/internal/capture"
	"github.com/MikeSquared-Agency/lure/internal/policy"
)

const (
	// SubjectCaptured carries a capture.Event whenever a scammer turn yields identifiers.
	SubjectCaptured = "swarm.lure.intel.captured"
	// SubjectRewardApplied carries a policy.Applied after the affinity table changes.
	SubjectRewardApplied = "swarm.lure.reward.applied"
	// SubjectRewardRequested is consumed: external callers confirm a capture here.
	SubjectRewardRequested = "swarm.lure.reward.requested"
	// SubjectRegistered announces the service on startup.
	SubjectRegistered = "swarm.agent.lure.registered"
)

// RewardRequest asks lure to reinforce the persona used in a conversation.
type RewardRequest struct {
	ConversationID string `json:"conversation_id,omitempty"`
	Category       string `json:"category"`
	Persona        string `json:"persona"`
	Success        bool   `json:"success"`
}

// Rewarder is the subset of policy.Rewarder the subscription needs.
type Rewarder interface {
	Reward(ctx context.Context, category, persona string, success bool) error
}

// CaptureSink publishes capture events to SubjectCaptured.
type CaptureSink struct {
	pub Publisher
}

func NewCaptureSink(pub Publisher) *CaptureSink {
	return &CaptureSink{pub: pub}
}

func (s *CaptureSink) Capture(_ context.Context, ev capture.Event) error {
	return s.pub.Publish(SubjectCaptured, ev)
}

// PublishApplied returns a hook for policy.Rewarder.OnApplied that
// announces each reward on SubjectRewardApplied.
func PublishApplied(pub Publisher, logger *slog.Logger) func(context.Context, policy.Applied) {
	return func(_ context.Context, a policy.Applied) {
		if err := pub.Publish(SubjectRewardApplied, a); err != nil {
			logger.Warn("failed to publish reward", "category", a.Category, "persona", a.Persona, "error", err)
		}
	}
}

// ParseRewardRequest decodes a SubjectRewardRequested payload.
func ParseRewardRequest(data []byte) (RewardRequest, error) {
	var req RewardRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return RewardRequest{}, fmt.Errorf("parse reward request: %w", err)
	}
	if req.Persona == "" {
		return RewardRequest{}, fmt.Errorf("parse reward request: persona is required")
	}
	return req, nil
}

// RewardHandler adapts r to a Subscribe handler for SubjectRewardRequested.
func RewardHandler(r Rewarder, logger *slog.Logger) func(subject string, data []byte) {
	return func(subject string, data []byte) {
		req, err := ParseRewardRequest(data)
		if err != nil {
			logger.Warn("dropping reward request", "subject", subject, "error", err)
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := r.Reward(ctx, req.Category, req.Persona, req.Success); err != nil {
			logger.Error("reward request failed",
				"conversation_id", req.ConversationID,
				"category", req.Category,
				"persona", req.Persona,
				"error", err,
			)
		}
	}
}
