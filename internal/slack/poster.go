package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/MikeSquared-Agency/lure/internal/capture"
)

const defaultPostMessageURL = "https://slack.com/api/chat.postMessage"

// Poster sends capture alerts to a Slack channel. It satisfies capture.Sink.
type Poster struct {
	token   string
	channel string
	client  *http.Client
	logger  *slog.Logger
	apiURL  string
}

func NewPoster(token, channel string, logger *slog.Logger) *Poster {
	if logger == nil {
		logger = slog.Default()
	}
	return &Poster{
		token:   token,
		channel: channel,
		client:  &http.Client{Timeout: 10 * time.Second},
		apiURL:  defaultPostMessageURL,
		logger:  logger,
	}
}

// Capture posts an alert for ev.
func (p *Poster) Capture(ctx context.Context, ev capture.Event) error {
	_, err := p.PostCapture(ctx, ev)
	return err
}

// PostCapture posts the capture alert and returns the message timestamp.
func (p *Poster) PostCapture(ctx context.Context, ev capture.Event) (string, error) {
	text := formatCaptureMessage(ev)

	ts, err := p.post(ctx, map[string]any{
		"channel": p.channel,
		"text":    text,
		"blocks": []map[string]any{
			{
				"type": "section",
				"text": map[string]any{
					"type": "mrkdwn",
					"text": text,
				},
			},
			{
				"type": "context",
				"elements": []map[string]any{
					{
						"type": "mrkdwn",
						"text": fmt.Sprintf("event `%s` | %s", ev.ID, ev.Timestamp.Format(time.RFC3339)),
					},
				},
			},
		},
	})
	if err != nil {
		return "", err
	}

	p.logger.Info("posted capture alert to slack", "ts", ts, "event_id", ev.ID)
	return ts, nil
}

func (p *Poster) post(ctx context.Context, payload map[string]any) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal slack payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.apiURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Authorization", "Bearer "+p.token)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("slack post: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	var slackResp struct {
		OK    bool   `json:"ok"`
		TS    string `json:"ts"`
		Error string `json:"error,omitempty"`
	}
	if err := json.Unmarshal(respBody, &slackResp); err != nil {
		return "", fmt.Errorf("parse slack response: %w", err)
	}
	if !slackResp.OK {
		return "", fmt.Errorf("slack error: %s", slackResp.Error)
	}
	return slackResp.TS, nil
}

func formatCaptureMessage(ev capture.Event) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, ":rotating_light: *Scammer intel captured* by _%s_\n", ev.Persona)
	if ev.ConversationID != "" {
		fmt.Fprintf(&sb, "*Conversation:* %s\n", ev.ConversationID)
	}
	sb.WriteString("\n")

	writeList(&sb, "UPI IDs", ev.ExtractedUPI)
	writeList(&sb, "Bank accounts", ev.ExtractedBank)
	writeList(&sb, "Links", ev.ExtractedLinks)

	fmt.Fprintf(&sb, "\n> %s", ev.ScamText)
	return sb.String()
}

func writeList(sb *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(sb, "*%s (%d):*\n", title, len(items))
	for _, it := range items {
		fmt.Fprintf(sb, "• `%s`\n", it)
	}
}
