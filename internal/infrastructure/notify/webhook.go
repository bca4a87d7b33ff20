package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"MacroAgent/internal/domain"
	"MacroAgent/internal/ports"
)

// WebhookKind selects the payload shape for the target service.
type WebhookKind string

const (
	WebhookDiscord WebhookKind = "discord"
	WebhookSlack   WebhookKind = "slack"
	WebhookGeneric WebhookKind = "generic"
)

// DetectWebhookKind infers the payload format from the webhook URL.
func DetectWebhookKind(webhookURL string) WebhookKind {
	switch {
	case strings.Contains(webhookURL, "discord.com/api/webhooks"),
		strings.Contains(webhookURL, "discordapp.com/api/webhooks"):
		return WebhookDiscord
	case strings.Contains(webhookURL, "hooks.slack.com"):
		return WebhookSlack
	default:
		return WebhookGeneric
	}
}

// WebhookNotifier POSTs briefings to a Discord, Slack, or generic
// JSON webhook.
type WebhookNotifier struct {
	url    string
	kind   WebhookKind
	client *http.Client
	logger *slog.Logger
}

var _ ports.Notifier = (*WebhookNotifier)(nil)

// NewWebhookNotifier infers the payload kind from the URL; client
// defaults to a 30 second timeout.
func NewWebhookNotifier(webhookURL string, client *http.Client, logger *slog.Logger) *WebhookNotifier {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &WebhookNotifier{
		url:    webhookURL,
		kind:   DetectWebhookKind(webhookURL),
		client: client,
		logger: logger,
	}
}

func (n *WebhookNotifier) ChannelName() string {
	return "webhook:" + string(n.kind)
}

// Send posts the briefing; 2xx responses count as delivered.
func (n *WebhookNotifier) Send(ctx context.Context, briefing domain.Briefing) error {
	var payload any
	switch n.kind {
	case WebhookDiscord:
		payload = discordPayload(briefing)
	case WebhookSlack:
		payload = slackPayload(briefing)
	default:
		payload = genericPayload(briefing)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook returned %s", resp.Status)
	}
	return nil
}

func (n *WebhookNotifier) Close() error {
	n.client.CloseIdleConnections()
	return nil
}

type discordField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type discordEmbed struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Color       int            `json:"color"`
	Fields      []discordField `json:"fields"`
	Footer      struct {
		Text string `json:"text"`
	} `json:"footer"`
}

func discordPayload(briefing domain.Briefing) map[string]any {
	keyPoints := bulletList(briefing.KeyPoints, 5)
	if keyPoints == "" {
		keyPoints = "No key points"
	}

	fields := []discordField{
		{
			Name: "📊 Overall Sentiment",
			Value: fmt.Sprintf("%s **%s**",
				sentimentEmoji(briefing.OverallSentiment),
				strings.ToUpper(string(briefing.OverallSentiment))),
			Inline: true,
		},
		{Name: "📝 Key Points", Value: keyPoints},
	}

	if len(briefing.Indicators) > 0 {
		fields = append(fields, discordField{
			Name:  "📅 Upcoming High-Impact Releases",
			Value: releaseLines(briefing.Indicators, "**"),
		})
	}

	embed := discordEmbed{
		Title:       briefing.Title,
		Description: briefing.Summary,
		Color:       sentimentColor(briefing.OverallSentiment),
		Fields:      fields,
	}
	embed.Footer.Text = "Generated at " + briefing.CreatedAt.UTC().Format(timestampLayout)

	return map[string]any{"embeds": []discordEmbed{embed}}
}

func slackPayload(briefing domain.Briefing) map[string]any {
	blocks := []map[string]any{
		{
			"type": "header",
			"text": map[string]any{"type": "plain_text", "text": briefing.Title, "emoji": true},
		},
		{
			"type": "section",
			"text": map[string]any{"type": "mrkdwn", "text": briefing.Summary},
		},
		{
			"type": "section",
			"text": map[string]any{
				"type": "mrkdwn",
				"text": fmt.Sprintf("*Sentiment:* %s %s",
					sentimentEmoji(briefing.OverallSentiment),
					strings.ToUpper(string(briefing.OverallSentiment))),
			},
		},
		{
			"type": "section",
			"text": map[string]any{
				"type": "mrkdwn",
				"text": "*Key Points:*\n" + bulletList(briefing.KeyPoints, 5),
			},
		},
	}

	if len(briefing.Indicators) > 0 {
		blocks = append(blocks, map[string]any{
			"type": "section",
			"text": map[string]any{
				"type": "mrkdwn",
				"text": "*Upcoming High-Impact Releases:*\n" + releaseLines(briefing.Indicators, "*"),
			},
		})
	}

	blocks = append(blocks, map[string]any{
		"type": "context",
		"elements": []map[string]any{{
			"type": "mrkdwn",
			"text": "Generated at " + briefing.CreatedAt.UTC().Format(timestampLayout),
		}},
	})

	return map[string]any{"blocks": blocks}
}

func genericPayload(briefing domain.Briefing) map[string]any {
	return map[string]any{
		"id":         briefing.ID,
		"title":      briefing.Title,
		"summary":    briefing.Summary,
		"sentiment":  string(briefing.OverallSentiment),
		"key_points": briefing.KeyPoints,
		"indicators": briefing.Indicators,
		"created_at": briefing.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func releaseLines(indicators []domain.EconomicIndicator, bold string) string {
	if len(indicators) > 3 {
		indicators = indicators[:3]
	}
	lines := make([]string, 0, len(indicators))
	for _, indicator := range indicators {
		lines = append(lines, fmt.Sprintf("• %s%s %s%s - %s",
			bold, indicator.Country, indicator.Name, bold,
			indicator.ReleaseTime.UTC().Format("01/02 15:04 UTC")))
	}
	return strings.Join(lines, "\n")
}
