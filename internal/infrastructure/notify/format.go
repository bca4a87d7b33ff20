// Package notify delivers briefings through outbound channels:
// Discord/Slack/generic webhooks and SMTP email.
package notify

import (
	"fmt"
	"strings"

	"MacroAgent/internal/domain"
)

const timestampLayout = "2006-01-02 15:04 UTC"

// FormatBriefing renders the shared plain-text representation used by
// the email body and available to any channel without a richer format.
func FormatBriefing(briefing domain.Briefing) string {
	lines := []string{
		"# " + briefing.Title,
		"",
		fmt.Sprintf("**Sentiment: %s**", strings.ToUpper(string(briefing.OverallSentiment))),
		"",
		briefing.Summary,
		"",
		"## Key Points",
	}

	for _, point := range briefing.KeyPoints {
		lines = append(lines, "• "+point)
	}

	if len(briefing.Indicators) > 0 {
		lines = append(lines, "", "## Upcoming High-Impact Releases")
		for _, indicator := range briefing.Indicators {
			lines = append(lines, fmt.Sprintf("• **%s %s** - %s",
				indicator.Country, indicator.Name,
				indicator.ReleaseTime.UTC().Format(timestampLayout)))
			if indicator.ForecastValue != "" {
				lines = append(lines, "  Forecast: "+indicator.ForecastValue)
			}
			if indicator.PreviousValue != "" {
				lines = append(lines, "  Previous: "+indicator.PreviousValue)
			}
		}
	}

	lines = append(lines, "",
		fmt.Sprintf("_Generated: %s_", briefing.CreatedAt.UTC().Format(timestampLayout)))

	return strings.Join(lines, "\n")
}

func sentimentEmoji(sentiment domain.Sentiment) string {
	switch sentiment {
	case domain.SentimentBullish:
		return "🟢"
	case domain.SentimentBearish:
		return "🔴"
	default:
		return "⚪"
	}
}

func sentimentColor(sentiment domain.Sentiment) int {
	switch sentiment {
	case domain.SentimentBullish:
		return 0x22C55E
	case domain.SentimentBearish:
		return 0xEF4444
	default:
		return 0x6B7280
	}
}

func bulletList(points []string, limit int) string {
	if len(points) > limit {
		points = points[:limit]
	}
	bullets := make([]string, 0, len(points))
	for _, point := range points {
		bullets = append(bullets, "• "+point)
	}
	return strings.Join(bullets, "\n")
}
