package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// BriefingType distinguishes scheduled digests from release-triggered alerts.
type BriefingType string

const (
	BriefingDaily      BriefingType = "daily"
	BriefingHighImpact BriefingType = "high_impact"
)

// Briefing is the aggregated output artifact of one analysis cycle.
type Briefing struct {
	ID               string              `json:"id"`
	CreatedAt        time.Time           `json:"created_at"`
	Type             BriefingType        `json:"briefing_type"`
	Title            string              `json:"title"`
	Summary          string              `json:"summary"`
	OverallSentiment Sentiment           `json:"overall_sentiment"`
	KeyPoints        []string            `json:"key_points"`
	Items            []NewsItem          `json:"news_items,omitempty"`
	Indicators       []EconomicIndicator `json:"indicators,omitempty"`
	ContentHash      string              `json:"content_hash"`
	Sent             bool                `json:"sent"`
	SentAt           *time.Time          `json:"sent_at,omitempty"`
}

// ContentFingerprint hashes the material content of a briefing.
// It depends only on the sentiment class and the key points, so two
// briefings with identical content collide regardless of ids or
// timestamps.
func ContentFingerprint(sentiment Sentiment, keyPoints []string) string {
	payload := string(sentiment) + ":" + strings.Join(keyPoints, ":")
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}

// NotificationLogEntry is an append-only audit record of one dispatch
// attempt. Entries are written once and never mutated.
type NotificationLogEntry struct {
	BriefingID   string    `json:"briefing_id"`
	SentAt       time.Time `json:"sent_at"`
	Channel      string    `json:"channel"`
	Success      bool      `json:"success"`
	ErrorMessage string    `json:"error_message,omitempty"`
}
