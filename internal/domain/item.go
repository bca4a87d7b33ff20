package domain

import "time"

// Sentiment classifies the market direction implied by a piece of text.
type Sentiment string

const (
	SentimentBullish Sentiment = "bullish"
	SentimentBearish Sentiment = "bearish"
	SentimentNeutral Sentiment = "neutral"
)

// ImpactLevel is the coarse severity of a news item or economic release.
type ImpactLevel string

const (
	ImpactLow    ImpactLevel = "low"
	ImpactMedium ImpactLevel = "medium"
	ImpactHigh   ImpactLevel = "high"
)

// Weight returns the aggregation weight for the impact level.
// Unrecognized levels weigh the same as low impact.
func (l ImpactLevel) Weight() float64 {
	switch l {
	case ImpactHigh:
		return 3.0
	case ImpactMedium:
		return 1.5
	default:
		return 1.0
	}
}

// Rank orders impact levels for key-point selection: high first.
func (l ImpactLevel) Rank() int {
	switch l {
	case ImpactHigh:
		return 0
	case ImpactMedium:
		return 1
	default:
		return 2
	}
}

// NewsItem is a single unit of input text fetched from a source.
// Classifier outputs (Score, Sentiment, Noise, Manipulation) are zero
// until the item passes through the analyzer exactly once.
type NewsItem struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Content     string      `json:"content"`
	Source      string      `json:"source"`
	URL         string      `json:"url,omitempty"`
	PublishedAt time.Time   `json:"published_at"`
	ImpactLevel ImpactLevel `json:"impact_level"`

	Score        float64   `json:"raw_sentiment_score"`
	Sentiment    Sentiment `json:"sentiment"`
	Noise        bool      `json:"is_noise"`
	Manipulation bool      `json:"is_manipulation"`
}
