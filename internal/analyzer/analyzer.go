// Package analyzer holds the pure decision logic of the agent: per-item
// sentiment classification, noise and manipulation filtering, and the
// impact-weighted aggregation of classified items. Nothing in this
// package performs I/O; every function is deterministic given the same
// configuration and inputs.
package analyzer

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"MacroAgent/internal/config"
	"MacroAgent/internal/domain"
	"MacroAgent/internal/ports"
)

// capsRunExpr matches runs of 4+ consecutive uppercase letters; more
// than two such runs in one item is treated as shouting.
var capsRunExpr = regexp.MustCompile(`\b[A-Z]{4,}\b`)

const (
	maxPunctuationCount = 3
	extremePolarity     = 0.8
	maxManipKeywords    = 1 // two or more configured keywords flag the item
)

// Analyzer classifies news items and aggregates their sentiment.
type Analyzer struct {
	scorer           ports.TextScorer
	threshold        float64
	minContentLength int
	noise            *keywordMatcher
	manipulation     *keywordMatcher
}

// New builds an analyzer from configuration and a polarity scorer.
func New(cfg config.AnalysisConfig, scorer ports.TextScorer) *Analyzer {
	if scorer == nil {
		scorer = NewVaderScorer()
	}
	return &Analyzer{
		scorer:           scorer,
		threshold:        cfg.SentimentThreshold,
		minContentLength: cfg.MinContentLength,
		noise:            newKeywordMatcher(cfg.NoiseKeywords),
		manipulation:     newKeywordMatcher(cfg.ManipulationKeywords),
	}
}

// ScoreText returns the polarity of text and its sentiment class.
// Empty text is neutral with polarity zero.
func (a *Analyzer) ScoreText(text string) (float64, domain.Sentiment) {
	if text == "" {
		return 0.0, domain.SentimentNeutral
	}
	polarity := a.scorer.Score(text)
	return polarity, a.classify(polarity)
}

func (a *Analyzer) classify(polarity float64) domain.Sentiment {
	switch {
	case polarity > a.threshold:
		return domain.SentimentBullish
	case polarity < -a.threshold:
		return domain.SentimentBearish
	default:
		return domain.SentimentNeutral
	}
}

// Process attaches classifier outputs to an item. The raw text is
// never modified, and processing the same item again yields identical
// outputs. Noise and manipulation are always both evaluated.
func (a *Analyzer) Process(item domain.NewsItem) domain.NewsItem {
	combined := item.Title + " " + item.Content

	score, sentiment := a.ScoreText(combined)
	item.Score = score
	item.Sentiment = sentiment
	item.Noise = a.isNoise(item)
	item.Manipulation = a.isManipulation(item)

	return item
}

// isNoise flags low-substance content: very short bodies, configured
// noise keywords, or excessive punctuation.
func (a *Analyzer) isNoise(item domain.NewsItem) bool {
	if utf8.RuneCountInString(item.Content) < a.minContentLength {
		return true
	}

	combined := strings.ToLower(item.Title + " " + item.Content)

	if a.noise.contains(combined) {
		return true
	}

	if strings.Count(combined, "!") > maxPunctuationCount ||
		strings.Count(combined, "?") > maxPunctuationCount {
		return true
	}

	return false
}

// isManipulation flags emotionally framed content: stacked
// manipulation keywords, shouting in caps, or extreme polarity.
func (a *Analyzer) isManipulation(item domain.NewsItem) bool {
	combined := item.Title + " " + item.Content
	lowered := strings.ToLower(combined)

	if a.manipulation.count(lowered) > maxManipKeywords {
		return true
	}

	if len(capsRunExpr.FindAllString(combined, -1)) > 2 {
		return true
	}

	polarity, _ := a.ScoreText(lowered)
	if polarity > extremePolarity || polarity < -extremePolarity {
		return true
	}

	return false
}
