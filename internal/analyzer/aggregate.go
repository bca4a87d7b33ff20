package analyzer

import (
	"sort"

	"MacroAgent/internal/domain"
)

const (
	maxKeyPoints      = 5
	maxKeyPointLength = 100
)

// Aggregate combines a batch of classified items into one weighted
// sentiment verdict. Noise and manipulation items are excluded; an
// empty filtered batch is neutral with score zero.
func (a *Analyzer) Aggregate(items []domain.NewsItem) (float64, domain.Sentiment) {
	var weightedSum, totalWeight float64
	for _, item := range items {
		if item.Noise || item.Manipulation {
			continue
		}
		weight := item.ImpactLevel.Weight()
		weightedSum += item.Score * weight
		totalWeight += weight
	}

	if totalWeight == 0 {
		return 0.0, domain.SentimentNeutral
	}

	avg := weightedSum / totalWeight
	return avg, a.classify(avg)
}

// KeyPoints extracts headline bullet points from the retained items:
// highest impact first, newest first within the same impact, top five,
// titles truncated to 100 characters.
func (a *Analyzer) KeyPoints(items []domain.NewsItem) []string {
	retained := make([]domain.NewsItem, 0, len(items))
	for _, item := range items {
		if !item.Noise && !item.Manipulation {
			retained = append(retained, item)
		}
	}

	sort.SliceStable(retained, func(i, j int) bool {
		ri, rj := retained[i].ImpactLevel.Rank(), retained[j].ImpactLevel.Rank()
		if ri != rj {
			return ri < rj
		}
		return retained[i].PublishedAt.After(retained[j].PublishedAt)
	})

	if len(retained) > maxKeyPoints {
		retained = retained[:maxKeyPoints]
	}

	points := make([]string, 0, len(retained))
	for _, item := range retained {
		points = append(points, truncate(item.Title, maxKeyPointLength))
	}
	return points
}

// BatchStats counts retained, noise, and manipulation items; the
// builder uses the counts for the briefing summary line.
type BatchStats struct {
	Retained     int
	Noise        int
	Manipulation int
}

// Stats tallies classification flags across a batch.
func Stats(items []domain.NewsItem) BatchStats {
	var stats BatchStats
	for _, item := range items {
		if item.Noise {
			stats.Noise++
		}
		if item.Manipulation {
			stats.Manipulation++
		}
		if !item.Noise && !item.Manipulation {
			stats.Retained++
		}
	}
	return stats
}

// truncate limits text to a number of characters, not bytes, so a
// multi-byte title is never cut mid-character.
func truncate(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + "..."
}
