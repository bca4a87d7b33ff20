package analyzer

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"MacroAgent/internal/domain"
)

func classifiedItem(id string, score float64, impact domain.ImpactLevel, noise, manipulation bool) domain.NewsItem {
	return domain.NewsItem{
		ID:           id,
		Title:        "Headline " + id,
		Content:      "Some sufficiently long content for the item under test.",
		PublishedAt:  time.Date(2024, time.March, 4, 12, 0, 0, 0, time.UTC),
		ImpactLevel:  impact,
		Score:        score,
		Noise:        noise,
		Manipulation: manipulation,
	}
}

func TestAggregateEmptyBatchIsNeutral(t *testing.T) {
	t.Parallel()

	a := newTestAnalyzer(nil)

	score, sentiment := a.Aggregate(nil)
	if score != 0.0 || sentiment != domain.SentimentNeutral {
		t.Fatalf("empty batch: got (%f, %s)", score, sentiment)
	}
}

func TestAggregateExcludesFlaggedItems(t *testing.T) {
	t.Parallel()

	a := newTestAnalyzer(nil)
	items := []domain.NewsItem{
		classifiedItem("bull", 0.5, domain.ImpactHigh, false, false),
		classifiedItem("bear-noise", -0.8, domain.ImpactLow, true, false),
	}

	score, sentiment := a.Aggregate(items)
	if sentiment != domain.SentimentBullish {
		t.Fatalf("noise item must not drag the verdict: got %s (%f)", sentiment, score)
	}
	if score != 0.5 {
		t.Fatalf("expected the single retained score, got %f", score)
	}
}

func TestAggregateAllFlaggedIsNeutral(t *testing.T) {
	t.Parallel()

	a := newTestAnalyzer(nil)
	items := []domain.NewsItem{
		classifiedItem("n", 0.9, domain.ImpactHigh, true, false),
		classifiedItem("m", -0.9, domain.ImpactHigh, false, true),
	}

	score, sentiment := a.Aggregate(items)
	if score != 0.0 || sentiment != domain.SentimentNeutral {
		t.Fatalf("fully filtered batch: got (%f, %s)", score, sentiment)
	}
}

func TestAggregateWeightsByImpact(t *testing.T) {
	t.Parallel()

	a := newTestAnalyzer(nil)
	items := []domain.NewsItem{
		classifiedItem("high", 0.3, domain.ImpactHigh, false, false),
		classifiedItem("low", -0.3, domain.ImpactLow, false, false),
	}

	score, sentiment := a.Aggregate(items)
	if score <= 0 {
		t.Fatalf("high impact outweighs low 3:1, expected positive score, got %f", score)
	}
	if sentiment != domain.SentimentBullish {
		t.Fatalf("expected bullish, got %s", sentiment)
	}
}

func TestKeyPointsOrderingAndLimit(t *testing.T) {
	t.Parallel()

	a := newTestAnalyzer(nil)

	base := time.Date(2024, time.March, 4, 12, 0, 0, 0, time.UTC)
	newer := classifiedItem("med-new", 0.1, domain.ImpactMedium, false, false)
	newer.PublishedAt = base.Add(2 * time.Hour)
	older := classifiedItem("med-old", 0.1, domain.ImpactMedium, false, false)
	older.PublishedAt = base

	items := []domain.NewsItem{
		older,
		classifiedItem("low-1", 0.1, domain.ImpactLow, false, false),
		newer,
		classifiedItem("high-1", 0.1, domain.ImpactHigh, false, false),
		classifiedItem("flagged", 0.1, domain.ImpactHigh, true, false),
		classifiedItem("low-2", 0.1, domain.ImpactLow, false, false),
		classifiedItem("low-3", 0.1, domain.ImpactLow, false, false),
	}

	points := a.KeyPoints(items)
	if len(points) != 5 {
		t.Fatalf("expected 5 key points, got %d", len(points))
	}
	if points[0] != "Headline high-1" {
		t.Fatalf("high impact must come first, got %q", points[0])
	}
	if points[1] != "Headline med-new" || points[2] != "Headline med-old" {
		t.Fatalf("same impact must order newest first, got %q then %q", points[1], points[2])
	}
	for _, p := range points {
		if p == "Headline flagged" {
			t.Fatal("flagged items must not produce key points")
		}
	}
}

func TestKeyPointsTruncatesLongTitles(t *testing.T) {
	t.Parallel()

	a := newTestAnalyzer(nil)

	long := classifiedItem("long", 0.1, domain.ImpactHigh, false, false)
	long.Title = ""
	for len(long.Title) < 150 {
		long.Title += "x"
	}

	points := a.KeyPoints([]domain.NewsItem{long})
	if len(points) != 1 {
		t.Fatalf("expected 1 key point, got %d", len(points))
	}
	if len(points[0]) != 103 {
		t.Fatalf("expected 100 chars plus ellipsis, got %d", len(points[0]))
	}
	if points[0][100:] != "..." {
		t.Fatalf("expected ellipsis suffix, got %q", points[0][100:])
	}
}

func TestKeyPointsTruncationCountsCharacters(t *testing.T) {
	t.Parallel()

	a := newTestAnalyzer(nil)

	long := classifiedItem("accented", 0.1, domain.ImpactHigh, false, false)
	long.Title = strings.Repeat("x", 99) + strings.Repeat("é", 20)

	points := a.KeyPoints([]domain.NewsItem{long})
	if len(points) != 1 {
		t.Fatalf("expected 1 key point, got %d", len(points))
	}
	if !utf8.ValidString(points[0]) {
		t.Fatalf("truncation must not split a character: %q", points[0])
	}
	if got := utf8.RuneCountInString(points[0]); got != 103 {
		t.Fatalf("expected 100 characters plus ellipsis, got %d", got)
	}
	if !strings.HasSuffix(points[0], "é...") {
		t.Fatalf("the 100th character must survive truncation, got %q", points[0])
	}
}

func TestStatsTally(t *testing.T) {
	t.Parallel()

	items := []domain.NewsItem{
		classifiedItem("ok", 0.1, domain.ImpactLow, false, false),
		classifiedItem("noisy", 0.1, domain.ImpactLow, true, false),
		classifiedItem("both", 0.1, domain.ImpactLow, true, true),
	}

	stats := Stats(items)
	if stats.Retained != 1 || stats.Noise != 2 || stats.Manipulation != 1 {
		t.Fatalf("unexpected tally: %+v", stats)
	}
}
