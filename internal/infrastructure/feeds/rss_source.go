// Package feeds contains the upstream data sources: RSS feeds, the
// economic calendar API, and CSS-selector driven scrapers.
package feeds

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"

	"MacroAgent/internal/domain"
	"MacroAgent/internal/ports"
)

// RSSSource polls a fixed list of feed URLs. A feed that fails to load
// is skipped; the remaining feeds still contribute items.
type RSSSource struct {
	feedURLs []string
	parser   *gofeed.Parser
	logger   *slog.Logger
}

var _ ports.Source = (*RSSSource)(nil)

// NewRSSSource wires an HTTP client into the feed parser; client
// defaults to a 30 second timeout.
func NewRSSSource(feedURLs []string, client *http.Client, logger *slog.Logger) *RSSSource {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if logger == nil {
		logger = slog.Default()
	}

	parser := gofeed.NewParser()
	parser.Client = client

	return &RSSSource{feedURLs: feedURLs, parser: parser, logger: logger}
}

func (s *RSSSource) Name() string {
	return "rss"
}

// FetchItems loads every configured feed and flattens the entries.
func (s *RSSSource) FetchItems(ctx context.Context) ([]domain.NewsItem, error) {
	var items []domain.NewsItem

	for _, feedURL := range s.feedURLs {
		feed, err := s.parser.ParseURLWithContext(feedURL, ctx)
		if err != nil {
			s.logger.Warn("skipping rss feed", "url", feedURL, "error", err)
			continue
		}

		feedTitle := feed.Title
		if feedTitle == "" {
			feedTitle = feedURL
		}

		for _, entry := range feed.Items {
			items = append(items, s.entryToItem(entry, feedTitle))
		}
	}

	return items, nil
}

// FetchIndicators always returns nil; RSS feeds carry no calendar data.
func (s *RSSSource) FetchIndicators(context.Context) ([]domain.EconomicIndicator, error) {
	return nil, nil
}

func (s *RSSSource) Close() error {
	return nil
}

func (s *RSSSource) entryToItem(entry *gofeed.Item, feedTitle string) domain.NewsItem {
	publishedAt := time.Now().UTC()
	switch {
	case entry.PublishedParsed != nil:
		publishedAt = entry.PublishedParsed.UTC()
	case entry.UpdatedParsed != nil:
		publishedAt = entry.UpdatedParsed.UTC()
	}

	content := entry.Content
	if content == "" {
		content = entry.Description
	}

	return domain.NewsItem{
		ID:          contentID(entry.Link, entry.Title),
		Title:       entry.Title,
		Content:     content,
		Source:      s.Name() + ":" + feedTitle,
		URL:         entry.Link,
		PublishedAt: publishedAt,
		ImpactLevel: domain.ImpactMedium,
	}
}

// contentID derives a stable 16-hex-char id from the entry link,
// falling back to the title when a feed omits links.
func contentID(link, title string) string {
	source := link
	if source == "" {
		source = title
	}
	sum := sha256.Sum256([]byte(source))
	return hex.EncodeToString(sum[:])[:16]
}
