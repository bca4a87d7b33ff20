package feeds

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"MacroAgent/internal/config"
	"MacroAgent/internal/domain"
	"MacroAgent/internal/ports"
)

// ScraperSource extracts headlines from configured sites via CSS
// selectors. A site that fails to load is skipped.
type ScraperSource struct {
	sites  []config.ScrapeSiteConfig
	client *http.Client
	logger *slog.Logger
}

var _ ports.Source = (*ScraperSource)(nil)

// NewScraperSource wires an HTTP client; client defaults to a 30
// second timeout.
func NewScraperSource(sites []config.ScrapeSiteConfig, client *http.Client, logger *slog.Logger) *ScraperSource {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ScraperSource{sites: sites, client: client, logger: logger}
}

func (s *ScraperSource) Name() string {
	return "web-scraper"
}

// FetchItems walks every configured site and extracts one item per
// matched article block.
func (s *ScraperSource) FetchItems(ctx context.Context) ([]domain.NewsItem, error) {
	var items []domain.NewsItem

	for _, site := range s.sites {
		doc, err := s.fetchDocument(ctx, site.URL)
		if err != nil {
			s.logger.Warn("skipping scrape site", "site", site.Name, "error", err)
			continue
		}
		items = append(items, s.extractItems(doc, site)...)
	}

	return items, nil
}

// FetchIndicators always returns nil; scraped pages carry no calendar
// data.
func (s *ScraperSource) FetchIndicators(context.Context) ([]domain.EconomicIndicator, error) {
	return nil, nil
}

func (s *ScraperSource) Close() error {
	s.client.CloseIdleConnections()
	return nil
}

func (s *ScraperSource) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "MacroAgent/1.0")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("site returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	return doc, nil
}

func (s *ScraperSource) extractItems(doc *goquery.Document, site config.ScrapeSiteConfig) []domain.NewsItem {
	var items []domain.NewsItem
	fetchedAt := time.Now().UTC()

	doc.Find(site.ArticleSelector).Each(func(_ int, article *goquery.Selection) {
		titleSel := article.Find(site.TitleSelector).First()
		title := strings.TrimSpace(titleSel.Text())
		if title == "" {
			return
		}

		var content string
		if site.ContentSelector != "" {
			content = strings.TrimSpace(article.Find(site.ContentSelector).First().Text())
		}

		link := resolveLink(article, titleSel, site)

		items = append(items, domain.NewsItem{
			ID:          contentID(link, title),
			Title:       title,
			Content:     content,
			Source:      s.Name() + ":" + site.Name,
			URL:         link,
			PublishedAt: fetchedAt,
			ImpactLevel: domain.ImpactMedium,
		})
	})

	return items
}

// resolveLink prefers the configured link selector and falls back to
// the title element itself being an anchor. Relative hrefs are
// resolved against the site URL.
func resolveLink(article, titleSel *goquery.Selection, site config.ScrapeSiteConfig) string {
	var href string
	if site.LinkSelector != "" {
		href, _ = article.Find(site.LinkSelector).First().Attr("href")
	} else if titleSel.Is("a") {
		href, _ = titleSel.Attr("href")
	}
	if href == "" {
		return ""
	}

	base, err := url.Parse(site.URL)
	if err != nil {
		return href
	}
	resolved, err := base.Parse(href)
	if err != nil {
		return href
	}
	return resolved.String()
}
