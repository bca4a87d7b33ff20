package feeds

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"MacroAgent/internal/domain"
	"MacroAgent/internal/ports"
)

// highImpactIndicators are releases that warrant an immediate alert
// regardless of the impact string the API reports.
var highImpactIndicators = []string{
	"Non-Farm Payrolls",
	"NFP",
	"Federal Funds Rate",
	"Fed Interest Rate Decision",
	"CPI",
	"Consumer Price Index",
	"GDP",
	"Gross Domestic Product",
	"Retail Sales",
	"ISM Manufacturing PMI",
	"ISM Services PMI",
	"Unemployment Rate",
	"Initial Jobless Claims",
	"ECB Interest Rate Decision",
	"BOE Interest Rate Decision",
	"BOJ Interest Rate Decision",
	"FOMC Statement",
	"Jackson Hole",
}

// calendarEvent mirrors one entry of the calendar API response.
type calendarEvent struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Country  string `json:"country"`
	Datetime string `json:"datetime"`
	Impact   string `json:"impact"`
	Previous string `json:"previous"`
	Forecast string `json:"forecast"`
	Actual   string `json:"actual"`
}

type calendarResponse struct {
	Events []calendarEvent `json:"events"`
}

// CalendarSource queries an economic calendar API for the releases of
// the next seven days. It also bridges each indicator into a NewsItem
// so releases flow through sentiment analysis alongside headlines.
type CalendarSource struct {
	apiURL string
	apiKey string
	client *http.Client
	logger *slog.Logger
	now    func() time.Time
}

var _ ports.Source = (*CalendarSource)(nil)

// NewCalendarSource builds the API client. An empty apiURL yields a
// source that returns no data, so the agent can run without calendar
// credentials.
func NewCalendarSource(apiURL, apiKey string, client *http.Client, logger *slog.Logger) *CalendarSource {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CalendarSource{
		apiURL: apiURL,
		apiKey: apiKey,
		client: client,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *CalendarSource) Name() string {
	return "economic-calendar"
}

// FetchItems converts each upcoming release into a news item for
// unified processing.
func (s *CalendarSource) FetchItems(ctx context.Context) ([]domain.NewsItem, error) {
	indicators, err := s.FetchIndicators(ctx)
	if err != nil {
		return nil, err
	}

	items := make([]domain.NewsItem, 0, len(indicators))
	for _, indicator := range indicators {
		items = append(items, indicatorToItem(indicator, s.Name()))
	}
	return items, nil
}

// FetchIndicators queries the API for releases between today and a
// week ahead. An unconfigured source returns no indicators.
func (s *CalendarSource) FetchIndicators(ctx context.Context) ([]domain.EconomicIndicator, error) {
	if s.apiURL == "" {
		return nil, nil
	}

	today := s.now().Truncate(24 * time.Hour)
	requestURL, err := buildCalendarURL(s.apiURL, today, today.AddDate(0, 0, 7))
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build calendar request: %w", err)
	}
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request calendar: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("calendar API returned %s", resp.Status)
	}

	var payload calendarResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode calendar response: %w", err)
	}

	indicators := make([]domain.EconomicIndicator, 0, len(payload.Events))
	for _, event := range payload.Events {
		indicator, err := s.eventToIndicator(event)
		if err != nil {
			s.logger.Warn("skipping calendar event", "name", event.Name, "error", err)
			continue
		}
		indicators = append(indicators, indicator)
	}
	return indicators, nil
}

func (s *CalendarSource) Close() error {
	s.client.CloseIdleConnections()
	return nil
}

func (s *CalendarSource) eventToIndicator(event calendarEvent) (domain.EconomicIndicator, error) {
	releaseTime, err := time.Parse(time.RFC3339, event.Datetime)
	if err != nil {
		return domain.EconomicIndicator{}, fmt.Errorf("parse release time: %w", err)
	}

	idSource := event.ID
	if idSource == "" {
		idSource = event.Name
	}
	sum := sha256.Sum256([]byte(idSource))

	return domain.EconomicIndicator{
		ID:            hex.EncodeToString(sum[:])[:16],
		Name:          event.Name,
		Country:       event.Country,
		ReleaseTime:   releaseTime.UTC(),
		ImpactLevel:   classifyImpact(event.Name, event.Impact),
		PreviousValue: event.Previous,
		ForecastValue: event.Forecast,
		ActualValue:   event.Actual,
	}, nil
}

// classifyImpact forces known market movers to high impact, then falls
// back to the impact string the API reports.
func classifyImpact(indicatorName, apiImpact string) domain.ImpactLevel {
	upper := strings.ToUpper(indicatorName)
	for _, name := range highImpactIndicators {
		if strings.Contains(upper, strings.ToUpper(name)) {
			return domain.ImpactHigh
		}
	}

	lower := strings.ToLower(apiImpact)
	switch {
	case strings.Contains(lower, "high"):
		return domain.ImpactHigh
	case strings.Contains(lower, "low"):
		return domain.ImpactLow
	default:
		return domain.ImpactMedium
	}
}

func indicatorToItem(indicator domain.EconomicIndicator, sourceName string) domain.NewsItem {
	sum := sha256.Sum256([]byte(indicator.ID + ":news"))

	parts := []string{"Economic indicator release: " + indicator.Name}
	if indicator.ActualValue != "" {
		parts = append(parts, "Actual: "+indicator.ActualValue)
	}
	if indicator.ForecastValue != "" {
		parts = append(parts, "Forecast: "+indicator.ForecastValue)
	}
	if indicator.PreviousValue != "" {
		parts = append(parts, "Previous: "+indicator.PreviousValue)
	}

	return domain.NewsItem{
		ID:          hex.EncodeToString(sum[:])[:16],
		Title:       fmt.Sprintf("%s %s Release", indicator.Country, indicator.Name),
		Content:     strings.Join(parts, " | "),
		Source:      sourceName,
		PublishedAt: indicator.ReleaseTime,
		ImpactLevel: indicator.ImpactLevel,
	}
}

func buildCalendarURL(base string, from, to time.Time) (string, error) {
	parsed, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid calendar url %s: %w", base, err)
	}

	query := parsed.Query()
	query.Set("start_date", from.Format("2006-01-02"))
	query.Set("end_date", to.Format("2006-01-02"))
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}
