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
	"time"

	"MacroAgent/internal/domain"
	"MacroAgent/internal/ports"
)

const alphaVantageBaseURL = "https://www.alphavantage.co/query"

// alphaVantageIndicator maps one API function to its indicator
// metadata.
type alphaVantageIndicator struct {
	function string
	name     string
	country  string
	impact   domain.ImpactLevel
	interval string
}

// Listed in a fixed order so fetches are deterministic.
var alphaVantageIndicators = []alphaVantageIndicator{
	{"REAL_GDP", "Real Gross Domestic Product", "US", domain.ImpactHigh, "quarterly"},
	{"REAL_GDP_PER_CAPITA", "Real GDP Per Capita", "US", domain.ImpactMedium, "quarterly"},
	{"TREASURY_YIELD", "Treasury Yield", "US", domain.ImpactMedium, "monthly"},
	{"FEDERAL_FUNDS_RATE", "Federal Funds Rate", "US", domain.ImpactHigh, "monthly"},
	{"CPI", "Consumer Price Index", "US", domain.ImpactHigh, "monthly"},
	{"INFLATION", "Inflation Rate", "US", domain.ImpactHigh, "annual"},
	{"RETAIL_SALES", "Retail Sales", "US", domain.ImpactHigh, "monthly"},
	{"DURABLES", "Durable Goods Orders", "US", domain.ImpactMedium, "monthly"},
	{"UNEMPLOYMENT", "Unemployment Rate", "US", domain.ImpactHigh, "monthly"},
	{"NONFARM_PAYROLL", "Non-Farm Payrolls", "US", domain.ImpactHigh, "monthly"},
}

type alphaVantageResponse struct {
	Unit string `json:"unit"`
	Data []struct {
		Date  string `json:"date"`
		Value string `json:"value"`
	} `json:"data"`
	ErrorMessage string `json:"Error Message"`
	Note         string `json:"Note"`
}

// AlphaVantageSource pulls US economic indicator series from the
// Alpha Vantage API and bridges the latest data points into news
// items. Without an API key the source stays silent.
type AlphaVantageSource struct {
	apiKey  string
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

var _ ports.Source = (*AlphaVantageSource)(nil)

// NewAlphaVantageSource builds the API client; client defaults to a 30
// second timeout.
func NewAlphaVantageSource(apiKey string, client *http.Client, logger *slog.Logger) *AlphaVantageSource {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AlphaVantageSource{
		apiKey:  apiKey,
		baseURL: alphaVantageBaseURL,
		client:  client,
		logger:  logger,
	}
}

func (s *AlphaVantageSource) Name() string {
	return "alpha-vantage"
}

// FetchItems converts the latest data point of every indicator into a
// news item.
func (s *AlphaVantageSource) FetchItems(ctx context.Context) ([]domain.NewsItem, error) {
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

// FetchIndicators queries every known series. A failing series is
// logged and skipped; Alpha Vantage throttles free keys aggressively,
// so partial results are the norm.
func (s *AlphaVantageSource) FetchIndicators(ctx context.Context) ([]domain.EconomicIndicator, error) {
	if s.apiKey == "" {
		return nil, nil
	}

	var indicators []domain.EconomicIndicator
	for _, spec := range alphaVantageIndicators {
		indicator, err := s.fetchIndicator(ctx, spec)
		if err != nil {
			s.logger.Warn("skipping alpha vantage series", "function", spec.function, "error", err)
			continue
		}
		if indicator != nil {
			indicators = append(indicators, *indicator)
		}
	}
	return indicators, nil
}

func (s *AlphaVantageSource) Close() error {
	s.client.CloseIdleConnections()
	return nil
}

func (s *AlphaVantageSource) fetchIndicator(ctx context.Context, spec alphaVantageIndicator) (*domain.EconomicIndicator, error) {
	requestURL, err := s.buildURL(spec)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request series: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("alpha vantage returned %s", resp.Status)
	}

	var payload alphaVantageResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode series: %w", err)
	}
	if payload.ErrorMessage != "" {
		return nil, fmt.Errorf("alpha vantage error: %s", payload.ErrorMessage)
	}
	if payload.Note != "" {
		return nil, fmt.Errorf("alpha vantage throttled: %s", payload.Note)
	}
	if len(payload.Data) == 0 {
		return nil, nil
	}

	latest := payload.Data[0]

	releaseTime, err := time.Parse("2006-01-02", latest.Date)
	if err != nil {
		releaseTime = time.Now()
	}

	sum := sha256.Sum256([]byte("alpha_vantage:" + spec.function + ":" + latest.Date))

	indicator := domain.EconomicIndicator{
		ID:          hex.EncodeToString(sum[:])[:16],
		Name:        spec.name,
		Country:     spec.country,
		ReleaseTime: releaseTime.UTC(),
		ImpactLevel: spec.impact,
		ActualValue: withUnit(latest.Value, payload.Unit),
	}
	if len(payload.Data) > 1 {
		indicator.PreviousValue = withUnit(payload.Data[1].Value, payload.Unit)
	}
	return &indicator, nil
}

func (s *AlphaVantageSource) buildURL(spec alphaVantageIndicator) (string, error) {
	parsed, err := url.Parse(s.baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid alpha vantage url %s: %w", s.baseURL, err)
	}

	query := parsed.Query()
	query.Set("function", spec.function)
	query.Set("apikey", s.apiKey)
	query.Set("datatype", "json")
	if spec.interval != "" {
		query.Set("interval", spec.interval)
	}
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}

func withUnit(value, unit string) string {
	if value == "" || unit == "" {
		return value
	}
	return value + " " + unit
}
