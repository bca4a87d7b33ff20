package feeds

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"MacroAgent/internal/domain"
)

func alphaVantageHandler(t *testing.T) http.HandlerFunc {
	t.Helper()

	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("apikey") != "demo" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		switch r.URL.Query().Get("function") {
		case "CPI":
			_, _ = w.Write([]byte(`{
				"unit": "index 1982-1984=100",
				"data": [
					{"date": "2024-02-01", "value": "310.326"},
					{"date": "2024-01-01", "value": "308.417"}
				]
			}`))
		case "NONFARM_PAYROLL":
			_, _ = w.Write([]byte(`{
				"unit": "thousands of persons",
				"data": [{"date": "2024-02-01", "value": "157808"}]
			}`))
		case "TREASURY_YIELD":
			_, _ = w.Write([]byte(`{"Note": "API call frequency exceeded"}`))
		default:
			_, _ = w.Write([]byte(`{"data": []}`))
		}
	}
}

func TestAlphaVantageFetchIndicators(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(alphaVantageHandler(t))
	defer server.Close()

	source := NewAlphaVantageSource("demo", server.Client(), nil)
	source.baseURL = server.URL

	indicators, err := source.FetchIndicators(context.Background())
	if err != nil {
		t.Fatalf("FetchIndicators: %v", err)
	}

	// CPI and NONFARM_PAYROLL carry data; the throttled and empty
	// series drop out.
	if len(indicators) != 2 {
		t.Fatalf("expected 2 indicators, got %d", len(indicators))
	}

	cpi := indicators[0]
	if cpi.Name != "Consumer Price Index" {
		t.Fatalf("unexpected indicator order: %s", cpi.Name)
	}
	if cpi.ImpactLevel != domain.ImpactHigh {
		t.Fatalf("CPI is a high-impact series, got %s", cpi.ImpactLevel)
	}
	if cpi.ActualValue != "310.326 index 1982-1984=100" {
		t.Fatalf("values must carry the unit, got %q", cpi.ActualValue)
	}
	if cpi.PreviousValue != "308.417 index 1982-1984=100" {
		t.Fatalf("unexpected previous value: %q", cpi.PreviousValue)
	}
	if len(cpi.ID) != 16 {
		t.Fatalf("expected 16-char id, got %q", cpi.ID)
	}

	want := time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC)
	if !cpi.ReleaseTime.Equal(want) {
		t.Fatalf("unexpected release time: %v", cpi.ReleaseTime)
	}

	nfp := indicators[1]
	if nfp.Name != "Non-Farm Payrolls" || nfp.PreviousValue != "" {
		t.Fatalf("unexpected second indicator: %+v", nfp)
	}
}

func TestAlphaVantageBridgesItems(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(alphaVantageHandler(t))
	defer server.Close()

	source := NewAlphaVantageSource("demo", server.Client(), nil)
	source.baseURL = server.URL

	items, err := source.FetchItems(context.Background())
	if err != nil {
		t.Fatalf("FetchItems: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 bridged items, got %d", len(items))
	}
	if items[0].Title != "US Consumer Price Index Release" {
		t.Fatalf("unexpected title: %s", items[0].Title)
	}
	if !strings.Contains(items[0].Content, "Actual: 310.326") {
		t.Fatalf("bridged content must carry the actual value, got %q", items[0].Content)
	}
}

func TestAlphaVantageWithoutKeyStaysSilent(t *testing.T) {
	t.Parallel()

	source := NewAlphaVantageSource("", nil, nil)

	indicators, err := source.FetchIndicators(context.Background())
	if err != nil || indicators != nil {
		t.Fatalf("keyless source must stay silent, got %v, %v", indicators, err)
	}
}
