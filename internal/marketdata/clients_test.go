package marketdata

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"DivTracker/internal/model"
	"DivTracker/internal/ratelimit"
)

func openLimiter() *ratelimit.Limiter {
	return ratelimit.New(map[model.Provider]ratelimit.Window{
		model.ProviderAlphaVantage: {Quota: 25, Length: 24 * time.Hour},
		model.ProviderFinnhub:      {Quota: 60, Length: time.Minute},
	})
}

func alphaClient(srv *httptest.Server) *AlphaVantageClient {
	c := NewAlphaVantageClient("test-key", openLimiter(), "")
	c.BaseURL = srv.URL
	return c
}

func finnhubClient(srv *httptest.Server) *FinnhubClient {
	c := NewFinnhubClient("test-key", openLimiter(), "")
	c.BaseURL = srv.URL
	return c
}

func TestAlphaVantage_FetchQuote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("function"); got != "GLOBAL_QUOTE" {
			t.Errorf("unexpected function %q", got)
		}
		if got := r.URL.Query().Get("apikey"); got != "test-key" {
			t.Errorf("expected api key in query, got %q", got)
		}
		w.Write([]byte(`{"Global Quote": {
			"01. symbol": "KO",
			"05. price": "62.5000",
			"09. change": "0.4100",
			"10. change percent": "0.6603%"
		}}`))
	}))
	defer srv.Close()

	q, err := alphaClient(srv).FetchQuote("KO")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.Symbol != "KO" || q.Price != 62.5 || q.Change != 0.41 {
		t.Errorf("unexpected quote %+v", q)
	}
	if q.ChangePercent != 0.6603 {
		t.Errorf("expected percent suffix stripped, got %v", q.ChangePercent)
	}
	if q.Source != model.ProviderAlphaVantage {
		t.Errorf("unexpected source %s", q.Source)
	}
	if q.DividendYield != nil {
		t.Error("global quote carries no yield")
	}
}

func TestAlphaVantage_ErrorPayloadRejected(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"error message", `{"Error Message": "Invalid API call"}`},
		{"quota note", `{"Note": "Thank you for using Alpha Vantage! 25 requests/day"}`},
		{"empty result", `{"Global Quote": {}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			if _, err := alphaClient(srv).FetchQuote("KO"); err == nil {
				t.Error("expected error for provider error payload")
			}
		})
	}
}

func TestAlphaVantage_NormalizesYieldToPercent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"Symbol": "KO", "DividendYield": "0.031"}`))
	}))
	defer srv.Close()

	f, err := alphaClient(srv).FetchFundamentals("KO")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.DividendYield < 3.0999 || f.DividendYield > 3.1001 {
		t.Errorf("expected decimal fraction converted to percent, got %v", f.DividendYield)
	}
}

func TestAlphaVantage_RateLimitedSkipsNetwork(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
	}))
	defer srv.Close()

	limiter := ratelimit.New(map[model.Provider]ratelimit.Window{
		model.ProviderAlphaVantage: {Quota: 0, Length: 24 * time.Hour},
	})
	c := NewAlphaVantageClient("test-key", limiter, "")
	c.BaseURL = srv.URL

	_, err := c.FetchQuote("KO")
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
	if hits != 0 {
		t.Errorf("expected no network call when rate limited, got %d", hits)
	}
}

func TestAlphaVantage_NoKeySkipsNetwork(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
	}))
	defer srv.Close()

	c := NewAlphaVantageClient("", openLimiter(), "")
	c.BaseURL = srv.URL
	if _, err := c.FetchQuote("KO"); !errors.Is(err, ErrNoAPIKey) {
		t.Fatalf("expected ErrNoAPIKey, got %v", err)
	}
	if hits != 0 {
		t.Errorf("expected no network call without key, got %d", hits)
	}
}

func TestFinnhub_FetchQuote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("token"); got != "test-key" {
			t.Errorf("expected token in query, got %q", got)
		}
		w.Write([]byte(`{"c": 63.1, "d": -0.2, "dp": -0.32}`))
	}))
	defer srv.Close()

	q, err := finnhubClient(srv).FetchQuote("KO")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.Price != 63.1 || q.Change != -0.2 || q.ChangePercent != -0.32 {
		t.Errorf("unexpected quote %+v", q)
	}
	if q.Symbol != "KO" {
		t.Errorf("finnhub quote carries no symbol; must echo request, got %q", q.Symbol)
	}
}

func TestFinnhub_ZeroQuoteRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"c": 0, "d": 0, "dp": 0}`))
	}))
	defer srv.Close()

	if _, err := finnhubClient(srv).FetchQuote("NOSUCH"); err == nil {
		t.Error("expected error for all-zero quote")
	}
}

func TestFinnhub_ErrorPayloadRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error": "API limit reached"}`))
	}))
	defer srv.Close()

	if _, err := finnhubClient(srv).FetchQuote("KO"); err == nil {
		t.Error("expected error for provider error payload")
	}
}

func TestFinnhub_NonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream broken", http.StatusBadGateway)
	}))
	defer srv.Close()

	if _, err := finnhubClient(srv).FetchQuote("KO"); err == nil {
		t.Error("expected error for non-2xx status")
	}
}

func TestFinnhub_FundamentalsAlreadyPercent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"metric": {"currentDividendYieldTTM": 3.05}}`))
	}))
	defer srv.Close()

	f, err := finnhubClient(srv).FetchFundamentals("KO")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.DividendYield != 3.05 {
		t.Errorf("finnhub yield must not be rescaled, got %v", f.DividendYield)
	}
}

func TestFinnhub_FetchDividend(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"amount": 0.485, "exDate": "2025-06-13", "recordDate": "2025-06-13", "payDate": "2025-07-01"}]`))
	}))
	defer srv.Close()

	d, err := finnhubClient(srv).FetchDividend("KO")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Dividend != 0.485 || d.PaymentDate != "2025-07-01" {
		t.Errorf("unexpected record %+v", d)
	}
}

func TestAlphaVantage_FetchDividendFromSeries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"Monthly Adjusted Time Series": {
			"2025-05-30": {"7. dividend amount": "0.0000"},
			"2025-06-30": {"7. dividend amount": "0.4850"}
		}}`))
	}))
	defer srv.Close()

	d, err := alphaClient(srv).FetchDividend("KO")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.ExDate != "2025-06-30" {
		t.Errorf("expected most recent series date, got %q", d.ExDate)
	}
	if d.Dividend != 0.485 {
		t.Errorf("unexpected amount %v", d.Dividend)
	}
}
