package marketdata

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"DivTracker/internal/model"
	"DivTracker/internal/ratelimit"
)

const finnhubBaseURL = "https://finnhub.io/api/v1"

// FinnhubClient implements Client using the Finnhub REST API.
type FinnhubClient struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
	Limiter *ratelimit.Limiter
}

// NewFinnhubClient creates a client with optional proxy support.
func NewFinnhubClient(apiKey string, limiter *ratelimit.Limiter, proxyURL string) *FinnhubClient {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &FinnhubClient{
		BaseURL: finnhubBaseURL,
		APIKey:  apiKey,
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
		Limiter: limiter,
	}
}

func (c *FinnhubClient) Name() model.Provider { return model.ProviderFinnhub }

func (c *FinnhubClient) gate() error {
	if c.APIKey == "" {
		return ErrNoAPIKey
	}
	if !c.Limiter.CanRequest(c.Name()) {
		return ErrRateLimited
	}
	c.Limiter.Record(c.Name())
	return nil
}

// get issues a keyed GET and decodes the response, rejecting non-2xx
// statuses and provider-reported error payloads.
func (c *FinnhubClient) get(path string, params url.Values, result interface{}) error {
	params.Set("token", c.APIKey)
	endpoint := fmt.Sprintf("%s%s?%s", c.BaseURL, path, params.Encode())

	resp, err := c.Client.Get(endpoint)
	if err != nil {
		return fmt.Errorf("finnhub fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("finnhub read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("finnhub: status %d, body: %s", resp.StatusCode, string(body))
	}

	// Finnhub reports errors in-band as {"error": "..."}.
	var apiErr struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error != "" {
		return fmt.Errorf("finnhub api error: %s", apiErr.Error)
	}

	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("finnhub decode: %w", err)
	}
	return nil
}

func (c *FinnhubClient) FetchQuote(symbol string) (*model.Quote, error) {
	if err := c.gate(); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("symbol", symbol)
	var payload struct {
		Current       float64 `json:"c"`
		Change        float64 `json:"d"`
		ChangePercent float64 `json:"dp"`
	}
	if err := c.get("/quote", params, &payload); err != nil {
		return nil, err
	}
	// Finnhub answers unknown symbols with an all-zero quote.
	if payload.Current <= 0 {
		return nil, fmt.Errorf("finnhub: no quote data for %s", symbol)
	}

	return &model.Quote{
		Symbol:        symbol,
		Price:         payload.Current,
		Change:        payload.Change,
		ChangePercent: payload.ChangePercent,
		LastUpdated:   time.Now(),
		Source:        c.Name(),
	}, nil
}

func (c *FinnhubClient) FetchFundamentals(symbol string) (*Fundamentals, error) {
	if err := c.gate(); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("metric", "all")
	var payload struct {
		Metric struct {
			DividendYieldTTM float64 `json:"currentDividendYieldTTM"`
		} `json:"metric"`
	}
	if err := c.get("/stock/metric", params, &payload); err != nil {
		return nil, err
	}
	// Finnhub already reports yield as a percent.
	if payload.Metric.DividendYieldTTM <= 0 {
		return nil, fmt.Errorf("finnhub: no dividend yield for %s", symbol)
	}
	return &Fundamentals{Symbol: symbol, DividendYield: payload.Metric.DividendYieldTTM}, nil
}

func (c *FinnhubClient) FetchDividend(symbol string) (*model.DividendRecord, error) {
	if err := c.gate(); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("symbol", symbol)
	var payload []struct {
		Amount     float64 `json:"amount"`
		ExDate     string  `json:"exDate"`
		RecordDate string  `json:"recordDate"`
		PayDate    string  `json:"payDate"`
	}
	if err := c.get("/stock/dividend", params, &payload); err != nil {
		return nil, err
	}
	if len(payload) == 0 {
		return nil, fmt.Errorf("finnhub: no dividend data for %s", symbol)
	}

	latest := payload[0]
	return &model.DividendRecord{
		Symbol:      symbol,
		Dividend:    latest.Amount,
		ExDate:      latest.ExDate,
		RecordDate:  latest.RecordDate,
		PaymentDate: latest.PayDate,
		Source:      c.Name(),
	}, nil
}
