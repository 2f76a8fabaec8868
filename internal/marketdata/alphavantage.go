package marketdata

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"DivTracker/internal/model"
	"DivTracker/internal/ratelimit"
)

const alphaVantageBaseURL = "https://www.alphavantage.co"

// AlphaVantageClient implements Client using the Alpha Vantage REST API.
type AlphaVantageClient struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
	Limiter *ratelimit.Limiter
}

// NewAlphaVantageClient creates a client with optional proxy support.
func NewAlphaVantageClient(apiKey string, limiter *ratelimit.Limiter, proxyURL string) *AlphaVantageClient {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &AlphaVantageClient{
		BaseURL: alphaVantageBaseURL,
		APIKey:  apiKey,
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
		Limiter: limiter,
	}
}

func (c *AlphaVantageClient) Name() model.Provider { return model.ProviderAlphaVantage }

// gate checks the API key and the fixed-window quota, recording the attempt
// immediately before the network call.
func (c *AlphaVantageClient) gate() error {
	if c.APIKey == "" {
		return ErrNoAPIKey
	}
	if !c.Limiter.CanRequest(c.Name()) {
		return ErrRateLimited
	}
	c.Limiter.Record(c.Name())
	return nil
}

// query issues a GET against the query endpoint and decodes the body.
func (c *AlphaVantageClient) query(params url.Values) ([]byte, error) {
	params.Set("apikey", c.APIKey)
	endpoint := fmt.Sprintf("%s/query?%s", c.BaseURL, params.Encode())

	resp, err := c.Client.Get(endpoint)
	if err != nil {
		return nil, fmt.Errorf("alpha vantage fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("alpha vantage read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("alpha vantage: status %d, body: %s", resp.StatusCode, string(body))
	}
	return body, nil
}

// checkAPIError rejects provider-reported error payloads. Alpha Vantage
// answers 200 OK with an "Error Message" for bad symbols and a "Note" when
// its own quota is exhausted.
func checkAPIError(body []byte) error {
	var payload struct {
		ErrorMessage string `json:"Error Message"`
		Note         string `json:"Note"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return fmt.Errorf("alpha vantage decode: %w", err)
	}
	if payload.ErrorMessage != "" {
		return fmt.Errorf("alpha vantage api error: %s", payload.ErrorMessage)
	}
	if payload.Note != "" {
		return fmt.Errorf("alpha vantage api note: %s", payload.Note)
	}
	return nil
}

func (c *AlphaVantageClient) FetchQuote(symbol string) (*model.Quote, error) {
	if err := c.gate(); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("function", "GLOBAL_QUOTE")
	params.Set("symbol", symbol)
	body, err := c.query(params)
	if err != nil {
		return nil, err
	}
	if err := checkAPIError(body); err != nil {
		return nil, err
	}

	var payload struct {
		GlobalQuote map[string]string `json:"Global Quote"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("alpha vantage decode quote: %w", err)
	}

	q := payload.GlobalQuote
	price, err := strconv.ParseFloat(q["05. price"], 64)
	if err != nil || price <= 0 {
		return nil, fmt.Errorf("alpha vantage: no quote data for %s", symbol)
	}
	change, _ := strconv.ParseFloat(q["09. change"], 64)
	changePercent, _ := strconv.ParseFloat(strings.TrimSuffix(q["10. change percent"], "%"), 64)

	return &model.Quote{
		Symbol:        q["01. symbol"],
		Price:         price,
		Change:        change,
		ChangePercent: changePercent,
		LastUpdated:   time.Now(),
		Source:        c.Name(),
	}, nil
}

// overview is the subset of the OVERVIEW response the service consumes.
type overview struct {
	Symbol           string `json:"Symbol"`
	DividendYield    string `json:"DividendYield"`
	DividendPerShare string `json:"DividendPerShare"`
	ExDividendDate   string `json:"ExDividendDate"`
	RecordDate       string `json:"RecordDate"`
	PaymentDate      string `json:"PaymentDate"`
}

func (c *AlphaVantageClient) fetchOverview(symbol string) (*overview, error) {
	if err := c.gate(); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("function", "OVERVIEW")
	params.Set("symbol", symbol)
	body, err := c.query(params)
	if err != nil {
		return nil, err
	}
	if err := checkAPIError(body); err != nil {
		return nil, err
	}

	var ov overview
	if err := json.Unmarshal(body, &ov); err != nil {
		return nil, fmt.Errorf("alpha vantage decode overview: %w", err)
	}
	return &ov, nil
}

func (c *AlphaVantageClient) FetchFundamentals(symbol string) (*Fundamentals, error) {
	ov, err := c.fetchOverview(symbol)
	if err != nil {
		return nil, err
	}
	// Alpha Vantage reports yield as a decimal fraction (0.073); normalize
	// to percent.
	yield, err := strconv.ParseFloat(ov.DividendYield, 64)
	if err != nil || yield <= 0 {
		return nil, fmt.Errorf("alpha vantage: no dividend yield for %s", symbol)
	}
	return &Fundamentals{Symbol: symbol, DividendYield: yield * 100}, nil
}

func (c *AlphaVantageClient) FetchDividend(symbol string) (*model.DividendRecord, error) {
	if err := c.gate(); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("function", "TIME_SERIES_MONTHLY_ADJUSTED")
	params.Set("symbol", symbol)
	body, err := c.query(params)
	if err != nil {
		return nil, err
	}
	if err := checkAPIError(body); err != nil {
		return nil, err
	}

	var payload struct {
		TimeSeries map[string]map[string]string `json:"Monthly Adjusted Time Series"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("alpha vantage decode dividends: %w", err)
	}

	if len(payload.TimeSeries) > 0 {
		dates := make([]string, 0, len(payload.TimeSeries))
		for d := range payload.TimeSeries {
			dates = append(dates, d)
		}
		sort.Sort(sort.Reverse(sort.StringSlice(dates)))
		latest := dates[0]
		amount, _ := strconv.ParseFloat(payload.TimeSeries[latest]["7. dividend amount"], 64)
		return &model.DividendRecord{
			Symbol:      symbol,
			Dividend:    amount,
			ExDate:      latest,
			PaymentDate: latest,
			Source:      c.Name(),
		}, nil
	}

	// Fall back to the company overview for basic dividend fields.
	ov, err := c.fetchOverview(symbol)
	if err != nil {
		return nil, err
	}
	amount, err := strconv.ParseFloat(ov.DividendPerShare, 64)
	if err != nil {
		return nil, fmt.Errorf("alpha vantage: no dividend data for %s", symbol)
	}
	return &model.DividendRecord{
		Symbol:      ov.Symbol,
		Dividend:    amount,
		ExDate:      ov.ExDividendDate,
		RecordDate:  ov.RecordDate,
		PaymentDate: ov.PaymentDate,
		Source:      c.Name(),
	}, nil
}
