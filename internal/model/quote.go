package model

import "time"

// Provider identifies an upstream market data source.
type Provider string

const (
	ProviderAlphaVantage Provider = "alpha_vantage"
	ProviderFinnhub      Provider = "finnhub"
)

// Quote is a point-in-time price snapshot for a ticker symbol.
type Quote struct {
	Symbol        string    `json:"symbol"`
	Price         float64   `json:"price"`
	Change        float64   `json:"change"`
	ChangePercent float64   `json:"changePercent"`
	DividendYield *float64  `json:"dividendYield,omitempty"` // percent, nil when the provider had none
	LastUpdated   time.Time `json:"lastUpdated"`
	Source        Provider  `json:"source"`
}

// DividendRecord holds the most recent dividend payout for a symbol.
type DividendRecord struct {
	Symbol      string   `json:"symbol"`
	Dividend    float64  `json:"dividend"` // per share
	ExDate      string   `json:"exDate"`
	RecordDate  string   `json:"recordDate"`
	PaymentDate string   `json:"paymentDate"`
	Source      Provider `json:"source"`
}

// CachedQuote wraps a Quote with persistence timestamps. Freshness checks
// run against UpdatedAt.
type CachedQuote struct {
	Quote
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CachedDividend wraps a DividendRecord with persistence timestamps.
type CachedDividend struct {
	DividendRecord
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
