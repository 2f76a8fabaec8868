package marketdata

import (
	"errors"

	"DivTracker/internal/model"
)

// ErrRateLimited is returned when the provider's fixed-window quota is
// exhausted. The orchestrator treats it like any other provider failure.
var ErrRateLimited = errors.New("rate limit reached")

// ErrNoAPIKey is returned when a provider has no configured key.
var ErrNoAPIKey = errors.New("no api key configured")

// Fundamentals carries supplementary per-company figures fetched from a
// provider's overview/metric endpoint.
type Fundamentals struct {
	Symbol        string
	DividendYield float64 // percent
}

// Client defines the interface for a single upstream market data provider.
// Adding a provider means implementing this and appending it to the
// orchestrator's priority list.
type Client interface {
	Name() model.Provider
	FetchQuote(symbol string) (*model.Quote, error)
	FetchFundamentals(symbol string) (*Fundamentals, error)
	FetchDividend(symbol string) (*model.DividendRecord, error)
}
