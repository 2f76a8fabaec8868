package cache

import (
	"time"

	"DivTracker/internal/model"
)

// Store persists the last normalized result per symbol. Symbols are the
// unique key per record type; lookups for absent symbols return (nil, nil).
type Store interface {
	FindQuote(symbol string) (*model.CachedQuote, error)
	UpsertQuote(q *model.Quote) (*model.CachedQuote, error)
	DeleteQuote(symbol string) error
	DeleteQuotesOlderThan(cutoff time.Time) (int64, error)
	FreshQuotes(since time.Time) ([]model.CachedQuote, error)

	FindDividend(symbol string) (*model.CachedDividend, error)
	UpsertDividend(d *model.DividendRecord) (*model.CachedDividend, error)
	DeleteDividend(symbol string) error
	DeleteDividendsOlderThan(cutoff time.Time) (int64, error)

	Counts() (quotes, dividends int64, err error)
}
