package cache

import (
	"log"
	"strings"
	"time"

	"DivTracker/internal/model"
)

// Fetcher is the upstream the cache delegates to on a miss. Satisfied by
// marketdata.Service.
type Fetcher interface {
	GetQuote(symbol string) *model.Quote
	GetDividend(symbol string) *model.DividendRecord
}

// CleanupResult reports how many entries a retention sweep removed.
type CleanupResult struct {
	DeletedQuotes    int64 `json:"deletedQuotes"`
	DeletedDividends int64 `json:"deletedDividends"`
}

// Stats is a summary of the cache contents.
type Stats struct {
	TotalQuotes    int64 `json:"totalQuotes"`
	TotalDividends int64 `json:"totalDividends"`
	RecentUpdates  int   `json:"recentUpdates"`
}

// Service serves quotes from the store while they are inside the freshness
// window and delegates to the fetcher otherwise. Freshness is binary: an
// expired entry is never served, even when every provider is down.
type Service struct {
	store     Store
	fetcher   Fetcher
	freshness time.Duration
	now       func() time.Time
}

// NewService creates a cache service with the configured freshness window.
func NewService(store Store, fetcher Fetcher, freshness time.Duration) *Service {
	return &Service{store: store, fetcher: fetcher, freshness: freshness, now: time.Now}
}

// NewServiceWithClock is NewService with an injectable clock for tests.
func NewServiceWithClock(store Store, fetcher Fetcher, freshness time.Duration, now func() time.Time) *Service {
	return &Service{store: store, fetcher: fetcher, freshness: freshness, now: now}
}

func (s *Service) fresh(updatedAt time.Time) bool {
	return s.now().Sub(updatedAt) < s.freshness
}

// GetQuote returns the cached quote when fresh, otherwise fetches, persists
// and returns the new one. Returns nil when no data could be obtained.
func (s *Service) GetQuote(symbol string) *model.CachedQuote {
	symbol = strings.ToUpper(symbol)

	entry, err := s.store.FindQuote(symbol)
	if err != nil {
		log.Printf("[WARN] cache lookup %s: %v", symbol, err)
	}
	if entry != nil && s.fresh(entry.UpdatedAt) {
		return entry
	}

	quote := s.fetcher.GetQuote(symbol)
	if quote == nil {
		return nil
	}
	quote.Symbol = symbol

	saved, err := s.store.UpsertQuote(quote)
	if err != nil {
		log.Printf("[ERROR] cache upsert %s: %v", symbol, err)
		return nil
	}
	return saved
}

// GetQuotes resolves many symbols through independent lookups, skipping
// those with no data.
func (s *Service) GetQuotes(symbols []string) []model.CachedQuote {
	results := make([]model.CachedQuote, 0, len(symbols))
	for _, symbol := range symbols {
		if entry := s.GetQuote(symbol); entry != nil {
			results = append(results, *entry)
		}
	}
	return results
}

// GetDividend is the dividend-record analogue of GetQuote, sharing the same
// freshness window.
func (s *Service) GetDividend(symbol string) *model.CachedDividend {
	symbol = strings.ToUpper(symbol)

	entry, err := s.store.FindDividend(symbol)
	if err != nil {
		log.Printf("[WARN] cache lookup dividend %s: %v", symbol, err)
	}
	if entry != nil && s.fresh(entry.UpdatedAt) {
		return entry
	}

	record := s.fetcher.GetDividend(symbol)
	if record == nil {
		return nil
	}
	record.Symbol = symbol

	saved, err := s.store.UpsertDividend(record)
	if err != nil {
		log.Printf("[ERROR] cache upsert dividend %s: %v", symbol, err)
		return nil
	}
	return saved
}

// ForceRefresh discards the cached entry for the symbol and runs the miss
// path.
func (s *Service) ForceRefresh(symbol string) *model.CachedQuote {
	symbol = strings.ToUpper(symbol)
	log.Printf("[INFO] force refreshing %s", symbol)

	if err := s.store.DeleteQuote(symbol); err != nil {
		log.Printf("[WARN] delete cached quote %s: %v", symbol, err)
	}
	return s.GetQuote(symbol)
}

// CleanupOlderThan deletes all entries last updated before now-retention.
func (s *Service) CleanupOlderThan(retention time.Duration) (CleanupResult, error) {
	cutoff := s.now().Add(-retention)

	quotes, err := s.store.DeleteQuotesOlderThan(cutoff)
	if err != nil {
		return CleanupResult{}, err
	}
	dividends, err := s.store.DeleteDividendsOlderThan(cutoff)
	if err != nil {
		return CleanupResult{DeletedQuotes: quotes}, err
	}
	return CleanupResult{DeletedQuotes: quotes, DeletedDividends: dividends}, nil
}

// FreshQuotes lists every cached quote updated within the window, without
// triggering any fetch. Used to build suggestion candidate lists.
func (s *Service) FreshQuotes(window time.Duration) ([]model.CachedQuote, error) {
	return s.store.FreshQuotes(s.now().Add(-window))
}

// Stats reports cache totals and the number of quotes updated in the last
// 24 hours.
func (s *Service) Stats() (Stats, error) {
	quotes, dividends, err := s.store.Counts()
	if err != nil {
		return Stats{}, err
	}
	recent, err := s.store.FreshQuotes(s.now().Add(-24 * time.Hour))
	if err != nil {
		return Stats{}, err
	}
	return Stats{TotalQuotes: quotes, TotalDividends: dividends, RecentUpdates: len(recent)}, nil
}
