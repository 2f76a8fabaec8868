package cache

import (
	"sync"
	"time"

	"DivTracker/internal/model"
)

// MemoryStore is an in-memory Store used in tests and when no database is
// configured. Its clock is overridable so tests can age entries.
type MemoryStore struct {
	mu        sync.Mutex
	Now       func() time.Time
	quotes    map[string]*model.CachedQuote
	dividends map[string]*model.CachedDividend
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		Now:       time.Now,
		quotes:    make(map[string]*model.CachedQuote),
		dividends: make(map[string]*model.CachedDividend),
	}
}

func (s *MemoryStore) FindQuote(symbol string) (*model.CachedQuote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.quotes[symbol]
	if !ok {
		return nil, nil
	}
	cp := *entry
	return &cp, nil
}

func (s *MemoryStore) UpsertQuote(q *model.Quote) (*model.CachedQuote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.Now()
	entry := &model.CachedQuote{Quote: *q, CreatedAt: now, UpdatedAt: now}
	if prev, ok := s.quotes[q.Symbol]; ok {
		entry.CreatedAt = prev.CreatedAt
	}
	s.quotes[q.Symbol] = entry
	cp := *entry
	return &cp, nil
}

func (s *MemoryStore) DeleteQuote(symbol string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.quotes, symbol)
	return nil
}

func (s *MemoryStore) DeleteQuotesOlderThan(cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted int64
	for symbol, entry := range s.quotes {
		if entry.UpdatedAt.Before(cutoff) {
			delete(s.quotes, symbol)
			deleted++
		}
	}
	return deleted, nil
}

func (s *MemoryStore) FreshQuotes(since time.Time) ([]model.CachedQuote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var entries []model.CachedQuote
	for _, entry := range s.quotes {
		if !entry.UpdatedAt.Before(since) {
			entries = append(entries, *entry)
		}
	}
	return entries, nil
}

func (s *MemoryStore) FindDividend(symbol string) (*model.CachedDividend, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.dividends[symbol]
	if !ok {
		return nil, nil
	}
	cp := *entry
	return &cp, nil
}

func (s *MemoryStore) UpsertDividend(d *model.DividendRecord) (*model.CachedDividend, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.Now()
	entry := &model.CachedDividend{DividendRecord: *d, CreatedAt: now, UpdatedAt: now}
	if prev, ok := s.dividends[d.Symbol]; ok {
		entry.CreatedAt = prev.CreatedAt
	}
	s.dividends[d.Symbol] = entry
	cp := *entry
	return &cp, nil
}

func (s *MemoryStore) DeleteDividend(symbol string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.dividends, symbol)
	return nil
}

func (s *MemoryStore) DeleteDividendsOlderThan(cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted int64
	for symbol, entry := range s.dividends {
		if entry.UpdatedAt.Before(cutoff) {
			delete(s.dividends, symbol)
			deleted++
		}
	}
	return deleted, nil
}

func (s *MemoryStore) Counts() (int64, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return int64(len(s.quotes)), int64(len(s.dividends)), nil
}
