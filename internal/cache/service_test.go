package cache

import (
	"testing"
	"time"

	"DivTracker/internal/model"
)

// stubFetcher counts upstream calls and returns a fixed quote sequence.
type stubFetcher struct {
	quotes        []*model.Quote
	dividend      *model.DividendRecord
	quoteCalls    int
	dividendCalls int
}

func (f *stubFetcher) GetQuote(symbol string) *model.Quote {
	f.quoteCalls++
	if len(f.quotes) == 0 {
		return nil
	}
	q := f.quotes[0]
	if len(f.quotes) > 1 {
		f.quotes = f.quotes[1:]
	}
	if q == nil {
		return nil
	}
	cp := *q
	cp.Symbol = symbol
	return &cp
}

func (f *stubFetcher) GetDividend(symbol string) *model.DividendRecord {
	f.dividendCalls++
	if f.dividend == nil {
		return nil
	}
	cp := *f.dividend
	cp.Symbol = symbol
	return &cp
}

func newQuote(price float64) *model.Quote {
	return &model.Quote{
		Symbol:      "KO",
		Price:       price,
		LastUpdated: time.Now(),
		Source:      model.ProviderAlphaVantage,
	}
}

func testService(fetcher Fetcher, now *time.Time) (*Service, *MemoryStore) {
	store := NewMemoryStore()
	store.Now = func() time.Time { return *now }
	svc := NewServiceWithClock(store, fetcher, time.Hour, func() time.Time { return *now })
	return svc, store
}

func TestGetQuote_FreshHitSkipsFetch(t *testing.T) {
	now := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	fetcher := &stubFetcher{quotes: []*model.Quote{newQuote(62.5)}}
	svc, _ := testService(fetcher, &now)

	first := svc.GetQuote("ko")
	if first == nil {
		t.Fatal("expected quote on miss")
	}
	if first.Symbol != "KO" {
		t.Errorf("symbol must be uppercased, got %q", first.Symbol)
	}

	now = now.Add(30 * time.Minute)
	second := svc.GetQuote("KO")
	if second == nil {
		t.Fatal("expected cached quote")
	}
	if fetcher.quoteCalls != 1 {
		t.Errorf("expected exactly 1 upstream call, got %d", fetcher.quoteCalls)
	}
	if second.Price != first.Price || !second.UpdatedAt.Equal(first.UpdatedAt) {
		t.Error("second lookup inside the window must return identical data")
	}
}

func TestGetQuote_ExpiryRefetchesAndOverwrites(t *testing.T) {
	now := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	fetcher := &stubFetcher{quotes: []*model.Quote{newQuote(62.5), newQuote(64.0)}}
	svc, _ := testService(fetcher, &now)

	svc.GetQuote("KO")

	now = now.Add(time.Hour) // freshness window is exactly 1h; boundary is stale
	refreshed := svc.GetQuote("KO")
	if refreshed == nil {
		t.Fatal("expected refreshed quote")
	}
	if fetcher.quoteCalls != 2 {
		t.Errorf("expected exactly 2 upstream calls, got %d", fetcher.quoteCalls)
	}
	if refreshed.Price != 64.0 {
		t.Errorf("expected overwritten price 64.0, got %.2f", refreshed.Price)
	}
	if !refreshed.UpdatedAt.Equal(now) {
		t.Errorf("expected updatedAt bumped to %v, got %v", now, refreshed.UpdatedAt)
	}
}

func TestGetQuote_StaleNotServedOnFetchFailure(t *testing.T) {
	now := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	fetcher := &stubFetcher{quotes: []*model.Quote{newQuote(62.5), nil}}
	svc, _ := testService(fetcher, &now)

	svc.GetQuote("KO")

	now = now.Add(2 * time.Hour)
	if got := svc.GetQuote("KO"); got != nil {
		t.Errorf("stale entry must not be served as a fallback, got %+v", got)
	}
}

func TestGetQuote_MissAndFetchFailure(t *testing.T) {
	now := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	svc, _ := testService(&stubFetcher{}, &now)

	if got := svc.GetQuote("KO"); got != nil {
		t.Errorf("expected nil on miss with no upstream data, got %+v", got)
	}
}

func TestForceRefresh_BypassesFreshCache(t *testing.T) {
	now := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	fetcher := &stubFetcher{quotes: []*model.Quote{newQuote(62.5), newQuote(65.0)}}
	svc, _ := testService(fetcher, &now)

	svc.GetQuote("KO")
	refreshed := svc.ForceRefresh("KO")
	if refreshed == nil {
		t.Fatal("expected refreshed quote")
	}
	if fetcher.quoteCalls != 2 {
		t.Errorf("force refresh must hit upstream, got %d calls", fetcher.quoteCalls)
	}
	if refreshed.Price != 65.0 {
		t.Errorf("expected fresh price 65.0, got %.2f", refreshed.Price)
	}
}

func TestGetQuotes_SkipsFailures(t *testing.T) {
	now := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	fetcher := &stubFetcher{quotes: []*model.Quote{newQuote(62.5), nil}}
	svc, _ := testService(fetcher, &now)

	results := svc.GetQuotes([]string{"KO", "NOSUCH"})
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Symbol != "KO" {
		t.Errorf("unexpected symbol %q", results[0].Symbol)
	}
}

func TestCleanupOlderThan(t *testing.T) {
	now := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	fetcher := &stubFetcher{
		quotes:   []*model.Quote{newQuote(62.5), newQuote(120)},
		dividend: &model.DividendRecord{Symbol: "KO", Dividend: 0.485, Source: model.ProviderAlphaVantage},
	}
	svc, _ := testService(fetcher, &now)

	svc.GetQuote("KO")
	svc.GetDividend("KO")

	now = now.Add(8 * 24 * time.Hour)
	svc.GetQuote("ABBV") // fresh entry that must survive the sweep

	result, err := svc.CleanupOlderThan(7 * 24 * time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.DeletedQuotes != 1 || result.DeletedDividends != 1 {
		t.Errorf("expected 1 quote and 1 dividend deleted, got %+v", result)
	}

	fresh, err := svc.FreshQuotes(24 * time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fresh) != 1 || fresh[0].Symbol != "ABBV" {
		t.Errorf("expected only ABBV to survive, got %+v", fresh)
	}
}

func TestGetDividend_CachesRecord(t *testing.T) {
	now := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	fetcher := &stubFetcher{
		dividend: &model.DividendRecord{Symbol: "KO", Dividend: 0.485, Source: model.ProviderFinnhub},
	}
	svc, _ := testService(fetcher, &now)

	first := svc.GetDividend("KO")
	if first == nil || first.Dividend != 0.485 {
		t.Fatalf("unexpected record %+v", first)
	}
	svc.GetDividend("KO")
	if fetcher.dividendCalls != 1 {
		t.Errorf("expected 1 upstream dividend call, got %d", fetcher.dividendCalls)
	}
}

func TestStats(t *testing.T) {
	now := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	fetcher := &stubFetcher{quotes: []*model.Quote{newQuote(62.5)}}
	svc, _ := testService(fetcher, &now)

	svc.GetQuote("KO")
	stats, err := svc.Stats()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.TotalQuotes != 1 || stats.RecentUpdates != 1 {
		t.Errorf("unexpected stats %+v", stats)
	}
}
