package marketdata

import (
	"log"

	"DivTracker/internal/model"
)

// Service tries providers in a fixed priority order and returns the first
// successful result. Provider failures (network, parse, provider-reported
// errors, exhausted quotas) are logged and absorbed; callers only ever see
// data or nil.
type Service struct {
	clients []Client
}

// NewService creates a Service with clients in priority order.
func NewService(clients ...Client) *Service {
	return &Service{clients: clients}
}

// GetQuote returns the first provider's successful quote, merging a dividend
// yield from another provider's fundamentals when the winner lacks one.
// Returns nil when every provider fails.
func (s *Service) GetQuote(symbol string) *model.Quote {
	for _, c := range s.clients {
		quote, err := c.FetchQuote(symbol)
		if err != nil {
			log.Printf("[WARN] %s quote %s: %v", c.Name(), symbol, err)
			continue
		}
		if quote.DividendYield == nil {
			s.mergeYield(symbol, quote)
		}
		return quote
	}
	log.Printf("[WARN] no provider returned quote data for %s", symbol)
	return nil
}

// mergeYield fills in the dividend yield from the first provider whose
// fundamentals endpoint can supply one, keeping the winning quote's price
// and change fields intact.
func (s *Service) mergeYield(symbol string, quote *model.Quote) {
	for _, c := range s.clients {
		f, err := c.FetchFundamentals(symbol)
		if err != nil {
			log.Printf("[WARN] %s fundamentals %s: %v", c.Name(), symbol, err)
			continue
		}
		yield := f.DividendYield
		quote.DividendYield = &yield
		return
	}
}

// GetDividend walks the same priority list for the latest dividend record.
// Returns nil when every provider fails.
func (s *Service) GetDividend(symbol string) *model.DividendRecord {
	for _, c := range s.clients {
		record, err := c.FetchDividend(symbol)
		if err != nil {
			log.Printf("[WARN] %s dividend %s: %v", c.Name(), symbol, err)
			continue
		}
		return record
	}
	log.Printf("[WARN] no provider returned dividend data for %s", symbol)
	return nil
}
