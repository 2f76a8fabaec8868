package portfolio

import (
	"log"
	"strings"

	"DivTracker/internal/analytics"
	"DivTracker/internal/model"
)

// QuoteGetter resolves a symbol through the cache layer. Satisfied by
// cache.Service.
type QuoteGetter interface {
	GetQuote(symbol string) *model.CachedQuote
}

// Summary bundles a portfolio, its positions and the derived valuation.
type Summary struct {
	Portfolio          model.Portfolio   `json:"portfolio"`
	AnnualDividendGoal float64           `json:"annualDividendGoal"`
	Positions          []model.Position  `json:"positions"`
	Summary            analytics.Summary `json:"summary"`
	GoalProgress       float64           `json:"goalProgress"`
}

// RefreshResult reports a portfolio-wide price refresh.
type RefreshResult struct {
	Updated          int64 `json:"updated"`
	TotalPositions   int   `json:"totalPositions"`
	TickersProcessed int   `json:"tickersProcessed"`
}

// Service layers valuation and price refresh on top of the store.
type Service struct {
	store  *Store
	quotes QuoteGetter
}

func NewService(store *Store, quotes QuoteGetter) *Service {
	return &Service{store: store, quotes: quotes}
}

func (s *Service) Store() *Store { return s.store }

// Summarize computes the portfolio's valuation and goal progress.
func (s *Service) Summarize(portfolioID int64) (*Summary, error) {
	p, err := s.store.GetPortfolio(portfolioID)
	if err != nil {
		return nil, err
	}
	positions, err := s.store.Positions(portfolioID)
	if err != nil {
		return nil, err
	}

	summary := analytics.Summarize(positions)
	result := &Summary{
		Portfolio:          *p,
		AnnualDividendGoal: p.AnnualDividendGoal(),
		Positions:          positions,
		Summary:            summary,
	}
	if p.MonthlyDividendGoal != nil {
		result.GoalProgress = analytics.GoalProgress(summary.MonthlyDividendIncome, *p.MonthlyDividendGoal)
	}
	return result, nil
}

// RefreshPrices resolves every distinct ticker in the portfolio through the
// cache and writes fresh prices back onto the positions. Tickers with no
// data are skipped.
func (s *Service) RefreshPrices(portfolioID int64) (RefreshResult, error) {
	positions, err := s.store.Positions(portfolioID)
	if err != nil {
		return RefreshResult{}, err
	}
	if len(positions) == 0 {
		if _, err := s.store.GetPortfolio(portfolioID); err != nil {
			return RefreshResult{}, err
		}
		return RefreshResult{}, nil
	}

	seen := make(map[string]bool)
	tickers := make([]string, 0, len(positions))
	for _, pos := range positions {
		t := strings.ToUpper(pos.Ticker)
		if !seen[t] {
			seen[t] = true
			tickers = append(tickers, t)
		}
	}

	result := RefreshResult{TotalPositions: len(positions), TickersProcessed: len(tickers)}
	for _, ticker := range tickers {
		entry := s.quotes.GetQuote(ticker)
		if entry == nil {
			log.Printf("[WARN] no quote data for %s, skipping price refresh", ticker)
			continue
		}
		updated, err := s.store.UpdateCurrentPrice(portfolioID, ticker, entry.Price)
		if err != nil {
			log.Printf("[ERROR] update price %s: %v", ticker, err)
			continue
		}
		result.Updated += updated
	}
	return result, nil
}

// Suggestions proposes high-yield candidates toward the portfolio's monthly
// goal from a list of fresh cached quotes.
func (s *Service) Suggestions(portfolioID int64, candidates []model.CachedQuote) ([]analytics.Suggestion, error) {
	p, err := s.store.GetPortfolio(portfolioID)
	if err != nil {
		return nil, err
	}
	if p.MonthlyDividendGoal == nil {
		return nil, nil
	}
	positions, err := s.store.Positions(portfolioID)
	if err != nil {
		return nil, err
	}
	held := make([]string, 0, len(positions))
	for _, pos := range positions {
		held = append(held, pos.Ticker)
	}
	return analytics.Suggest(candidates, held, *p.MonthlyDividendGoal), nil
}
