package analytics

import (
	"math"
	"sort"
	"strings"

	"DivTracker/internal/model"
)

// GoalProgress returns monthly income as a percent of the monthly goal,
// uncapped. Callers clamp to 100 for progress-bar rendering only. An unset
// or non-positive goal yields 0.
func GoalProgress(monthlyIncome, monthlyGoal float64) float64 {
	if monthlyGoal <= 0 {
		return 0
	}
	return monthlyIncome / monthlyGoal * 100
}

// Suggestion proposes a holding that would cover the monthly dividend goal
// on its own.
type Suggestion struct {
	Ticker           string  `json:"ticker"`
	CurrentPrice     float64 `json:"currentPrice"`
	DividendYield    float64 `json:"dividendYield"`
	AnnualDividend   float64 `json:"annualDividend"` // per share
	SharesNeeded     int     `json:"sharesNeeded"`
	InvestmentNeeded float64 `json:"investmentNeeded"`
	MonthlyIncome    float64 `json:"monthlyIncome"`
}

const (
	suggestionMinYield     = 3.0
	suggestionCandidateCap = 10
	suggestionResultCap    = 5
)

// Suggest builds up to five suggestions from fresh cached quotes: the
// highest-yield candidates not already held, ranked by the smallest
// investment that reaches the goal.
func Suggest(quotes []model.CachedQuote, heldTickers []string, monthlyGoal float64) []Suggestion {
	if monthlyGoal <= 0 {
		return nil
	}

	held := make(map[string]bool, len(heldTickers))
	for _, t := range heldTickers {
		held[strings.ToUpper(t)] = true
	}

	candidates := make([]model.CachedQuote, 0, len(quotes))
	for _, q := range quotes {
		if q.DividendYield == nil || *q.DividendYield < suggestionMinYield || q.Price <= 0 {
			continue
		}
		candidates = append(candidates, q)
	}
	sort.Slice(candidates, func(i, j int) bool {
		return *candidates[i].DividendYield > *candidates[j].DividendYield
	})
	if len(candidates) > suggestionCandidateCap {
		candidates = candidates[:suggestionCandidateCap]
	}

	suggestions := make([]Suggestion, 0, len(candidates))
	for _, q := range candidates {
		if held[strings.ToUpper(q.Symbol)] {
			continue
		}
		annualDividend := q.Price * *q.DividendYield / 100
		monthlyDividend := annualDividend / 12
		sharesNeeded := int(math.Ceil(monthlyGoal / monthlyDividend))
		suggestions = append(suggestions, Suggestion{
			Ticker:           q.Symbol,
			CurrentPrice:     q.Price,
			DividendYield:    *q.DividendYield,
			AnnualDividend:   annualDividend,
			SharesNeeded:     sharesNeeded,
			InvestmentNeeded: float64(sharesNeeded) * q.Price,
			MonthlyIncome:    float64(sharesNeeded) * monthlyDividend,
		})
	}

	// Cheapest route to the goal first.
	sort.Slice(suggestions, func(i, j int) bool {
		return suggestions[i].InvestmentNeeded < suggestions[j].InvestmentNeeded
	})
	if len(suggestions) > suggestionResultCap {
		suggestions = suggestions[:suggestionResultCap]
	}
	return suggestions
}
