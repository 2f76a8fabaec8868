package analytics

import "DivTracker/internal/model"

// PositionMetrics holds the derived figures for a single holding.
type PositionMetrics struct {
	Ticker          string  `json:"ticker"`
	Shares          float64 `json:"shares"`
	CostBasis       float64 `json:"costBasis"`
	MarketValue     float64 `json:"marketValue"`
	GainLoss        float64 `json:"gainLoss"`
	GainLossPercent float64 `json:"gainLossPercent"`
	AnnualDividend  float64 `json:"annualDividend"`
	Weight          float64 `json:"weight"` // percent of portfolio market value
}

// Summary aggregates a position list into portfolio-level figures.
type Summary struct {
	TotalInvested                  float64           `json:"totalInvested"`
	TotalCurrentValue              float64           `json:"totalCurrentValue"`
	TotalUnrealizedGainLoss        float64           `json:"totalUnrealizedGainLoss"`
	TotalUnrealizedGainLossPercent float64           `json:"totalUnrealizedGainLossPercent"`
	TotalAnnualDividends           float64           `json:"totalAnnualDividends"`
	PortfolioDividendYield         float64           `json:"portfolioDividendYield"`
	MonthlyDividendIncome          float64           `json:"monthlyDividendIncome"`
	PositionCount                  int               `json:"positionCount"`
	Positions                      []PositionMetrics `json:"positions"`
}

// Summarize computes portfolio valuation from a position list. Positions
// without a live price fall back to their purchase price. Annual dividend
// income is yield-on-cost: shares × purchase price × yield, not current
// market value.
func Summarize(positions []model.Position) Summary {
	summary := Summary{
		PositionCount: len(positions),
		Positions:     make([]PositionMetrics, 0, len(positions)),
	}

	for _, pos := range positions {
		costBasis := pos.Shares * pos.PurchasePrice
		marketValue := pos.Shares * pos.EffectivePrice()
		gainLoss := marketValue - costBasis

		m := PositionMetrics{
			Ticker:         pos.Ticker,
			Shares:         pos.Shares,
			CostBasis:      costBasis,
			MarketValue:    marketValue,
			GainLoss:       gainLoss,
			AnnualDividend: pos.Shares * pos.PurchasePrice * pos.YieldPercent() / 100,
		}
		if costBasis > 0 {
			m.GainLossPercent = gainLoss / costBasis * 100
		}

		summary.TotalInvested += costBasis
		summary.TotalCurrentValue += marketValue
		summary.TotalAnnualDividends += m.AnnualDividend
		summary.Positions = append(summary.Positions, m)
	}

	summary.TotalUnrealizedGainLoss = summary.TotalCurrentValue - summary.TotalInvested
	if summary.TotalInvested > 0 {
		summary.TotalUnrealizedGainLossPercent = summary.TotalUnrealizedGainLoss / summary.TotalInvested * 100
	}
	if summary.TotalCurrentValue > 0 {
		summary.PortfolioDividendYield = summary.TotalAnnualDividends / summary.TotalCurrentValue * 100
		for i := range summary.Positions {
			summary.Positions[i].Weight = summary.Positions[i].MarketValue / summary.TotalCurrentValue * 100
		}
	}
	summary.MonthlyDividendIncome = summary.TotalAnnualDividends / 12

	return summary
}
