package analytics

import (
	"math"
	"testing"
	"time"

	"DivTracker/internal/model"
)

func fptr(v float64) *float64 { return &v }

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestSummarize_SinglePosition(t *testing.T) {
	positions := []model.Position{{
		Ticker:        "KO",
		Shares:        10,
		PurchasePrice: 100,
		PurchaseDate:  time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		CurrentPrice:  fptr(110),
		DividendYield: fptr(3),
	}}

	s := Summarize(positions)
	if !almostEqual(s.TotalInvested, 1000) {
		t.Errorf("cost basis: expected 1000, got %v", s.TotalInvested)
	}
	if !almostEqual(s.TotalCurrentValue, 1100) {
		t.Errorf("market value: expected 1100, got %v", s.TotalCurrentValue)
	}
	if !almostEqual(s.TotalUnrealizedGainLoss, 100) {
		t.Errorf("gain: expected 100, got %v", s.TotalUnrealizedGainLoss)
	}
	if !almostEqual(s.TotalUnrealizedGainLossPercent, 10) {
		t.Errorf("gain percent: expected 10, got %v", s.TotalUnrealizedGainLossPercent)
	}
	// Yield-on-cost: 10 × 100 × 0.03, not 10 × 110 × 0.03.
	if !almostEqual(s.TotalAnnualDividends, 30) {
		t.Errorf("annual dividends: expected 30, got %v", s.TotalAnnualDividends)
	}
	if !almostEqual(s.MonthlyDividendIncome, 2.5) {
		t.Errorf("monthly income: expected 2.5, got %v", s.MonthlyDividendIncome)
	}
}

func TestSummarize_DefaultsWhenOptionalFieldsMissing(t *testing.T) {
	positions := []model.Position{{
		Ticker:        "XYZ",
		Shares:        5,
		PurchasePrice: 40,
	}}

	s := Summarize(positions)
	// No live price: market value falls back to cost basis.
	if !almostEqual(s.TotalCurrentValue, 200) || !almostEqual(s.TotalUnrealizedGainLoss, 0) {
		t.Errorf("expected flat position, got %+v", s)
	}
	// No yield: no dividend income.
	if s.TotalAnnualDividends != 0 {
		t.Errorf("expected 0 dividends, got %v", s.TotalAnnualDividends)
	}
}

func TestSummarize_EmptyPortfolioNoDivisionByZero(t *testing.T) {
	s := Summarize(nil)
	if s.TotalUnrealizedGainLossPercent != 0 {
		t.Errorf("expected 0%% gain for empty portfolio, got %v", s.TotalUnrealizedGainLossPercent)
	}
	if s.PortfolioDividendYield != 0 {
		t.Errorf("expected 0%% yield for empty portfolio, got %v", s.PortfolioDividendYield)
	}
	if math.IsNaN(s.TotalUnrealizedGainLossPercent) || math.IsInf(s.PortfolioDividendYield, 0) {
		t.Error("percentages must never be NaN or Inf")
	}
	if s.PositionCount != 0 {
		t.Errorf("expected 0 positions, got %d", s.PositionCount)
	}
}

func TestSummarize_PortfolioYieldAgainstMarketValue(t *testing.T) {
	positions := []model.Position{
		{Ticker: "KO", Shares: 10, PurchasePrice: 100, CurrentPrice: fptr(110), DividendYield: fptr(3)},
		{Ticker: "O", Shares: 20, PurchasePrice: 50, CurrentPrice: fptr(55), DividendYield: fptr(5)},
	}

	s := Summarize(positions)
	// 30 + 50 dollars of income against 1100 + 1100 of market value.
	if !almostEqual(s.TotalAnnualDividends, 80) {
		t.Errorf("expected 80 of income, got %v", s.TotalAnnualDividends)
	}
	want := 80.0 / 2200.0 * 100
	if !almostEqual(s.PortfolioDividendYield, want) {
		t.Errorf("expected portfolio yield %.4f, got %v", want, s.PortfolioDividendYield)
	}

	var weights float64
	for _, p := range s.Positions {
		weights += p.Weight
	}
	if !almostEqual(weights, 100) {
		t.Errorf("weights must sum to 100, got %v", weights)
	}
}
