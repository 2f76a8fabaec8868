package model

import "time"

// Portfolio is a named collection of positions. At most one portfolio is
// the main one.
type Portfolio struct {
	ID                  int64     `json:"id"`
	Name                string    `json:"name"`
	IsMain              bool      `json:"isMain"`
	MonthlyDividendGoal *float64  `json:"monthlyDividendGoal,omitempty"`
	CreatedAt           time.Time `json:"createdAt"`
	UpdatedAt           time.Time `json:"updatedAt"`
}

// AnnualDividendGoal derives the yearly goal from the monthly one.
func (p Portfolio) AnnualDividendGoal() float64 {
	if p.MonthlyDividendGoal == nil {
		return 0
	}
	return *p.MonthlyDividendGoal * 12
}

// Position is a simple long equity holding inside a portfolio.
type Position struct {
	ID            int64     `json:"id"`
	PortfolioID   int64     `json:"portfolioId"`
	Ticker        string    `json:"ticker"`
	Shares        float64   `json:"shares"`
	PurchasePrice float64   `json:"purchasePrice"`
	PurchaseDate  time.Time `json:"purchaseDate"`
	CurrentPrice  *float64  `json:"currentPrice,omitempty"`
	DividendYield *float64  `json:"dividendYield,omitempty"` // percent
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// EffectivePrice is the current price when known, otherwise the purchase
// price.
func (p Position) EffectivePrice() float64 {
	if p.CurrentPrice != nil {
		return *p.CurrentPrice
	}
	return p.PurchasePrice
}

// YieldPercent returns the dividend yield, defaulting to 0 when unset.
func (p Position) YieldPercent() float64 {
	if p.DividendYield == nil {
		return 0
	}
	return *p.DividendYield
}
