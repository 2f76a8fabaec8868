package analytics

import (
	"errors"
	"math"
)

// DepositFrequency selects how the recurring deposit is applied.
type DepositFrequency string

const (
	DepositMonthly DepositFrequency = "monthly"
	DepositWeekly  DepositFrequency = "weekly"
)

// weeksPerMonth converts weekly deposits to a monthly equivalent. This is a
// deliberate approximation carried over from the product's calculator, not a
// true weekly-compounding simulation.
const weeksPerMonth = 4.33

// ProjectionInput describes a compounding scenario.
type ProjectionInput struct {
	PresentValue        float64          `json:"presentValue"`
	AnnualReturnPercent float64          `json:"annualReturnPercent"`
	Years               int              `json:"years"`
	Deposit             float64          `json:"deposit"`
	Frequency           DepositFrequency `json:"frequency"`
}

// MonthPoint is one entry of the month-by-month trajectory.
type MonthPoint struct {
	Month    int     `json:"month"`
	Value    float64 `json:"value"`
	Invested float64 `json:"invested"`
	Gains    float64 `json:"gains"`
}

// Projection is the closed-form result plus the trajectory that reproduces
// it.
type Projection struct {
	FutureValue   float64      `json:"futureValue"`
	TotalInvested float64      `json:"totalInvested"`
	TotalGains    float64      `json:"totalGains"`
	Monthly       []MonthPoint `json:"monthly"`
}

// Project computes a compounding future value and its monthly breakdown.
// The annual rate converts to a monthly rate geometrically:
// (1+annual)^(1/12) - 1. Deposits land after each month's growth (ordinary
// annuity), so the trajectory's final value matches the closed form.
func Project(in ProjectionInput) (Projection, error) {
	if in.Years <= 0 {
		return Projection{}, errors.New("horizon must be at least one year")
	}
	if in.PresentValue < 0 || in.Deposit < 0 {
		return Projection{}, errors.New("amounts must not be negative")
	}

	monthlyDeposit := in.Deposit
	if in.Frequency == DepositWeekly {
		monthlyDeposit = in.Deposit * weeksPerMonth
	}

	monthlyRate := math.Pow(1+in.AnnualReturnPercent/100, 1.0/12) - 1
	totalMonths := in.Years * 12

	growth := math.Pow(1+monthlyRate, float64(totalMonths))
	futureValue := in.PresentValue * growth
	if monthlyDeposit > 0 {
		if monthlyRate == 0 {
			// The annuity formula divides by the rate; at 0% the deposits
			// simply accumulate.
			futureValue += monthlyDeposit * float64(totalMonths)
		} else {
			futureValue += monthlyDeposit * ((growth - 1) / monthlyRate)
		}
	}

	totalInvested := in.PresentValue + monthlyDeposit*float64(totalMonths)

	monthly := make([]MonthPoint, 0, totalMonths)
	value := in.PresentValue
	invested := in.PresentValue
	for month := 1; month <= totalMonths; month++ {
		value *= 1 + monthlyRate
		value += monthlyDeposit
		invested += monthlyDeposit
		monthly = append(monthly, MonthPoint{
			Month:    month,
			Value:    value,
			Invested: invested,
			Gains:    value - invested,
		})
	}

	return Projection{
		FutureValue:   futureValue,
		TotalInvested: totalInvested,
		TotalGains:    futureValue - totalInvested,
		Monthly:       monthly,
	}, nil
}
