package analytics

import (
	"github.com/shopspring/decimal"
)

// ForecastResult is the linear month-end projection of partial-month spend.
type ForecastResult struct {
	SpentSoFar               decimal.Decimal `json:"spent_so_far"`
	PredictedMonthlySpending decimal.Decimal `json:"predicted_monthly_spending"`
	ElapsedDays              int             `json:"elapsed_days"`
	TotalDays                int             `json:"total_days"`
	DaysRemaining            int             `json:"days_remaining"`
	LikelyToExceedBudget     bool            `json:"likely_to_exceed_budget"`
}

// Forecast projects month-end spend as a straight run rate:
// spentSoFar / elapsedDays * totalDays. Deliberately not a fitted model.
// elapsedDays is clamped to at least 1 so day one of a month forecasts
// from a single day of data instead of dividing by zero.
//
// globalLimit is the account's optional global monthly cap; with no cap
// set the exceed flag is always false.
func Forecast(spentSoFar decimal.Decimal, elapsedDays, totalDays int, globalLimit *decimal.Decimal) ForecastResult {
	if elapsedDays < 1 {
		elapsedDays = 1
	}
	if totalDays < elapsedDays {
		totalDays = elapsedDays
	}

	predicted := spentSoFar.
		Div(decimal.NewFromInt(int64(elapsedDays))).
		Mul(decimal.NewFromInt(int64(totalDays))).
		Round(2)

	exceed := globalLimit != nil && predicted.GreaterThan(*globalLimit)

	return ForecastResult{
		SpentSoFar:               spentSoFar,
		PredictedMonthlySpending: predicted,
		ElapsedDays:              elapsedDays,
		TotalDays:                totalDays,
		DaysRemaining:            totalDays - elapsedDays,
		LikelyToExceedBudget:     exceed,
	}
}
