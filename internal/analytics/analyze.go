package analytics

import (
	"time"

	"github.com/Shadow-Howl-Sec/FinPilot/internal/core"
	"github.com/shopspring/decimal"
)

// DefaultWindowDays is the rolling analysis window used when the caller
// does not pick one.
const DefaultWindowDays = 30

// AnalyticsSummary is the rolling-window spending breakdown. Categories
// with no cleared spend in the window are absent from CategoryBreakdown,
// which keeps "no spend" distinguishable from "spend of exactly zero".
type AnalyticsSummary struct {
	WindowDays        int                               `json:"window_days"`
	AsOf              time.Time                         `json:"as_of"`
	TotalSpent        decimal.Decimal                   `json:"total_spent"`
	AverageDailySpend decimal.Decimal                   `json:"average_daily_spend"`
	CategoryBreakdown map[core.Category]decimal.Decimal `json:"category_breakdown"`
	ExpenseCount      int                               `json:"expense_count"`
}

// Analyze sums cleared transactions over the windowDays ending at asOf.
// The daily average divides by the full window length rather than the days
// that actually had data, so a sparse week does not inflate the run rate
// fed into forecasting.
func Analyze(txs []core.Transaction, windowDays int, asOf time.Time) AnalyticsSummary {
	if windowDays <= 0 {
		windowDays = DefaultWindowDays
	}
	asOf = asOf.UTC()
	window := Window{
		From: asOf.AddDate(0, 0, -windowDays),
		To:   asOf.Add(time.Second), // include transactions stamped exactly asOf
	}

	summary := AnalyticsSummary{
		WindowDays:        windowDays,
		AsOf:              asOf,
		TotalSpent:        decimal.Zero,
		AverageDailySpend: decimal.Zero,
		CategoryBreakdown: make(map[core.Category]decimal.Decimal),
	}

	for _, tx := range txs {
		if tx.Status != core.StatusCleared {
			continue
		}
		if !window.Contains(tx.OccurredAt) {
			continue
		}
		summary.TotalSpent = summary.TotalSpent.Add(tx.Amount)
		summary.ExpenseCount++
		if prev, ok := summary.CategoryBreakdown[tx.Category]; ok {
			summary.CategoryBreakdown[tx.Category] = prev.Add(tx.Amount)
		} else {
			summary.CategoryBreakdown[tx.Category] = tx.Amount
		}
	}

	summary.AverageDailySpend = summary.TotalSpent.
		DivRound(decimal.NewFromInt(int64(windowDays)), 2)

	return summary
}

// MonthToDateSpend sums cleared spend from the first of asOf's month
// through asOf inclusive. It feeds the month-end forecast.
func MonthToDateSpend(txs []core.Transaction, asOf time.Time) decimal.Decimal {
	asOf = asOf.UTC()
	window := Window{
		From: time.Date(asOf.Year(), asOf.Month(), 1, 0, 0, 0, 0, time.UTC),
		To:   asOf.Add(time.Second),
	}
	total := decimal.Zero
	for _, tx := range txs {
		if tx.Status != core.StatusCleared {
			continue
		}
		if !window.Contains(tx.OccurredAt) {
			continue
		}
		total = total.Add(tx.Amount)
	}
	return total
}
