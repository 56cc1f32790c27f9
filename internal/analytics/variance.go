package analytics

import (
	"time"

	"github.com/Shadow-Howl-Sec/FinPilot/internal/core"
	"github.com/shopspring/decimal"
)

// Budget statuses. The thresholds behind them are fixed policy, not
// user-configurable.
const (
	StatusUnderBudget BudgetStatus = "Under Budget"
	StatusCritical    BudgetStatus = "Critical"
	StatusOverBudget  BudgetStatus = "Over Budget"
)

// criticalUtilizationPct marks a budget as near-limit once utilization
// crosses it while variance is still non-negative.
var criticalUtilizationPct = decimal.NewFromInt(90)

type (
	BudgetStatus string

	// VarianceReport is the computed position of one budget for the period
	// containing AsOf. EffectiveLimit equals Limit plus any rollover credit.
	VarianceReport struct {
		BudgetID       int64           `json:"budget_id"`
		Name           string          `json:"name"`
		Category       core.Category   `json:"category,omitempty"`
		Period         core.Period     `json:"period"`
		Limit          decimal.Decimal `json:"limit"`
		EffectiveLimit decimal.Decimal `json:"effective_limit"`
		Spent          decimal.Decimal `json:"spent"`
		Variance       decimal.Decimal `json:"variance"`
		UtilizationPct decimal.Decimal `json:"utilization_pct"`
		Status         BudgetStatus    `json:"status"`
		WindowFrom     time.Time       `json:"window_from"`
		WindowTo       time.Time       `json:"window_to"`
	}
)

// Variance computes a budget's position against the cleared spend in the
// period window containing asOf. Spent is always derived live from the
// transaction set; it is never read from storage. This is the single source
// of truth for "spent": every consumer (dashboards, budget listings,
// limit checks) goes through here.
//
// Rollover budgets carry the prior period's unspent base limit forward as a
// credit. The carry is computed from the base limit and the prior window's
// cleared spend only, so recomputing any number of times yields the same
// effective limit.
func Variance(b core.Budget, txs []core.Transaction, asOf time.Time) VarianceReport {
	window := PeriodWindow(b.Period, asOf)
	spent := clearedSpend(b, txs, window)

	effective := b.Limit
	if b.Rollover {
		prev := PreviousPeriodWindow(b.Period, asOf)
		unspent := b.Limit.Sub(clearedSpend(b, txs, prev))
		if unspent.IsPositive() {
			effective = effective.Add(unspent)
		}
	}

	variance := effective.Sub(spent)

	utilization := decimal.Zero
	if effective.IsPositive() {
		utilization = spent.Div(effective).Mul(decimal.NewFromInt(100)).Round(2)
	}

	status := StatusUnderBudget
	switch {
	case variance.IsNegative():
		status = StatusOverBudget
	case utilization.GreaterThan(criticalUtilizationPct):
		status = StatusCritical
	}

	return VarianceReport{
		BudgetID:       b.ID,
		Name:           b.Name,
		Category:       b.Category,
		Period:         b.Period,
		Limit:          b.Limit,
		EffectiveLimit: effective,
		Spent:          spent,
		Variance:       variance,
		UtilizationPct: utilization,
		Status:         status,
		WindowFrom:     window.From,
		WindowTo:       window.To,
	}
}

// VarianceAll computes reports for every budget over one shared snapshot.
func VarianceAll(budgets []core.Budget, txs []core.Transaction, asOf time.Time) []VarianceReport {
	reports := make([]VarianceReport, 0, len(budgets))
	for _, b := range budgets {
		reports = append(reports, Variance(b, txs, asOf))
	}
	return reports
}

func clearedSpend(b core.Budget, txs []core.Transaction, w Window) decimal.Decimal {
	total := decimal.Zero
	for _, tx := range txs {
		if tx.Status != core.StatusCleared {
			continue
		}
		if !b.Covers(tx.Category) {
			continue
		}
		if !w.Contains(tx.OccurredAt) {
			continue
		}
		total = total.Add(tx.Amount)
	}
	return total
}
