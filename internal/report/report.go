// Package report assembles the per-account dashboard snapshot from the pure
// engines: integrity verification, budget variance, spending analytics,
// forecast and audit.
package report

import (
	"time"

	"github.com/Shadow-Howl-Sec/FinPilot/internal/analytics"
	"github.com/Shadow-Howl-Sec/FinPilot/internal/chain"
	"github.com/Shadow-Howl-Sec/FinPilot/internal/core"
)

// Snapshot is the full derived state of one account at a point in time.
// All members are plain data, safe to hand to any wire format.
type Snapshot struct {
	AccountID   int64                      `json:"account_id"`
	Currency    string                     `json:"currency"`
	GeneratedAt time.Time                  `json:"generated_at"`
	Integrity   chain.IntegrityReport      `json:"integrity"`
	Budgets     []analytics.VarianceReport `json:"budgets"`
	Analytics   analytics.AnalyticsSummary `json:"analytics"`
	Forecast    analytics.ForecastResult   `json:"forecast"`
	Audit       analytics.AuditReport      `json:"audit"`
}

// Build runs every engine over one consistent snapshot of the account's
// data. windowDays sets the rolling analytics window; zero or negative
// falls back to analytics.DefaultWindowDays. Analytics and variance run
// over the stored transactions even when the chain is compromised; the
// integrity report rides alongside so the consumer decides how to react,
// and tampered entries are never silently dropped from totals.
func Build(account core.Account, txs []core.Transaction, budgets []core.Budget, windowDays int, asOf time.Time) Snapshot {
	asOf = asOf.UTC()
	monthSpend := analytics.MonthToDateSpend(txs, asOf)

	return Snapshot{
		AccountID:   account.ID,
		Currency:    account.Currency,
		GeneratedAt: asOf,
		Integrity:   chain.Verify(txs),
		Budgets:     analytics.VarianceAll(budgets, txs, asOf),
		Analytics:   analytics.Analyze(txs, windowDays, asOf),
		Forecast:    analytics.Forecast(monthSpend, asOf.Day(), daysInMonth(asOf), account.MonthlyLimit),
		Audit:       analytics.Audit(txs, asOf),
	}
}

func daysInMonth(t time.Time) int {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
