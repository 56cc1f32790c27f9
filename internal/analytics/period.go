// Package analytics derives budget variance, spending summaries, forecasts
// and audit findings from an account's transaction set. Every function here
// is pure over the inputs it is handed; computations run over the stored
// data as-is, and integrity findings are surfaced separately rather than
// filtering entries out.
package analytics

import (
	"time"

	"github.com/Shadow-Howl-Sec/FinPilot/internal/core"
)

// Window is a half-open time interval [From, To).
type Window struct {
	From time.Time
	To   time.Time
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.From) && t.Before(w.To)
}

// PeriodWindow returns the calendar window of the given period containing
// asOf: the calendar month, the quarter block (Jan/Apr/Jul/Oct) or the
// calendar year.
func PeriodWindow(p core.Period, asOf time.Time) Window {
	asOf = asOf.UTC()
	switch p {
	case core.Quarterly:
		qStart := time.Month((int(asOf.Month())-1)/3*3 + 1)
		from := time.Date(asOf.Year(), qStart, 1, 0, 0, 0, 0, time.UTC)
		return Window{From: from, To: from.AddDate(0, 3, 0)}
	case core.Yearly:
		from := time.Date(asOf.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
		return Window{From: from, To: from.AddDate(1, 0, 0)}
	default: // monthly
		from := time.Date(asOf.Year(), asOf.Month(), 1, 0, 0, 0, 0, time.UTC)
		return Window{From: from, To: from.AddDate(0, 1, 0)}
	}
}

// PreviousPeriodWindow returns the window immediately before the one
// containing asOf for the same period.
func PreviousPeriodWindow(p core.Period, asOf time.Time) Window {
	current := PeriodWindow(p, asOf)
	return PeriodWindow(p, current.From.Add(-time.Second))
}
