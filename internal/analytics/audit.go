package analytics

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/Shadow-Howl-Sec/FinPilot/internal/core"
	"github.com/shopspring/decimal"
)

const (
	SeverityHigh   Severity = "High"
	SeverityMedium Severity = "Medium"

	AnomalyDuplicate     = "Duplicate Entry"
	AnomalyOutlier       = "Spending Outlier"
	AnomalyCategoryShift = "Category Shift"

	// outlierMinSamples is the minimum number of prior same-category
	// entries needed before an amount can be judged an outlier.
	outlierMinSamples = 5

	// taxReadyThreshold is the compliance score above which the books are
	// considered filing-ready.
	taxReadyThreshold = 90
)

// duplicateMaterialityThreshold raises a duplicate's severity to High.
var duplicateMaterialityThreshold = decimal.NewFromInt(5000)

// Category shift bounds: the prior month must clear the baseline before a
// surge past the multiplier is reportable, so small budgets do not alarm on
// ordinary variation.
var (
	shiftBaselineThreshold = decimal.NewFromInt(5000)
	shiftMultiplier        = decimal.RequireFromString("1.5")
)

type (
	Severity string

	// Anomaly is one audit finding.
	Anomaly struct {
		Type     string   `json:"type"`
		Severity Severity `json:"severity"`
		Details  string   `json:"details"`
	}

	// Compliance scores metadata completeness across the transaction set.
	// Each transaction is expected to carry a reference number, a payee
	// and a real (non-"other") category.
	Compliance struct {
		Score              int  `json:"score"`
		MissingPayeeCount  int  `json:"missing_payee_count"`
		MissingRefCount    int  `json:"missing_reference_count"`
		UncategorizedCount int  `json:"uncategorized_count"`
		TaxReady           bool `json:"tax_ready"`
	}

	// AuditReport bundles anomaly findings with the compliance score.
	AuditReport struct {
		Anomalies  []Anomaly  `json:"anomalies"`
		Compliance Compliance `json:"compliance"`
	}
)

// Audit runs the independent anomaly detectors over the transaction set and
// scores metadata completeness. asOf anchors the month-over-month category
// shift comparison. Detector results are concatenated; missing metadata
// lowers the compliance score but is not itself an anomaly.
func Audit(txs []core.Transaction, asOf time.Time) AuditReport {
	report := AuditReport{}
	report.Anomalies = append(report.Anomalies, detectDuplicates(txs)...)
	report.Anomalies = append(report.Anomalies, detectOutliers(txs)...)
	report.Anomalies = append(report.Anomalies, detectCategoryShift(txs, asOf)...)
	report.Compliance = scoreCompliance(txs)
	return report
}

type duplicateKey struct {
	amount string
	payee  string
	day    string
}

// detectDuplicates flags groups of cleared transactions with identical
// amount and payee on the same calendar day. Each group yields exactly one
// finding regardless of its size.
func detectDuplicates(txs []core.Transaction) []Anomaly {
	groups := make(map[duplicateKey]int)
	order := make([]duplicateKey, 0)
	for _, tx := range txs {
		if tx.Status != core.StatusCleared {
			continue
		}
		// StringFixed keeps 50 and 50.00 in the same group.
		key := duplicateKey{
			amount: tx.Amount.StringFixed(2),
			payee:  tx.Payee,
			day:    tx.OccurredAt.UTC().Format("2006-01-02"),
		}
		if groups[key] == 0 {
			order = append(order, key)
		}
		groups[key]++
	}

	var anomalies []Anomaly
	for _, key := range order {
		count := groups[key]
		if count < 2 {
			continue
		}
		severity := SeverityMedium
		amount, _ := decimal.NewFromString(key.amount)
		if amount.GreaterThan(duplicateMaterialityThreshold) {
			severity = SeverityHigh
		}
		anomalies = append(anomalies, Anomaly{
			Type:     AnomalyDuplicate,
			Severity: severity,
			Details: fmt.Sprintf("potential double-posting: %d records of %s to %q on %s",
				count, key.amount, key.payee, key.day),
		})
	}
	return anomalies
}

// detectOutliers flags transactions whose amount exceeds mean + 2*stddev of
// the prior entries in the same category. Categories with fewer than
// outlierMinSamples prior entries are skipped as insufficient data.
func detectOutliers(txs []core.Transaction) []Anomaly {
	byCategory := make(map[core.Category][]core.Transaction)
	for _, tx := range txs {
		byCategory[tx.Category] = append(byCategory[tx.Category], tx)
	}

	categories := make([]core.Category, 0, len(byCategory))
	for c := range byCategory {
		categories = append(categories, c)
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i] < categories[j] })

	var anomalies []Anomaly
	for _, c := range categories {
		entries := byCategory[c]
		sort.SliceStable(entries, func(i, j int) bool {
			return entries[i].OccurredAt.Before(entries[j].OccurredAt)
		})
		for i, tx := range entries {
			prior := entries[:i]
			if len(prior) < outlierMinSamples {
				continue
			}
			mean, stddev := amountStats(prior)
			threshold := mean + 2*stddev
			if tx.Amount.InexactFloat64() > threshold {
				anomalies = append(anomalies, Anomaly{
					Type:     AnomalyOutlier,
					Severity: SeverityHigh,
					Details: fmt.Sprintf("significant transaction: %s in %s (category mean %.2f, stddev %.2f)",
						tx.Amount, tx.Category, mean, stddev),
				})
			}
		}
	}
	return anomalies
}

// detectCategoryShift flags categories whose spend in asOf's month surged
// past shiftMultiplier times the prior month's total, once the prior month
// cleared the baseline.
func detectCategoryShift(txs []core.Transaction, asOf time.Time) []Anomaly {
	currentWindow := PeriodWindow(core.Monthly, asOf)
	priorWindow := PreviousPeriodWindow(core.Monthly, asOf)

	currentTotals := make(map[core.Category]decimal.Decimal)
	priorTotals := make(map[core.Category]decimal.Decimal)
	for _, tx := range txs {
		switch {
		case currentWindow.Contains(tx.OccurredAt):
			currentTotals[tx.Category] = currentTotals[tx.Category].Add(tx.Amount)
		case priorWindow.Contains(tx.OccurredAt):
			priorTotals[tx.Category] = priorTotals[tx.Category].Add(tx.Amount)
		}
	}

	categories := make([]core.Category, 0, len(priorTotals))
	for c := range priorTotals {
		categories = append(categories, c)
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i] < categories[j] })

	var anomalies []Anomaly
	for _, c := range categories {
		prior := priorTotals[c]
		current := currentTotals[c]
		if !prior.GreaterThan(shiftBaselineThreshold) {
			continue
		}
		if !current.GreaterThan(prior.Mul(shiftMultiplier)) {
			continue
		}
		surgePct := current.Div(prior).
			Sub(decimal.NewFromInt(1)).
			Mul(decimal.NewFromInt(100)).
			Round(0)
		anomalies = append(anomalies, Anomaly{
			Type:     AnomalyCategoryShift,
			Severity: SeverityMedium,
			Details: fmt.Sprintf("spending in %s surged %s%% over the prior month",
				c, surgePct),
		})
	}
	return anomalies
}

func amountStats(txs []core.Transaction) (mean, stddev float64) {
	n := float64(len(txs))
	var sum float64
	for _, tx := range txs {
		sum += tx.Amount.InexactFloat64()
	}
	mean = sum / n

	var variance float64
	for _, tx := range txs {
		d := tx.Amount.InexactFloat64() - mean
		variance += d * d
	}
	return mean, math.Sqrt(variance / n)
}

// scoreCompliance computes 100 * fields_present / fields_expected over all
// transactions. An empty set is trivially complete.
func scoreCompliance(txs []core.Transaction) Compliance {
	c := Compliance{Score: 100}
	if len(txs) == 0 {
		c.TaxReady = true
		return c
	}

	present := 0
	for _, tx := range txs {
		if tx.ReferenceNo != "" {
			present++
		} else {
			c.MissingRefCount++
		}
		if tx.Payee != "" {
			present++
		} else {
			c.MissingPayeeCount++
		}
		if tx.Category != core.CategoryOther {
			present++
		} else {
			c.UncategorizedCount++
		}
	}

	expected := len(txs) * 3
	c.Score = int(math.Round(100 * float64(present) / float64(expected)))
	c.TaxReady = c.Score > taxReadyThreshold
	return c
}
