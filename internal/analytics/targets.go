package analytics

import (
	"sort"

	"github.com/shopspring/decimal"

	"salespulse/pkg/contracts/domain"
)

// Targets compares monthly revenue against the targets sheet. Daily
// target rows roll up into months and every month observed on either
// side is reported. A month with no target, or a zero one, reads flat:
// variance and attainment both zero rather than a division artifact.
func Targets(records []domain.SalesRecord, targets []domain.TargetEntry) *TargetResult {
	actuals := make(map[string]decimal.Decimal)
	for _, rec := range records {
		month := rec.Date.Format("2006-01")
		actuals[month] = actuals[month].Add(rec.LineTotal())
	}

	goals := make(map[string]decimal.Decimal)
	for _, t := range targets {
		month := t.Date.Format("2006-01")
		goals[month] = goals[month].Add(t.Target)
	}

	months := make([]string, 0, len(actuals)+len(goals))
	seen := make(map[string]bool, len(actuals)+len(goals))
	for month := range actuals {
		if !seen[month] {
			months = append(months, month)
			seen[month] = true
		}
	}
	for month := range goals {
		if !seen[month] {
			months = append(months, month)
			seen[month] = true
		}
	}
	sort.Strings(months)

	result := &TargetResult{Rows: make([]TargetRow, 0, len(months))}
	for _, month := range months {
		row := TargetRow{
			Month:  month,
			Actual: actuals[month],
			Target: goals[month],
		}
		if !row.Target.IsZero() {
			row.Variance = row.Actual.Sub(row.Target)
			row.Attainment = row.Actual.InexactFloat64() / row.Target.InexactFloat64() * 100
		}
		result.Rows = append(result.Rows, row)
	}
	return result
}
