package analytics

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/shopspring/decimal"

	"salespulse/pkg/contracts/domain"
)

// CompareYears aligns two years of records on a shared period-of-year
// axis (month or retail week) and derives the change per period. Keys
// in the output are period slots ("01".."12" for months, "W01".."W53"
// for retail weeks), so January 2024 lines up against January 2023
// regardless of the calendar prefix either aggregation would carry.
func CompareYears(records []domain.SalesRecord, currentYear, priorYear int, period Dimension, metric Metric) (*ComparisonResult, error) {
	switch period {
	case DimMonth, DimRetailWeek:
	default:
		return nil, fmt.Errorf("%w: year comparison period must be %q or %q, got %q",
			ErrInvalidConfig, DimMonth, DimRetailWeek, period)
	}
	if !metric.IsValid() {
		return nil, fmt.Errorf("%w: unknown metric %q", ErrInvalidConfig, metric)
	}

	current := aggregateByPeriodSlot(records, currentYear, period)
	prior := aggregateByPeriodSlot(records, priorYear, period)
	return Compare(current, prior, metric)
}

// aggregateByPeriodSlot groups one year's records by their slot within
// the year, discarding the year component from the key.
func aggregateByPeriodSlot(records []domain.SalesRecord, year int, period Dimension) *AggregationResult {
	groups := make(map[string]*Group)
	for _, rec := range records {
		if rec.Year != year {
			continue
		}
		_, slot := cycleSlot(rec, period)
		g, ok := groups[slot]
		if !ok {
			g = &Group{Key: Key{slot}}
			groups[slot] = g
		}
		g.Value = g.Value.Add(rec.LineTotal())
		g.Units += rec.Quantity
		g.Orders++
	}

	result := &AggregationResult{
		Dimensions: []Dimension{period},
		Groups:     make([]Group, 0, len(groups)),
		byKey:      make(map[string]int, len(groups)),
	}
	for _, g := range groups {
		g.Average = g.Value.DivRound(decimal.NewFromInt(int64(g.Orders)), 4)
		result.Groups = append(result.Groups, *g)
	}
	sort.Slice(result.Groups, func(i, j int) bool {
		return lessKey(result.Groups[i].Key, result.Groups[j].Key)
	})
	for i, g := range result.Groups {
		result.byKey[g.Key.String()] = i
	}
	return result
}

// MonthName renders a "01".."12" slot as its short month name for
// display layers that prefer "Jan" over a zero-padded number.
func MonthName(slot string) string {
	n, err := strconv.Atoi(slot)
	if err != nil || n < 1 || n > 12 {
		return slot
	}
	return [...]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun",
		"Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}[n-1]
}
