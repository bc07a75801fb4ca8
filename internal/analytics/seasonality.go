package analytics

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/shopspring/decimal"

	"salespulse/internal/dataprocessing"
	"salespulse/pkg/contracts/domain"
)

// CycleSpec defines the repeating period the seasonality index is
// computed over. The cycle is always a year; Period controls how it is
// partitioned.
type CycleSpec struct {
	// Period is DimMonth (the default) or DimRetailWeek.
	Period Dimension `json:"period"`
}

// Validate rejects period dimensions the index cannot partition by.
func (s CycleSpec) Validate() error {
	switch s.Period {
	case "", DimMonth, DimRetailWeek:
		return nil
	}
	return fmt.Errorf("%w: seasonality period must be %q or %q, got %q",
		ErrInvalidConfig, DimMonth, DimRetailWeek, s.Period)
}

// Seasonality computes each period's share of its cycle total. Monthly
// cycles are emitted complete, zero-filled for months with no sales,
// so a full curve is always available per observed year; retail week
// cycles emit observed weeks only since week counts vary by year. A
// cycle whose total is zero reports every share as zero.
func Seasonality(records []domain.SalesRecord, spec CycleSpec) (*SeasonalityResult, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	period := spec.Period
	if period == "" {
		period = DimMonth
	}

	type cell struct {
		value decimal.Decimal
		units int64
	}
	cycles := make(map[string]map[string]*cell)

	for _, rec := range records {
		cycle, slot := cycleSlot(rec, period)
		periods, ok := cycles[cycle]
		if !ok {
			periods = make(map[string]*cell)
			cycles[cycle] = periods
		}
		c, ok := periods[slot]
		if !ok {
			c = &cell{}
			periods[slot] = c
		}
		c.value = c.value.Add(rec.LineTotal())
		c.units += rec.Quantity
	}

	if period == DimMonth {
		for _, periods := range cycles {
			for m := 1; m <= 12; m++ {
				slot := fmt.Sprintf("%02d", m)
				if _, ok := periods[slot]; !ok {
					periods[slot] = &cell{}
				}
			}
		}
	}

	result := &SeasonalityResult{Rows: make([]SeasonalityRow, 0, len(cycles)*12)}
	for cycle, periods := range cycles {
		total := decimal.Zero
		for _, c := range periods {
			total = total.Add(c.value)
		}
		totalF := total.InexactFloat64()

		for slot, c := range periods {
			row := SeasonalityRow{
				Cycle:  cycle,
				Period: slot,
				Value:  c.value,
				Units:  c.units,
			}
			if totalF != 0 {
				row.Share = c.value.InexactFloat64() / totalF
			}
			if c.units != 0 {
				row.WeightedPrice = c.value.InexactFloat64() / float64(c.units)
			}
			result.Rows = append(result.Rows, row)
		}
	}

	sort.Slice(result.Rows, func(i, j int) bool {
		if result.Rows[i].Cycle != result.Rows[j].Cycle {
			return result.Rows[i].Cycle < result.Rows[j].Cycle
		}
		return result.Rows[i].Period < result.Rows[j].Period
	})
	return result, nil
}

// cycleSlot places a record in its cycle and period slot. Monthly
// slots follow the source year stamp; retail week slots follow the
// retail calendar, which can move late December into the next year.
func cycleSlot(rec domain.SalesRecord, period Dimension) (cycle, slot string) {
	if period == DimRetailWeek {
		week := dataprocessing.WeekOf(rec.Date)
		return strconv.Itoa(week.Year), fmt.Sprintf("W%02d", week.Week)
	}
	return strconv.Itoa(rec.Year), rec.Date.Format("01")
}
