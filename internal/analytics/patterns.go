package analytics

import (
	"time"

	"github.com/shopspring/decimal"

	"salespulse/pkg/contracts/domain"
)

// weekdayOrder is Monday-first for display.
var weekdayOrder = []time.Weekday{
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday,
	time.Friday, time.Saturday, time.Sunday,
}

// Patterns profiles sales across the days of the week. Records are
// first rolled up into daily totals and the weekday means are taken
// over those, so a day with many small orders carries the same weight
// as a day with one large order. The weekend ratio compares the
// Saturday/Sunday mean against the Monday-to-Friday mean and is zero
// whenever the weekday mean is zero.
func Patterns(records []domain.SalesRecord) *PatternResult {
	result := &PatternResult{Days: []DayPattern{}}
	if len(records) == 0 {
		return result
	}

	daily := make(map[string]decimal.Decimal)
	dayOf := make(map[string]time.Weekday)
	for _, rec := range records {
		day := rec.Date.Format("2006-01-02")
		daily[day] = daily[day].Add(rec.LineTotal())
		dayOf[day] = rec.Date.Weekday()
	}

	sums := make(map[time.Weekday]float64, 7)
	counts := make(map[time.Weekday]int, 7)
	for day, total := range daily {
		wd := dayOf[day]
		sums[wd] += total.InexactFloat64()
		counts[wd]++
	}

	var weekendSum, weekdaySum float64
	var weekendDays, weekdayDays int
	for _, wd := range weekdayOrder {
		mean := 0.0
		if counts[wd] > 0 {
			mean = sums[wd] / float64(counts[wd])
		}
		result.Days = append(result.Days, DayPattern{
			Weekday: wd.String(),
			Mean:    mean,
			Days:    counts[wd],
		})
		if wd == time.Saturday || wd == time.Sunday {
			weekendSum += sums[wd]
			weekendDays += counts[wd]
		} else {
			weekdaySum += sums[wd]
			weekdayDays += counts[wd]
		}
	}

	if weekdayDays > 0 && weekendDays > 0 {
		weekdayMean := weekdaySum / float64(weekdayDays)
		if weekdayMean != 0 {
			result.WeekendWeekdayRatio = (weekendSum / float64(weekendDays)) / weekdayMean
		}
	}
	return result
}
