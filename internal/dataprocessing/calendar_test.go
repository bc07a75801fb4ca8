package dataprocessing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestFirstWeekStart(t *testing.T) {
	tests := []struct {
		name string
		year int
		want time.Time
	}{
		// Jan 1 2023 is a Sunday; the opening Saturday is the day before.
		{name: "2023 opens in december 2022", year: 2023, want: date(2022, time.December, 31)},
		// Jan 1 2024 is a Monday.
		{name: "2024 opens in december 2023", year: 2024, want: date(2023, time.December, 30)},
		// Jan 1 2025 is a Wednesday.
		{name: "2025 opens in december 2024", year: 2025, want: date(2024, time.December, 28)},
		// Jan 1 2022 is a Saturday itself.
		{name: "2022 opens on january 1", year: 2022, want: date(2022, time.January, 1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FirstWeekStart(tt.year)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, time.Saturday, got.Weekday())
		})
	}
}

func TestWeekOf(t *testing.T) {
	tests := []struct {
		name string
		date time.Time
		want RetailWeek
	}{
		{
			name: "january 1 in week 1",
			date: date(2023, time.January, 1),
			want: RetailWeek{Year: 2023, Week: 1},
		},
		{
			name: "saturday starts a new week",
			date: date(2024, time.January, 6),
			want: RetailWeek{Year: 2024, Week: 2},
		},
		{
			name: "friday closes the week",
			date: date(2024, time.January, 5),
			want: RetailWeek{Year: 2024, Week: 1},
		},
		{
			name: "late december rolls into next retail year",
			date: date(2024, time.December, 28),
			want: RetailWeek{Year: 2025, Week: 1},
		},
		{
			name: "december 31 after opening saturday",
			date: date(2024, time.December, 31),
			want: RetailWeek{Year: 2025, Week: 1},
		},
		{
			name: "friday before the rollover stays in its year",
			date: date(2024, time.December, 27),
			want: RetailWeek{Year: 2024, Week: 52},
		},
		{
			name: "timestamps are treated as dates",
			date: time.Date(2024, time.January, 6, 23, 59, 59, 0, time.UTC),
			want: RetailWeek{Year: 2024, Week: 2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, WeekOf(tt.date))
		})
	}
}

func TestWeekOfNeverExceedsGrid(t *testing.T) {
	// Walk several years of days and verify the week grid invariants hold
	// everywhere, including leap years and year boundaries.
	for d := date(2022, time.January, 1); d.Before(date(2026, time.January, 1)); d = d.AddDate(0, 0, 1) {
		w := WeekOf(d)
		assert.True(t, w.IsValid(), "invalid week %v for %s", w, d.Format("2006-01-02"))
		assert.GreaterOrEqual(t, w.Year, d.Year())
		assert.LessOrEqual(t, w.Year, d.Year()+1)
	}
}

func TestWeekRange(t *testing.T) {
	start, end := WeekRange(RetailWeek{Year: 2025, Week: 1})
	assert.Equal(t, date(2024, time.December, 28), start)
	assert.Equal(t, date(2025, time.January, 3), end)
	assert.Equal(t, time.Saturday, start.Weekday())
	assert.Equal(t, time.Friday, end.Weekday())

	// Every date inside the range maps back to the same week.
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		assert.Equal(t, RetailWeek{Year: 2025, Week: 1}, WeekOf(d))
	}
}

func TestMonthOfWeek(t *testing.T) {
	tests := []struct {
		week int
		want time.Month
	}{
		{week: 1, want: time.January},
		{week: 4, want: time.January},
		{week: 5, want: time.February},
		{week: 9, want: time.February},
		{week: 10, want: time.March},
		{week: 14, want: time.April},
		{week: 22, want: time.May},
		{week: 26, want: time.June},
		{week: 30, want: time.July},
		{week: 35, want: time.August},
		{week: 39, want: time.September},
		{week: 43, want: time.October},
		{week: 48, want: time.November},
		{week: 49, want: time.December},
		{week: 53, want: time.December},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, MonthOfWeek(tt.week), "week %d", tt.week)
	}
}

func TestRetailWeekString(t *testing.T) {
	assert.Equal(t, "2025-W07", RetailWeek{Year: 2025, Week: 7}.String())
	assert.Equal(t, "2024-W52", RetailWeek{Year: 2024, Week: 52}.String())
}
