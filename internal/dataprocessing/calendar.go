package dataprocessing

import (
	"fmt"
	"time"
)

// The retail calendar runs Saturday through Friday. Week 1 of a retail
// year starts on the Saturday on or before January 1, so the last days
// of December can belong to the next retail year.

// RetailWeek identifies one Saturday-Friday week within a retail year.
type RetailWeek struct {
	Year int `json:"year"`
	Week int `json:"week"`
}

// String formats the week as e.g. "2025-W07".
func (w RetailWeek) String() string {
	return fmt.Sprintf("%d-W%02d", w.Year, w.Week)
}

// IsValid reports whether the week number is inside the 1..53 grid.
func (w RetailWeek) IsValid() bool {
	return w.Week >= 1 && w.Week <= 53 && w.Year > 0
}

// retailDayIndex maps a weekday onto the retail week, Saturday = 0
// through Friday = 6.
func retailDayIndex(d time.Weekday) int {
	return (int(d) + 1) % 7
}

// FirstWeekStart returns the Saturday that opens week 1 of the given
// retail year: the Saturday on or before January 1.
func FirstWeekStart(year int) time.Time {
	jan1 := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	return jan1.AddDate(0, 0, -retailDayIndex(jan1.Weekday()))
}

// WeekOf returns the retail week containing the given date. Dates in
// late December that fall on or after the next year's opening Saturday
// are attributed to the next retail year. Week numbers clamp to 1..53.
func WeekOf(date time.Time) RetailWeek {
	date = midnightUTC(date)

	year := date.Year()
	if !date.Before(FirstWeekStart(year + 1)) {
		year++
	}

	days := int(date.Sub(FirstWeekStart(year)).Hours() / 24)
	week := days/7 + 1
	if week < 1 {
		week = 1
	}
	if week > 53 {
		week = 53
	}
	return RetailWeek{Year: year, Week: week}
}

// WeekRange returns the Saturday start and Friday end of a retail week.
func WeekRange(w RetailWeek) (start, end time.Time) {
	start = FirstWeekStart(w.Year).AddDate(0, 0, (w.Week-1)*7)
	end = start.AddDate(0, 0, 6)
	return start, end
}

// weekMonthBreaks gives the last week number attributed to each month,
// January first. The grid approximates 4.33 weeks per month and matches
// the planning calendar used in the source workbook.
var weekMonthBreaks = [12]int{4, 9, 13, 17, 22, 26, 30, 35, 39, 43, 48, 53}

// MonthOfWeek maps a retail week number onto its planning month (1..12).
func MonthOfWeek(week int) time.Month {
	for i, last := range weekMonthBreaks {
		if week <= last {
			return time.Month(i + 1)
		}
	}
	return time.December
}

// midnightUTC truncates a timestamp to its calendar date in UTC.
func midnightUTC(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
