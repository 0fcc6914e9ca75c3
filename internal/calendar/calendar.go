// Package calendar implements the working-day rule: Monday through Friday,
// excluding holidays.
package calendar

import (
	"time"

	"github.com/theirongolddev/tally/internal/model"
)

// IsWorkingDay reports whether d is a weekday that is not a holiday.
func IsWorkingDay(d model.Date, holidays map[model.Date]bool) bool {
	switch d.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	return !holidays[d]
}

// CountWorkingDays counts working days in the inclusive range [start, end].
// An inverted range counts zero.
func CountWorkingDays(start, end model.Date, holidays map[model.Date]bool) int {
	n := 0
	for d := start; !d.After(end); d = d.AddDays(1) {
		if IsWorkingDay(d, holidays) {
			n++
		}
	}
	return n
}

// MonthWorkingDays counts the working days of a whole month.
func MonthWorkingDays(m model.Month, holidays map[model.Date]bool) int {
	return CountWorkingDays(m.Start(), m.End(), holidays)
}
