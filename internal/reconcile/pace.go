package reconcile

import (
	"github.com/theirongolddev/tally/internal/model"

	"github.com/shopspring/decimal"
)

// PaceStatus classifies logged hours against the expected share of the
// allocation.
type PaceStatus int

const (
	// PaceNotCurrent means pacing is only shown for the current month.
	PaceNotCurrent PaceStatus = iota
	// PaceUndefined means the month has no working days set.
	PaceUndefined
	// PaceAhead means logged hours meet or exceed the expected hours.
	PaceAhead
	// PaceBehind means logged hours fall short of the expected hours.
	PaceBehind
	// PaceNotStarted means no working day of the month has elapsed yet, or
	// the elapsed count could not be read.
	PaceNotStarted
)

func (s PaceStatus) String() string {
	switch s {
	case PaceUndefined:
		return "no working days set"
	case PaceAhead:
		return "on track"
	case PaceBehind:
		return "behind"
	case PaceNotStarted:
		return "no working days elapsed"
	default:
		return "-"
	}
}

// Pacing compares hours logged so far against the allocation prorated by
// elapsed working days.
type Pacing struct {
	Status   PaceStatus
	Expected decimal.Decimal
	// Delta is logged minus expected.
	Delta decimal.Decimal
	// DailyActual is logged hours per elapsed working day. Zero when no
	// working day has elapsed.
	DailyActual decimal.Decimal
	// DailyTarget is allocated hours per working day of the month.
	DailyTarget decimal.Decimal
}

// WorkingDays is the working-day context of a month.
type WorkingDays struct {
	Total   int
	Elapsed int
	Current bool
}

// Pace computes pacing for one member. Callers outside the current month
// should not call it; see ElapsedFor and Compute.
func Pace(logged, allocated decimal.Decimal, elapsed, total int) Pacing {
	if total <= 0 {
		return Pacing{Status: PaceUndefined}
	}
	totalDays := decimal.NewFromInt(int64(total))
	if elapsed <= 0 {
		return Pacing{Status: PaceNotStarted, DailyTarget: allocated.Div(totalDays)}
	}
	elapsedDays := decimal.NewFromInt(int64(elapsed))

	p := Pacing{
		Expected:    allocated.Mul(elapsedDays).Div(totalDays),
		DailyTarget: allocated.Div(totalDays),
	}
	p.DailyActual = logged.Div(elapsedDays)
	p.Delta = logged.Sub(p.Expected)
	if logged.GreaterThanOrEqual(p.Expected) {
		p.Status = PaceAhead
	} else {
		p.Status = PaceBehind
	}
	return p
}

// ElapsedFor returns the elapsed working days of month as seen on today:
// the oracle's count for the current month, the whole month for past
// months and zero for future ones.
func ElapsedFor(month model.Month, today model.Date, oracleElapsed, total int) int {
	switch c := month.Compare(today.MonthOf()); {
	case c < 0:
		return total
	case c > 0:
		return 0
	}
	return oracleElapsed
}
