package reconcile

import (
	"cmp"
	"slices"

	"github.com/theirongolddev/tally/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Input is everything the engine needs for one project month.
type Input struct {
	Month       model.Month
	Budget      decimal.Decimal
	Rates       map[uuid.UUID]decimal.Decimal
	Allocations map[uuid.UUID]model.OptionalHours
	Logs        []model.DailyLog
}

// MemberLine is the per-member part of a Report.
type MemberLine struct {
	UserID    uuid.UUID
	Rate      decimal.Decimal
	Rated     bool
	Allocated decimal.Decimal
	Logged    decimal.Decimal
	Spend     decimal.Decimal
	MaxHours  Cap
	// OverCap reports an allocation above MaxHours.
	OverCap bool
	Pacing  Pacing
}

// Report is the reconciled state of one project month.
type Report struct {
	Month        model.Month
	Budget       decimal.Decimal
	Spend        decimal.Decimal
	UnratedHours decimal.Decimal
	Percentage   decimal.Decimal
	// Remaining is the budget left after the cost of the allocations.
	Remaining   decimal.Decimal
	LoggedHours decimal.Decimal
	WorkingDays WorkingDays
	Members     []MemberLine
}

// OverBudget reports whether spend exceeds the budget.
func (r Report) OverBudget() bool {
	return r.Percentage.GreaterThan(hundred)
}

// Compute reconciles in against the month's working days. Members are
// everyone with a rate, an allocation or a log, ordered by logged hours
// then ID.
func Compute(in Input, wd WorkingDays) Report {
	spend := Spend(in.Logs, in.Rates)
	r := Report{
		Month:        in.Month,
		Budget:       in.Budget,
		Spend:        spend.Amount,
		UnratedHours: spend.UnratedHours,
		Percentage:   Percentage(spend.Amount, in.Budget),
		WorkingDays:  wd,
	}

	logged := make(map[uuid.UUID]decimal.Decimal)
	for _, l := range in.Logs {
		logged[l.UserID] = logged[l.UserID].Add(l.Hours)
		r.LoggedHours = r.LoggedHours.Add(l.Hours)
	}

	users := make(map[uuid.UUID]bool)
	for u := range in.Rates {
		users[u] = true
	}
	for u := range in.Allocations {
		users[u] = true
	}
	for u := range logged {
		users[u] = true
	}

	proposed := make(map[uuid.UUID]decimal.Decimal, len(in.Allocations))
	for u, h := range in.Allocations {
		proposed[u] = h.OrZero()
	}
	r.Remaining = Remaining(in.Budget, in.Rates, proposed)

	for u := range users {
		rate, rated := in.Rates[u]
		line := MemberLine{
			UserID:    u,
			Rate:      rate,
			Rated:     rated,
			Allocated: in.Allocations[u].OrZero(),
			Logged:    logged[u],
			MaxHours:  MaxHours(in.Budget, rate),
		}
		if rated {
			line.Spend = line.Logged.Mul(rate)
		}
		line.OverCap = !line.MaxHours.Allows(line.Allocated)
		if wd.Current {
			line.Pacing = Pace(line.Logged, line.Allocated, wd.Elapsed, wd.Total)
		}
		r.Members = append(r.Members, line)
	}
	slices.SortFunc(r.Members, func(a, b MemberLine) int {
		if c := b.Logged.Cmp(a.Logged); c != 0 {
			return c
		}
		return cmp.Compare(a.UserID.String(), b.UserID.String())
	})
	return r
}
