// Package reconcile derives spend, budget usage, allocation caps and pacing
// from a project's rates, budget, allocations and logs. Everything here is a
// pure function of its inputs.
package reconcile

import (
	"github.com/theirongolddev/tally/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// SpendResult is the cost of a set of logs.
type SpendResult struct {
	Amount decimal.Decimal
	// UnratedHours are hours logged by users with no rate. They cost
	// nothing but are reported so the gap is visible.
	UnratedHours decimal.Decimal
}

// Spend sums hours x rate over logs. Users missing from rates contribute
// zero cost.
func Spend(logs []model.DailyLog, rates map[uuid.UUID]decimal.Decimal) SpendResult {
	var r SpendResult
	for _, l := range logs {
		rate, ok := rates[l.UserID]
		if !ok {
			r.UnratedHours = r.UnratedHours.Add(l.Hours)
			continue
		}
		r.Amount = r.Amount.Add(l.Hours.Mul(rate))
	}
	return r
}

// Percentage returns spend as a percentage of budget, or zero when there is
// no positive budget. The result is not clamped.
func Percentage(spend, budget decimal.Decimal) decimal.Decimal {
	if !budget.IsPositive() {
		return decimal.Zero
	}
	return spend.Div(budget).Mul(hundred)
}

// Clamp100 limits a percentage to [0, 100] for progress bars.
func Clamp100(pct decimal.Decimal) decimal.Decimal {
	switch {
	case pct.IsNegative():
		return decimal.Zero
	case pct.GreaterThan(hundred):
		return hundred
	}
	return pct
}

// Cap is the most hours a member can be allocated within a budget.
type Cap struct {
	Hours     int64
	Unbounded bool
}

// String renders the cap, using "unbounded" for the sentinel.
func (c Cap) String() string {
	if c.Unbounded {
		return "unbounded"
	}
	return decimal.NewFromInt(c.Hours).String()
}

// Allows reports whether hours fits under the cap.
func (c Cap) Allows(hours decimal.Decimal) bool {
	return c.Unbounded || hours.LessThanOrEqual(decimal.NewFromInt(c.Hours))
}

// MaxHours returns floor(budget / rate). A rate of zero or less has no cap
// and the division is never evaluated.
func MaxHours(budget, rate decimal.Decimal) Cap {
	if !rate.IsPositive() {
		return Cap{Unbounded: true}
	}
	if !budget.IsPositive() {
		return Cap{}
	}
	return Cap{Hours: budget.Div(rate).Floor().IntPart()}
}

// Remaining returns budget minus the cost of proposed at rates. Users
// without a rate cost nothing.
func Remaining(budget decimal.Decimal, rates map[uuid.UUID]decimal.Decimal, proposed map[uuid.UUID]decimal.Decimal) decimal.Decimal {
	out := budget
	for user, hours := range proposed {
		if rate, ok := rates[user]; ok {
			out = out.Sub(hours.Mul(rate))
		}
	}
	return out
}
