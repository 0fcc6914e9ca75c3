// Package model defines domain types for projects, budgets, allocations and
// time logs.
package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Project is a budgeted unit of work owned by the user who created it.
type Project struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedBy uuid.UUID `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

// TeamMember is a user's membership in a project, with their hourly rate.
// MonthlyHoursBudget is informational only; it does not cap allocations.
type TeamMember struct {
	ProjectID          uuid.UUID       `json:"project_id"`
	UserID             uuid.UUID       `json:"user_id"`
	Rate               decimal.Decimal `json:"rate_per_hour"`
	MonthlyHoursBudget decimal.Decimal `json:"monthly_hours_budget"`
	CreatedAt          time.Time       `json:"created_at"`
}

// Profile is the display identity of a user.
type Profile struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// DisplayName prefers the full name, then the email, then the raw ID.
func (p Profile) DisplayName() string {
	switch {
	case p.FullName != "":
		return p.FullName
	case p.Email != "":
		return p.Email
	default:
		return p.ID.String()
	}
}

// MonthlyBudget is the monetary ceiling of a project for one month.
type MonthlyBudget struct {
	ID        uuid.UUID       `json:"id"`
	ProjectID uuid.UUID       `json:"project_id"`
	Month     Month           `json:"month_date"`
	Amount    decimal.Decimal `json:"budget_amount"`
	CreatedAt time.Time       `json:"created_at"`
}

// MonthlyAllocation is the number of hours planned for a member in a month.
// Persisted allocations always have Hours > 0.
type MonthlyAllocation struct {
	ID        uuid.UUID       `json:"id"`
	ProjectID uuid.UUID       `json:"project_id"`
	UserID    uuid.UUID       `json:"user_id"`
	Month     Month           `json:"month_date"`
	Hours     decimal.Decimal `json:"allocated_hours"`
	CreatedAt time.Time       `json:"created_at"`
}

// DailyLog is a time entry. Several logs may exist for the same user and day.
type DailyLog struct {
	ID           uuid.UUID       `json:"id"`
	ProjectID    uuid.UUID       `json:"project_id"`
	UserID       uuid.UUID       `json:"user_id"`
	Date         Date            `json:"date"`
	Hours        decimal.Decimal `json:"hours_spent"`
	Descriptions []string        `json:"work_description"`
	CreatedAt    time.Time       `json:"created_at"`
}

// ProjectDetails is a project hydrated with its members, budgets and
// allocations.
type ProjectDetails struct {
	Project
	Members     []TeamMember        `json:"users"`
	Budgets     []MonthlyBudget     `json:"budgets"`
	Allocations []MonthlyAllocation `json:"allocations"`
}

// Rates maps each member to their hourly rate.
func (p ProjectDetails) Rates() map[uuid.UUID]decimal.Decimal {
	rates := make(map[uuid.UUID]decimal.Decimal, len(p.Members))
	for _, m := range p.Members {
		rates[m.UserID] = m.Rate
	}
	return rates
}

// BudgetFor returns the budget amount for month, or zero when none is set.
func (p ProjectDetails) BudgetFor(month Month) decimal.Decimal {
	for _, b := range p.Budgets {
		if b.Month == month {
			return b.Amount
		}
	}
	return decimal.Zero
}

// AllocationsFor returns the allocations recorded for month, keyed by user.
func (p ProjectDetails) AllocationsFor(month Month) map[uuid.UUID]OptionalHours {
	out := make(map[uuid.UUID]OptionalHours)
	for _, a := range p.Allocations {
		if a.Month == month {
			out[a.UserID] = SomeHours(a.Hours)
		}
	}
	return out
}

// Holiday is a recorded non-working date.
type Holiday struct {
	Date Date   `json:"date"`
	Name string `json:"name"`
}
