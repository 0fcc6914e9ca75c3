// Package tracker holds the project, budget, allocation and log stores and
// composes them into month views for the reconciliation engine.
package tracker

import (
	"context"

	"github.com/theirongolddev/tally/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProjectBackend persists projects and their members.
type ProjectBackend interface {
	ListProjects(ctx context.Context) ([]model.Project, error)
	GetProject(ctx context.Context, id uuid.UUID) (model.Project, error)
	CreateProject(ctx context.Context, p model.Project) (model.Project, error)
	RenameProject(ctx context.Context, id uuid.UUID, name string) error
	ListMembers(ctx context.Context, projectID uuid.UUID) ([]model.TeamMember, error)
	AddMember(ctx context.Context, m model.TeamMember) error
	UpdateMember(ctx context.Context, m model.TeamMember) error
	RemoveMember(ctx context.Context, projectID, userID uuid.UUID) error
}

// BudgetBackend persists monthly budgets.
type BudgetBackend interface {
	ListBudgets(ctx context.Context, projectID uuid.UUID) ([]model.MonthlyBudget, error)
	DeleteBudgets(ctx context.Context, projectID uuid.UUID, months []model.Month) error
	InsertBudgets(ctx context.Context, projectID uuid.UUID, budgets []model.MonthlyBudget) error
}

// AllocationBackend persists monthly allocations.
type AllocationBackend interface {
	ListAllocations(ctx context.Context, projectID uuid.UUID) ([]model.MonthlyAllocation, error)
	UpsertAllocation(ctx context.Context, a model.MonthlyAllocation) error
	DeleteAllocation(ctx context.Context, projectID, userID uuid.UUID, month model.Month) error
}

// LogBackend persists daily logs.
type LogBackend interface {
	ListLogs(ctx context.Context, projectID uuid.UUID, from, to model.Date) ([]model.DailyLog, error)
	InsertLog(ctx context.Context, l model.DailyLog) (model.DailyLog, error)
	UpdateLog(ctx context.Context, id uuid.UUID, hours decimal.Decimal, descriptions []string) error
	DeleteLog(ctx context.Context, id uuid.UUID) error
}

// ProfileBackend persists user profiles.
type ProfileBackend interface {
	ListProfiles(ctx context.Context) ([]model.Profile, error)
	UpsertProfile(ctx context.Context, p model.Profile) (model.Profile, error)
}

// CalendarBackend exposes the working-day procedures and their schedule.
type CalendarBackend interface {
	MonthWorkingDays(ctx context.Context, month model.Month) (int, error)
	CalculateWorkingDays(ctx context.Context, start, end model.Date) (int, error)
	// ScheduleMonth records the working days of month. A nil override
	// derives the count from weekdays minus holidays.
	ScheduleMonth(ctx context.Context, month model.Month, override *int) (int, error)
	AddHoliday(ctx context.Context, date model.Date, name string) error
	ListHolidays(ctx context.Context, from, to model.Date) ([]model.Holiday, error)
}

// Backend is the full record store. The SQLite store and the HTTP client
// both implement it.
type Backend interface {
	ProjectBackend
	BudgetBackend
	AllocationBackend
	LogBackend
	ProfileBackend
	CalendarBackend
}

// Identity supplies the signed-in user for stamped writes.
type Identity interface {
	CurrentUser() (uuid.UUID, error)
	SignOut() error
}
