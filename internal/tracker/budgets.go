package tracker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/theirongolddev/tally/internal/model"
	"github.com/theirongolddev/tally/internal/retry"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ForwardMonths is the size of the budget editing window.
const ForwardMonths = 12

// BudgetStore reads and replaces monthly budgets.
type BudgetStore struct {
	backend BudgetBackend
	policy  retry.Policy
	log     *slog.Logger
}

// NewBudgetStore returns a BudgetStore over backend.
func NewBudgetStore(backend BudgetBackend, policy retry.Policy, logger *slog.Logger) *BudgetStore {
	logger = orDiscard(logger)
	return &BudgetStore{backend: backend, policy: withLogger(policy, logger), log: logger}
}

// List returns the budgets of a project in ascending month order.
func (s *BudgetStore) List(ctx context.Context, projectID uuid.UUID) ([]model.MonthlyBudget, error) {
	budgets, err := retry.Do(ctx, s.policy, "list_budgets", func(ctx context.Context) ([]model.MonthlyBudget, error) {
		return s.backend.ListBudgets(ctx, projectID)
	})
	if err != nil {
		return nil, fmt.Errorf("listing budgets: %w", err)
	}
	return budgets, nil
}

// ForMonth returns the budget of month, or zero when none is set.
func (s *BudgetStore) ForMonth(ctx context.Context, projectID uuid.UUID, month model.Month) (decimal.Decimal, error) {
	budgets, err := s.List(ctx, projectID)
	if err != nil {
		return decimal.Zero, err
	}
	for _, b := range budgets {
		if b.Month == month {
			return b.Amount, nil
		}
	}
	return decimal.Zero, nil
}

// Replace deletes the budgets of exactly the months present in budgets and
// inserts the full list. Other months are left alone. An empty list does
// nothing. The caller's slice is not modified.
func (s *BudgetStore) Replace(ctx context.Context, projectID uuid.UUID, budgets []model.MonthlyBudget) error {
	if len(budgets) == 0 {
		return nil
	}
	months, err := budgetMonths(budgets)
	if err != nil {
		return err
	}
	stamped := make([]model.MonthlyBudget, len(budgets))
	for i, b := range budgets {
		b.ProjectID = projectID
		stamped[i] = b
	}

	if err := s.backend.DeleteBudgets(ctx, projectID, months); err != nil {
		return fmt.Errorf("deleting budgets: %w", err)
	}
	if err := s.backend.InsertBudgets(ctx, projectID, stamped); err != nil {
		return fmt.Errorf("inserting budgets: %w", err)
	}
	s.log.Debug("budgets replaced", "project", projectID, "months", len(months))
	return nil
}

// Clear deletes the budgets of months. Months without a budget are
// ignored.
func (s *BudgetStore) Clear(ctx context.Context, projectID uuid.UUID, months []model.Month) error {
	if len(months) == 0 {
		return nil
	}
	for _, m := range months {
		if m.IsZero() {
			return model.NewValidationError("month_date", "month is required")
		}
	}
	if err := s.backend.DeleteBudgets(ctx, projectID, months); err != nil {
		return fmt.Errorf("clearing budgets: %w", err)
	}
	s.log.Debug("budgets cleared", "project", projectID, "months", len(months))
	return nil
}

// SaveWindow stores an edited forward window: months with a positive
// amount are replaced and months at zero are cleared, so no zero budget is
// ever stored.
func (s *BudgetStore) SaveWindow(ctx context.Context, projectID uuid.UUID, window []model.MonthlyBudget) error {
	if _, err := budgetMonths(window); err != nil {
		return err
	}
	var cleared []model.Month
	for _, b := range window {
		if b.Amount.IsZero() {
			cleared = append(cleared, b.Month)
		}
	}
	if err := s.Replace(ctx, projectID, NonZero(window)); err != nil {
		return err
	}
	return s.Clear(ctx, projectID, cleared)
}

// budgetMonths validates budgets and returns their months in order.
func budgetMonths(budgets []model.MonthlyBudget) ([]model.Month, error) {
	seen := make(map[model.Month]bool, len(budgets))
	months := make([]model.Month, 0, len(budgets))
	for _, b := range budgets {
		if b.Month.IsZero() {
			return nil, model.NewValidationError("month_date", "month is required")
		}
		if seen[b.Month] {
			return nil, model.NewValidationError("month_date", fmt.Sprintf("%s listed twice", b.Month.Label()))
		}
		if b.Amount.IsNegative() {
			return nil, model.NewValidationError("budget_amount", "budget must not be negative")
		}
		seen[b.Month] = true
		months = append(months, b.Month)
	}
	return months, nil
}

// ForwardWindow lays out n months starting at from, prefilled with the
// amounts in existing. Months without a budget carry zero.
func ForwardWindow(existing []model.MonthlyBudget, from model.Month, n int) []model.MonthlyBudget {
	amounts := make(map[model.Month]decimal.Decimal, len(existing))
	for _, b := range existing {
		amounts[b.Month] = b.Amount
	}
	out := make([]model.MonthlyBudget, 0, n)
	for i := 0; i < n; i++ {
		m := from.AddMonths(i)
		out = append(out, model.MonthlyBudget{Month: m, Amount: amounts[m]})
	}
	return out
}

// NonZero drops budgets with a zero or negative amount.
func NonZero(budgets []model.MonthlyBudget) []model.MonthlyBudget {
	out := make([]model.MonthlyBudget, 0, len(budgets))
	for _, b := range budgets {
		if b.Amount.IsPositive() {
			out = append(out, b)
		}
	}
	return out
}
