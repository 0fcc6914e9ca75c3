package store

import (
	"context"

	"github.com/theirongolddev/tally/internal/model"

	"github.com/google/uuid"
)

// ListBudgets returns a project's budgets in ascending month order.
func (s *Store) ListBudgets(ctx context.Context, projectID uuid.UUID) ([]model.MonthlyBudget, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, project_id, month_date, budget_amount, created_at
		FROM project_budgets WHERE project_id = ? ORDER BY month_date`, projectID)
	if err != nil {
		return nil, classify(err)
	}
	defer func() { _ = rows.Close() }()

	var out []model.MonthlyBudget
	for rows.Next() {
		var b model.MonthlyBudget
		var month, created string
		if err := rows.Scan(&b.ID, &b.ProjectID, &month, &b.Amount, &created); err != nil {
			return nil, err
		}
		if b.Month, err = model.ParseMonth(month); err != nil {
			return nil, err
		}
		b.CreatedAt = parseTime(created)
		out = append(out, b)
	}
	return out, classify(rows.Err())
}

// DeleteBudgets removes the budgets of the listed months only.
func (s *Store) DeleteBudgets(ctx context.Context, projectID uuid.UUID, months []model.Month) error {
	if len(months) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return classify(err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, m := range months {
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM project_budgets WHERE project_id = ? AND month_date = ?",
			projectID, m.Key()); err != nil {
			return classify(err)
		}
	}
	return classify(tx.Commit())
}

// InsertBudgets inserts budgets for projectID in one transaction.
func (s *Store) InsertBudgets(ctx context.Context, projectID uuid.UUID, budgets []model.MonthlyBudget) error {
	for _, b := range budgets {
		if b.Month.IsZero() {
			return model.NewValidationError("month_date", "month is required")
		}
		if b.Amount.IsNegative() {
			return model.NewValidationError("budget_amount", "budget must not be negative")
		}
	}
	if len(budgets) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return classify(err)
	}
	defer func() { _ = tx.Rollback() }()

	created := s.timestamp()
	for _, b := range budgets {
		id := b.ID
		if id == uuid.Nil {
			id = uuid.New()
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO project_budgets
			(id, project_id, month_date, budget_amount, created_at) VALUES (?, ?, ?, ?, ?)`,
			id, projectID, b.Month.Key(), b.Amount, created); err != nil {
			return classify(err)
		}
	}
	return classify(tx.Commit())
}
