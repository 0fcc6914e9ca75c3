package store

import (
	"context"

	"github.com/theirongolddev/tally/internal/model"

	"github.com/google/uuid"
)

// ListAllocations returns all allocations of a project ordered by month.
func (s *Store) ListAllocations(ctx context.Context, projectID uuid.UUID) ([]model.MonthlyAllocation, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, project_id, user_id, month_date,
		allocated_hours, created_at
		FROM monthly_allocations WHERE project_id = ? ORDER BY month_date, user_id`, projectID)
	if err != nil {
		return nil, classify(err)
	}
	defer func() { _ = rows.Close() }()

	var out []model.MonthlyAllocation
	for rows.Next() {
		var a model.MonthlyAllocation
		var month, created string
		if err := rows.Scan(&a.ID, &a.ProjectID, &a.UserID, &month, &a.Hours, &created); err != nil {
			return nil, err
		}
		if a.Month, err = model.ParseMonth(month); err != nil {
			return nil, err
		}
		a.CreatedAt = parseTime(created)
		out = append(out, a)
	}
	return out, classify(rows.Err())
}

// UpsertAllocation writes a positive allocation, overwriting any existing row
// for the same project, user and month.
func (s *Store) UpsertAllocation(ctx context.Context, a model.MonthlyAllocation) error {
	if !a.Hours.IsPositive() {
		return model.NewValidationError("allocated_hours", "allocated hours must be greater than zero")
	}
	if a.Month.IsZero() {
		return model.NewValidationError("month_date", "month is required")
	}
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO monthly_allocations
		(id, project_id, user_id, month_date, allocated_hours, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (project_id, user_id, month_date)
		DO UPDATE SET allocated_hours = excluded.allocated_hours`,
		a.ID, a.ProjectID, a.UserID, a.Month.Key(), a.Hours, s.timestamp())
	return classify(err)
}

// DeleteAllocation removes an allocation. A missing row is not an error.
func (s *Store) DeleteAllocation(ctx context.Context, projectID, userID uuid.UUID, month model.Month) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM monthly_allocations
		WHERE project_id = ? AND user_id = ? AND month_date = ?`,
		projectID, userID, month.Key())
	return classify(err)
}
