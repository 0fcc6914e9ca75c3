package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/theirongolddev/tally/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ListLogs returns a project's logs with from <= date <= to, ascending by
// date. A zero bound is open.
func (s *Store) ListLogs(ctx context.Context, projectID uuid.UUID, from, to model.Date) ([]model.DailyLog, error) {
	query := `SELECT id, project_id, user_id, date, hours_spent, work_description, created_at
		FROM daily_logs WHERE project_id = ?`
	args := []any{projectID}
	if !from.IsZero() {
		query += " AND date >= ?"
		args = append(args, from.String())
	}
	if !to.IsZero() {
		query += " AND date <= ?"
		args = append(args, to.String())
	}
	query += " ORDER BY date, created_at, id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify(err)
	}
	defer func() { _ = rows.Close() }()

	var out []model.DailyLog
	for rows.Next() {
		var l model.DailyLog
		var date, desc, created string
		if err := rows.Scan(&l.ID, &l.ProjectID, &l.UserID, &date, &l.Hours, &desc, &created); err != nil {
			return nil, err
		}
		if l.Date, err = model.ParseDate(date); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(desc), &l.Descriptions); err != nil {
			return nil, fmt.Errorf("decoding descriptions of log %s: %w", l.ID, err)
		}
		l.CreatedAt = parseTime(created)
		out = append(out, l)
	}
	return out, classify(rows.Err())
}

// InsertLog stores a new log and returns it with its ID and timestamp.
func (s *Store) InsertLog(ctx context.Context, l model.DailyLog) (model.DailyLog, error) {
	if l.UserID == uuid.Nil {
		return model.DailyLog{}, model.ErrUnauthenticated
	}
	if l.Date.IsZero() {
		return model.DailyLog{}, model.NewValidationError("date", "date is required")
	}
	if err := validateLog(l.Hours, l.Descriptions); err != nil {
		return model.DailyLog{}, err
	}
	desc, err := json.Marshal(l.Descriptions)
	if err != nil {
		return model.DailyLog{}, err
	}
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	created := s.timestamp()
	_, err = s.db.ExecContext(ctx, `INSERT INTO daily_logs
		(id, project_id, user_id, date, hours_spent, work_description, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		l.ID, l.ProjectID, l.UserID, l.Date.String(), l.Hours, string(desc), created)
	if err != nil {
		return model.DailyLog{}, classify(err)
	}
	l.CreatedAt = parseTime(created)
	return l, nil
}

// UpdateLog replaces the hours and descriptions of a log.
func (s *Store) UpdateLog(ctx context.Context, id uuid.UUID, hours decimal.Decimal, descriptions []string) error {
	if err := validateLog(hours, descriptions); err != nil {
		return err
	}
	desc, err := json.Marshal(descriptions)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		"UPDATE daily_logs SET hours_spent = ?, work_description = ? WHERE id = ?",
		hours, string(desc), id)
	if err != nil {
		return classify(err)
	}
	return mustAffect(res, "log", id)
}

// DeleteLog removes a log.
func (s *Store) DeleteLog(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM daily_logs WHERE id = ?", id)
	if err != nil {
		return classify(err)
	}
	return mustAffect(res, "log", id)
}

func validateLog(hours decimal.Decimal, descriptions []string) error {
	if !hours.IsPositive() {
		return model.NewValidationError("hours_spent", "hours must be greater than zero")
	}
	if len(descriptions) == 0 {
		return model.NewValidationError("work_description", "at least one description is required")
	}
	return nil
}
