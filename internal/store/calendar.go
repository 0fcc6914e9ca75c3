package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/theirongolddev/tally/internal/calendar"
	"github.com/theirongolddev/tally/internal/model"
)

// MonthWorkingDays returns the scheduled working days of month, or
// model.ErrNoData when the month has not been scheduled.
func (s *Store) MonthWorkingDays(ctx context.Context, month model.Month) (int, error) {
	var days int
	err := s.db.QueryRowContext(ctx,
		"SELECT working_days FROM work_schedules WHERE month_date = ?", month.Key()).Scan(&days)
	if err != nil {
		err = classify(err)
		if errors.Is(err, model.ErrNotFound) {
			return 0, fmt.Errorf("%s: %w", month.Label(), model.ErrNoData)
		}
		return 0, err
	}
	return days, nil
}

// CalculateWorkingDays counts working days in [start, end]. Every month the
// range touches must be scheduled; a month's count never exceeds its
// scheduled total.
func (s *Store) CalculateWorkingDays(ctx context.Context, start, end model.Date) (int, error) {
	if end.Before(start) {
		return 0, nil
	}
	holidays, err := s.holidays(ctx, start, end)
	if err != nil {
		return 0, err
	}

	total := 0
	last := end.MonthOf()
	for m := start.MonthOf(); m.Compare(last) <= 0; m = m.AddMonths(1) {
		scheduled, err := s.MonthWorkingDays(ctx, m)
		if err != nil {
			return 0, err
		}
		from, to := m.Start(), m.End()
		if from.Before(start) {
			from = start
		}
		if to.After(end) {
			to = end
		}
		total += min(calendar.CountWorkingDays(from, to, holidays), scheduled)
	}
	return total, nil
}

// ScheduleMonth records the working days of month. Without an override the
// count is weekdays minus recorded holidays.
func (s *Store) ScheduleMonth(ctx context.Context, month model.Month, override *int) (int, error) {
	var days int
	if override != nil {
		if *override < 0 || *override > 31 {
			return 0, model.NewValidationError("working_days", "working days must be between 0 and 31")
		}
		days = *override
	} else {
		holidays, err := s.holidays(ctx, month.Start(), month.End())
		if err != nil {
			return 0, err
		}
		days = calendar.MonthWorkingDays(month, holidays)
	}

	_, err := s.db.ExecContext(ctx, `INSERT INTO work_schedules (month_date, working_days, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (month_date) DO UPDATE SET working_days = excluded.working_days,
			updated_at = excluded.updated_at`,
		month.Key(), days, s.timestamp())
	if err != nil {
		return 0, classify(err)
	}
	return days, nil
}

// AddHoliday records a non-working date. Re-adding a date renames it.
func (s *Store) AddHoliday(ctx context.Context, date model.Date, name string) error {
	if date.IsZero() {
		return model.NewValidationError("date", "date is required")
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO holidays (date, name) VALUES (?, ?)
		ON CONFLICT (date) DO UPDATE SET name = excluded.name`, date.String(), name)
	return classify(err)
}

// ListHolidays returns the holidays in [from, to] ascending.
func (s *Store) ListHolidays(ctx context.Context, from, to model.Date) ([]model.Holiday, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT date, name FROM holidays WHERE date >= ? AND date <= ? ORDER BY date",
		from.String(), to.String())
	if err != nil {
		return nil, classify(err)
	}
	defer func() { _ = rows.Close() }()

	var out []model.Holiday
	for rows.Next() {
		var h model.Holiday
		var date string
		if err := rows.Scan(&date, &h.Name); err != nil {
			return nil, err
		}
		if h.Date, err = model.ParseDate(date); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, classify(rows.Err())
}

func (s *Store) holidays(ctx context.Context, from, to model.Date) (map[model.Date]bool, error) {
	list, err := s.ListHolidays(ctx, from, to)
	if err != nil {
		return nil, err
	}
	set := make(map[model.Date]bool, len(list))
	for _, h := range list {
		set[h.Date] = true
	}
	return set, nil
}
