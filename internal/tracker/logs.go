package tracker

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/theirongolddev/tally/internal/model"
	"github.com/theirongolddev/tally/internal/retry"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LogStore creates, edits and lists daily logs.
type LogStore struct {
	backend  LogBackend
	identity Identity
	policy   retry.Policy
	log      *slog.Logger
}

// NewLogStore returns a LogStore. Created logs are stamped with the user
// reported by identity.
func NewLogStore(backend LogBackend, identity Identity, policy retry.Policy, logger *slog.Logger) *LogStore {
	logger = orDiscard(logger)
	return &LogStore{backend: backend, identity: identity, policy: withLogger(policy, logger), log: logger}
}

// Create records hours against a project as the signed-in user.
func (s *LogStore) Create(ctx context.Context, projectID uuid.UUID, date model.Date, hours decimal.Decimal, descriptions []string) (model.DailyLog, error) {
	userID, err := currentUser(s.identity)
	if err != nil {
		return model.DailyLog{}, err
	}
	descriptions, err = checkLog(hours, descriptions)
	if err != nil {
		return model.DailyLog{}, err
	}
	if date.IsZero() {
		return model.DailyLog{}, model.NewValidationError("date", "date is required")
	}

	created, err := s.backend.InsertLog(ctx, model.DailyLog{
		ProjectID:    projectID,
		UserID:       userID,
		Date:         date,
		Hours:        hours,
		Descriptions: descriptions,
	})
	if err != nil {
		return model.DailyLog{}, fmt.Errorf("creating log: %w", err)
	}
	return created, nil
}

// Update replaces the hours and descriptions of a log.
func (s *LogStore) Update(ctx context.Context, id uuid.UUID, hours decimal.Decimal, descriptions []string) error {
	descriptions, err := checkLog(hours, descriptions)
	if err != nil {
		return err
	}
	if err := s.backend.UpdateLog(ctx, id, hours, descriptions); err != nil {
		return fmt.Errorf("updating log: %w", err)
	}
	return nil
}

// Delete removes a log.
func (s *LogStore) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.backend.DeleteLog(ctx, id); err != nil {
		return fmt.Errorf("deleting log: %w", err)
	}
	return nil
}

// Range returns the logs of a project dated within [from, to], ascending.
func (s *LogStore) Range(ctx context.Context, projectID uuid.UUID, from, to model.Date) ([]model.DailyLog, error) {
	logs, err := retry.Do(ctx, s.policy, "list_logs", func(ctx context.Context) ([]model.DailyLog, error) {
		return s.backend.ListLogs(ctx, projectID, from, to)
	})
	if err != nil {
		return nil, fmt.Errorf("listing logs: %w", err)
	}
	return logs, nil
}

// MonthRange returns the logs of a project dated within month.
func (s *LogStore) MonthRange(ctx context.Context, projectID uuid.UUID, month model.Month) ([]model.DailyLog, error) {
	return s.Range(ctx, projectID, month.Start(), month.End())
}

// checkLog trims descriptions, drops empty ones and validates the rest.
func checkLog(hours decimal.Decimal, descriptions []string) ([]string, error) {
	if !hours.IsPositive() {
		return nil, model.NewValidationError("hours_spent", "hours must be greater than zero")
	}
	cleaned := make([]string, 0, len(descriptions))
	for _, d := range descriptions {
		if d = strings.TrimSpace(d); d != "" {
			cleaned = append(cleaned, d)
		}
	}
	if len(cleaned) == 0 {
		return nil, model.NewValidationError("work_description", "at least one description is required")
	}
	return cleaned, nil
}
