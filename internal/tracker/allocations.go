package tracker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/theirongolddev/tally/internal/model"
	"github.com/theirongolddev/tally/internal/retry"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AllocationStore reads and writes monthly allocations. A zero or negative
// allocation is stored as the absence of a row.
type AllocationStore struct {
	backend AllocationBackend
	policy  retry.Policy
	log     *slog.Logger
}

// NewAllocationStore returns an AllocationStore over backend.
func NewAllocationStore(backend AllocationBackend, policy retry.Policy, logger *slog.Logger) *AllocationStore {
	logger = orDiscard(logger)
	return &AllocationStore{backend: backend, policy: withLogger(policy, logger), log: logger}
}

// List returns every allocation of a project.
func (s *AllocationStore) List(ctx context.Context, projectID uuid.UUID) ([]model.MonthlyAllocation, error) {
	allocs, err := retry.Do(ctx, s.policy, "list_allocations", func(ctx context.Context) ([]model.MonthlyAllocation, error) {
		return s.backend.ListAllocations(ctx, projectID)
	})
	if err != nil {
		return nil, fmt.Errorf("listing allocations: %w", err)
	}
	return allocs, nil
}

// ForMonth returns the allocations of month keyed by user.
func (s *AllocationStore) ForMonth(ctx context.Context, projectID uuid.UUID, month model.Month) (map[uuid.UUID]model.OptionalHours, error) {
	allocs, err := s.List(ctx, projectID)
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]model.OptionalHours)
	for _, a := range allocs {
		if a.Month == month {
			out[a.UserID] = model.SomeHours(a.Hours)
		}
	}
	return out, nil
}

// Get returns one user's allocation for month. Set is false when no row
// exists.
func (s *AllocationStore) Get(ctx context.Context, projectID, userID uuid.UUID, month model.Month) (model.OptionalHours, error) {
	byUser, err := s.ForMonth(ctx, projectID, month)
	if err != nil {
		return model.OptionalHours{}, err
	}
	return byUser[userID], nil
}

// Upsert stores hours for (project, user, month). Hours <= 0 delete the row
// when present.
func (s *AllocationStore) Upsert(ctx context.Context, projectID, userID uuid.UUID, month model.Month, hours decimal.Decimal) error {
	if !hours.IsPositive() {
		if err := s.backend.DeleteAllocation(ctx, projectID, userID, month); err != nil {
			return fmt.Errorf("deleting allocation: %w", err)
		}
		return nil
	}
	err := s.backend.UpsertAllocation(ctx, model.MonthlyAllocation{
		ProjectID: projectID,
		UserID:    userID,
		Month:     month,
		Hours:     hours,
	})
	if err != nil {
		return fmt.Errorf("upserting allocation: %w", err)
	}
	return nil
}

// ApplyBatch runs one Upsert per entry concurrently. Every entry is
// attempted; when any fails the result is a *model.BatchError and the
// caller must re-read to learn which writes persisted.
func (s *AllocationStore) ApplyBatch(ctx context.Context, projectID uuid.UUID, month model.Month, hours map[uuid.UUID]decimal.Decimal) error {
	if len(hours) == 0 {
		return nil
	}

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	for userID, h := range hours {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.Upsert(ctx, projectID, userID, month, h); err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("user %s: %w", userID, err))
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if len(errs) > 0 {
		s.log.Warn("allocation batch partially failed",
			"project", projectID, "month", month.Key(),
			"failed", len(errs), "total", len(hours))
		return &model.BatchError{Op: "save allocations", Total: len(hours), Errors: errs}
	}
	s.log.Debug("allocation batch applied", "project", projectID, "month", month.Key(), "total", len(hours))
	return nil
}
