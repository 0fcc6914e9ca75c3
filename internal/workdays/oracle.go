// Package workdays resolves working-day counts per month and the number of
// working days elapsed up to a date.
package workdays

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/theirongolddev/tally/internal/model"
	"github.com/theirongolddev/tally/internal/retry"
)

// Calendar is the remote calendar computation.
type Calendar interface {
	MonthWorkingDays(ctx context.Context, month model.Month) (int, error)
	CalculateWorkingDays(ctx context.Context, start, end model.Date) (int, error)
}

// Oracle caches month totals for its lifetime. Elapsed counts depend on the
// current date and are never cached.
type Oracle struct {
	cal    Calendar
	policy retry.Policy
	log    *slog.Logger

	mu    sync.RWMutex
	cache map[string]int
}

// New returns an Oracle backed by cal.
func New(cal Calendar, policy retry.Policy, logger *slog.Logger) *Oracle {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if policy.Logger == nil {
		policy.Logger = logger
	}
	return &Oracle{
		cal:    cal,
		policy: policy,
		log:    logger,
		cache:  make(map[string]int),
	}
}

// InMonth returns the number of working days in month. A month the calendar
// has no data for counts as zero and is not an error.
func (o *Oracle) InMonth(ctx context.Context, month model.Month) (int, error) {
	key := month.Key()
	if n, ok := o.Cached(month); ok {
		return n, nil
	}

	n, err := retry.Do(ctx, o.policy, "get_month_working_days", func(ctx context.Context) (int, error) {
		return o.cal.MonthWorkingDays(ctx, month)
	})
	if errors.Is(err, model.ErrNoData) {
		o.log.Info("no working days scheduled", "month", key)
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	o.mu.Lock()
	o.cache[key] = n
	o.mu.Unlock()
	return n, nil
}

// Cached returns the cached total for month, if any.
func (o *Oracle) Cached(month model.Month) (int, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	n, ok := o.cache[month.Key()]
	return n, ok
}

// Elapsed returns the working days from the start of asOf's month through
// asOf inclusive. Failures are logged and reported as zero.
func (o *Oracle) Elapsed(ctx context.Context, asOf model.Date) int {
	start := asOf.MonthOf().Start()
	n, err := o.cal.CalculateWorkingDays(ctx, start, asOf)
	if err != nil {
		o.log.Warn("calculate working days failed",
			"start", start.String(), "end", asOf.String(), "err", err)
		return 0
	}
	return n
}
