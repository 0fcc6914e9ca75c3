package tracker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/theirongolddev/tally/internal/model"
	"github.com/theirongolddev/tally/internal/reconcile"
	"github.com/theirongolddev/tally/internal/retry"
	"github.com/theirongolddev/tally/internal/workdays"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Tracker wires the stores and the working-days oracle over one backend.
type Tracker struct {
	Projects    *ProjectStore
	Budgets     *BudgetStore
	Allocations *AllocationStore
	Logs        *LogStore
	Days        *workdays.Oracle

	backend Backend
	log     *slog.Logger
}

// New builds a Tracker. A nil logger discards output.
func New(backend Backend, identity Identity, policy retry.Policy, logger *slog.Logger) *Tracker {
	logger = orDiscard(logger)
	policy = withLogger(policy, logger)

	budgets := NewBudgetStore(backend, policy, logger.With("component", "budgets"))
	allocs := NewAllocationStore(backend, policy, logger.With("component", "allocations"))
	return &Tracker{
		Projects:    NewProjectStore(backend, backend, budgets, allocs, identity, policy, logger.With("component", "projects")),
		Budgets:     budgets,
		Allocations: allocs,
		Logs:        NewLogStore(backend, identity, policy, logger.With("component", "logs")),
		Days:        workdays.New(backend, policy, logger.With("component", "workdays")),
		backend:     backend,
		log:         logger,
	}
}

// Backend returns the underlying record store.
func (t *Tracker) Backend() Backend {
	return t.backend
}

// MonthView is a hydrated project and its reconciled month.
type MonthView struct {
	Project model.ProjectDetails
	Logs    []model.DailyLog
	Report  reconcile.Report
}

// MonthView loads everything needed to reconcile month of a project as seen
// on today. Project hydration and the log range must succeed; a working
// days failure only leaves the counts at zero.
func (t *Tracker) MonthView(ctx context.Context, projectID uuid.UUID, month model.Month, today model.Date) (MonthView, error) {
	var (
		view    MonthView
		wd      reconcile.WorkingDays
		elapsed int
		wg      sync.WaitGroup
	)
	wd.Current = month == today.MonthOf()

	wg.Add(1)
	go func() {
		defer wg.Done()
		total, err := t.Days.InMonth(ctx, month)
		if err != nil {
			t.log.Warn("working days unavailable", "month", month.Key(), "err", err)
			return
		}
		wd.Total = total
	}()
	if wd.Current {
		wg.Add(1)
		go func() {
			defer wg.Done()
			elapsed = t.Days.Elapsed(ctx, today)
		}()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		view.Project, err = t.Projects.Hydrate(gctx, projectID)
		return err
	})
	g.Go(func() (err error) {
		view.Logs, err = t.Logs.MonthRange(gctx, projectID, month)
		return err
	})
	err := g.Wait()
	wg.Wait()
	if err != nil {
		return MonthView{}, fmt.Errorf("loading %s: %w", month.Label(), err)
	}

	wd.Elapsed = reconcile.ElapsedFor(month, today, elapsed, wd.Total)
	view.Report = reconcile.Compute(reconcile.Input{
		Month:       month,
		Budget:      view.Project.BudgetFor(month),
		Rates:       view.Project.Rates(),
		Allocations: view.Project.AllocationsFor(month),
		Logs:        view.Logs,
	}, wd)
	return view, nil
}

func orDiscard(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return logger
}

func withLogger(p retry.Policy, logger *slog.Logger) retry.Policy {
	if p.Logger == nil {
		p.Logger = logger
	}
	return p
}

func currentUser(id Identity) (uuid.UUID, error) {
	if id == nil {
		return uuid.Nil, model.ErrUnauthenticated
	}
	u, err := id.CurrentUser()
	if err != nil {
		return uuid.Nil, err
	}
	if u == uuid.Nil {
		return uuid.Nil, model.ErrUnauthenticated
	}
	return u, nil
}
