package tracker

import (
	"context"
	"errors"
	"testing"

	"github.com/theirongolddev/tally/internal/model"
	"github.com/theirongolddev/tally/internal/reconcile"
	"github.com/theirongolddev/tally/internal/retry"
	"github.com/theirongolddev/tally/internal/store"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type staticIdentity struct{ id uuid.UUID }

func (s *staticIdentity) CurrentUser() (uuid.UUID, error) { return s.id, nil }
func (s *staticIdentity) SignOut() error                  { s.id = uuid.Nil; return nil }

// failingBackend rejects allocation writes for one user.
type failingBackend struct {
	*store.Store
	failFor uuid.UUID
}

func (f *failingBackend) UpsertAllocation(ctx context.Context, a model.MonthlyAllocation) error {
	if a.UserID == f.failFor {
		return model.Transient(errors.New("connection reset"))
	}
	return f.Store.UpsertAllocation(ctx, a)
}

var errBudgetsDown = errors.New("budgets table unavailable")

// brokenBudgetsBackend fails every budget read.
type brokenBudgetsBackend struct {
	*store.Store
}

func (b *brokenBudgetsBackend) ListBudgets(context.Context, uuid.UUID) ([]model.MonthlyBudget, error) {
	return nil, errBudgetsDown
}

// calendarDownBackend fails every working-days lookup with a transport error.
type calendarDownBackend struct {
	*store.Store
}

func (c *calendarDownBackend) MonthWorkingDays(context.Context, model.Month) (int, error) {
	return 0, model.Transient(errors.New("calendar unreachable"))
}

func testPolicy() retry.Policy {
	return retry.Policy{Attempts: 1, InitialDelay: 1}
}

func newTestTracker(t *testing.T) (*Tracker, *store.Store, *staticIdentity) {
	t.Helper()
	s, err := store.NewMemory()
	if err != nil {
		t.Fatalf("new memory store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	id := &staticIdentity{id: uuid.New()}
	return New(s, id, testPolicy(), nil), s, id
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func march() model.Month {
	return model.Month{Year: 2025, Month: 3}
}

func newProject(t *testing.T, tr *Tracker, members ...model.TeamMember) model.Project {
	t.Helper()
	p, err := tr.Projects.Create(context.Background(), "Atlas", members)
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	return p
}

func TestBudgetReplaceIsIdempotent(t *testing.T) {
	ctx := context.Background()
	tr, _, _ := newTestTracker(t)
	p := newProject(t, tr)
	m := march()

	if err := tr.Budgets.Replace(ctx, p.ID, []model.MonthlyBudget{{Month: m.AddMonths(-1), Amount: dec("900")}}); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	list := []model.MonthlyBudget{{Month: m, Amount: dec("1000")}, {Month: m.AddMonths(1), Amount: dec("1100")}}

	var snapshots [][]string
	for i := 0; i < 2; i++ {
		if err := tr.Budgets.Replace(ctx, p.ID, list); err != nil {
			t.Fatalf("Replace #%d: %v", i+1, err)
		}
		budgets, err := tr.Budgets.List(ctx, p.ID)
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		var rows []string
		for _, b := range budgets {
			rows = append(rows, b.Month.Key()+"="+b.Amount.String())
		}
		snapshots = append(snapshots, rows)
	}
	want := []string{"2025-02-01=900", "2025-03-01=1000", "2025-04-01=1100"}
	if diff := cmp.Diff(want, snapshots[0]); diff != "" {
		t.Fatalf("first replace (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(snapshots[0], snapshots[1]); diff != "" {
		t.Fatalf("second replace changed rows (-first +second):\n%s", diff)
	}

	if err := tr.Budgets.Replace(ctx, p.ID, nil); err != nil {
		t.Fatalf("Replace(empty): %v", err)
	}
	got, err := tr.Budgets.ForMonth(ctx, p.ID, m)
	if err != nil || !got.Equal(dec("1000")) {
		t.Fatalf("ForMonth = %s, %v; want 1000", got, err)
	}
	unset, _ := tr.Budgets.ForMonth(ctx, p.ID, m.AddMonths(6))
	if !unset.IsZero() {
		t.Fatalf("ForMonth(unset) = %s, want 0", unset)
	}
}

func TestForwardWindow(t *testing.T) {
	m := march()
	existing := []model.MonthlyBudget{{Month: m.AddMonths(2), Amount: dec("500")}}
	window := ForwardWindow(existing, m, ForwardMonths)
	if len(window) != ForwardMonths {
		t.Fatalf("len(window) = %d, want %d", len(window), ForwardMonths)
	}
	if window[0].Month != m || window[11].Month != m.AddMonths(11) {
		t.Fatalf("window spans %v..%v", window[0].Month, window[11].Month)
	}
	if !window[2].Amount.Equal(dec("500")) || !window[1].Amount.IsZero() {
		t.Fatalf("window amounts = %s, %s; want 0, 500", window[1].Amount, window[2].Amount)
	}
	if kept := NonZero(window); len(kept) != 1 || kept[0].Month != m.AddMonths(2) {
		t.Fatalf("NonZero = %+v, want the single 500 budget", kept)
	}
}

func TestSaveWindowStoresNoZeroBudgets(t *testing.T) {
	ctx := context.Background()
	tr, s, _ := newTestTracker(t)
	p := newProject(t, tr)
	m := march()

	before := []model.MonthlyBudget{
		{Month: m.AddMonths(-1), Amount: dec("700")},
		{Month: m.AddMonths(1), Amount: dec("900")},
	}
	if err := tr.Budgets.Replace(ctx, p.ID, before); err != nil {
		t.Fatalf("Replace: %v", err)
	}

	existing, err := tr.Budgets.List(ctx, p.ID)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	window := ForwardWindow(existing, m, ForwardMonths)
	window[0].Amount = dec("1000")
	window[1].Amount = decimal.Zero
	if err := tr.Budgets.SaveWindow(ctx, p.ID, window); err != nil {
		t.Fatalf("SaveWindow: %v", err)
	}

	stored, err := s.ListBudgets(ctx, p.ID)
	if err != nil {
		t.Fatalf("ListBudgets: %v", err)
	}
	var rows []string
	for _, b := range stored {
		rows = append(rows, b.Month.Key()+"="+b.Amount.String())
	}
	want := []string{"2025-02-01=700", "2025-03-01=1000"}
	if diff := cmp.Diff(want, rows); diff != "" {
		t.Fatalf("stored budgets (-want +got):\n%s", diff)
	}

	if err := tr.Budgets.Clear(ctx, p.ID, []model.Month{m, m.AddMonths(5)}); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if got, _ := tr.Budgets.ForMonth(ctx, p.ID, m); !got.IsZero() {
		t.Fatalf("ForMonth after Clear = %s, want 0", got)
	}
	if got, _ := tr.Budgets.ForMonth(ctx, p.ID, m.AddMonths(-1)); !got.Equal(dec("700")) {
		t.Fatalf("ForMonth outside cleared months = %s, want 700", got)
	}
}

func TestReplaceLeavesCallerSliceAlone(t *testing.T) {
	ctx := context.Background()
	tr, _, _ := newTestTracker(t)
	p := newProject(t, tr)
	m := march()

	invalid := []model.MonthlyBudget{
		{Month: m, Amount: dec("100")},
		{Month: m.AddMonths(1), Amount: dec("-1")},
	}
	if err := tr.Budgets.Replace(ctx, p.ID, invalid); !model.IsValidation(err) {
		t.Fatalf("Replace(negative) = %v, want a validation error", err)
	}
	valid := []model.MonthlyBudget{{Month: m, Amount: dec("100")}}
	if err := tr.Budgets.Replace(ctx, p.ID, valid); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	for _, list := range [][]model.MonthlyBudget{invalid, valid} {
		for _, b := range list {
			if b.ProjectID != uuid.Nil {
				t.Fatalf("Replace stamped the caller's budget %+v", b)
			}
		}
	}
	if got, _ := tr.Budgets.ForMonth(ctx, p.ID, m.AddMonths(1)); !got.IsZero() {
		t.Fatalf("rejected list was partly stored: %s", got)
	}
}

func TestHydrateFailsWhenAnyFetchFails(t *testing.T) {
	ctx := context.Background()
	tr, s, id := newTestTracker(t)
	p := newProject(t, tr, model.TeamMember{UserID: id.id, Rate: dec("50")})

	broken := New(&brokenBudgetsBackend{Store: s}, id, testPolicy(), nil)
	d, err := broken.Projects.Hydrate(ctx, p.ID)
	if !errors.Is(err, errBudgetsDown) {
		t.Fatalf("Hydrate error = %v, want %v", err, errBudgetsDown)
	}
	if d.ID != uuid.Nil || len(d.Members) != 0 {
		t.Fatalf("Hydrate returned partial details %+v", d)
	}
}

func TestMonthViewSurvivesCalendarFailure(t *testing.T) {
	ctx := context.Background()
	tr, s, id := newTestTracker(t)
	m := march()
	p := newProject(t, tr, model.TeamMember{UserID: id.id, Rate: dec("50")})
	if _, err := s.ScheduleMonth(ctx, m, nil); err != nil {
		t.Fatalf("ScheduleMonth: %v", err)
	}
	if _, err := tr.Logs.Create(ctx, p.ID, model.Date{Year: 2025, Month: 3, Day: 3}, dec("4"), []string{"build"}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	down := New(&calendarDownBackend{Store: s}, id, testPolicy(), nil)
	view, err := down.MonthView(ctx, p.ID, m, model.Date{Year: 2025, Month: 3, Day: 14})
	if err != nil {
		t.Fatalf("MonthView: %v", err)
	}
	r := view.Report
	if r.WorkingDays.Total != 0 || len(r.Members) != 1 {
		t.Fatalf("report = %+v, want one member and no working days", r)
	}
	if !r.Spend.Equal(dec("200")) {
		t.Fatalf("spend = %s, want 200", r.Spend)
	}
	if r.Members[0].Pacing.Status != reconcile.PaceUndefined {
		t.Fatalf("pacing = %v, want undefined", r.Members[0].Pacing.Status)
	}
}

func TestAllocationZeroMeansAbsent(t *testing.T) {
	ctx := context.Background()
	tr, _, _ := newTestTracker(t)
	p := newProject(t, tr)
	user := uuid.New()
	m := march()

	if err := tr.Allocations.Upsert(ctx, p.ID, user, m, dec("10")); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	got, err := tr.Allocations.Get(ctx, p.ID, user, m)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !got.Set || !got.Hours.Equal(dec("10")) {
		t.Fatalf("Get = %+v, want 10 set", got)
	}

	if err := tr.Allocations.Upsert(ctx, p.ID, user, m, decimal.Zero); err != nil {
		t.Fatalf("Upsert(0): %v", err)
	}
	got, _ = tr.Allocations.Get(ctx, p.ID, user, m)
	if got.Set {
		t.Fatalf("Get after zero = %+v, want unset", got)
	}
	if err := tr.Allocations.Upsert(ctx, p.ID, user, m, dec("-1")); err != nil {
		t.Fatalf("Upsert(negative, absent): %v", err)
	}
}

func TestApplyBatchReportsPartialFailure(t *testing.T) {
	ctx := context.Background()
	s, err := store.NewMemory()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = s.Close() })
	bad := uuid.New()
	good := uuid.New()
	tr := New(&failingBackend{Store: s, failFor: bad}, &staticIdentity{id: uuid.New()}, testPolicy(), nil)
	p := newProject(t, tr)

	err = tr.Allocations.ApplyBatch(ctx, p.ID, march(), map[uuid.UUID]decimal.Decimal{
		good: dec("8"),
		bad:  dec("5"),
	})
	var be *model.BatchError
	if !errors.As(err, &be) {
		t.Fatalf("err = %v, want *BatchError", err)
	}
	if be.Total != 2 || len(be.Errors) != 1 {
		t.Fatalf("batch = %d of %d failed, want 1 of 2", len(be.Errors), be.Total)
	}
	if !model.IsTransient(err) {
		t.Fatal("batch error does not expose the transient cause")
	}

	byUser, _ := tr.Allocations.ForMonth(ctx, p.ID, march())
	if !byUser[good].Set || byUser[bad].Set {
		t.Fatalf("persisted = %+v, want only the good user", byUser)
	}
}

func TestLogRoundTrip(t *testing.T) {
	ctx := context.Background()
	tr, _, id := newTestTracker(t)
	p := newProject(t, tr)
	day := model.Date{Year: 2025, Month: 3, Day: 12}

	created, err := tr.Logs.Create(ctx, p.ID, day, dec("2.5"), []string{" design ", "", "  "})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.UserID != id.id {
		t.Fatalf("UserID = %s, want signed-in user", created.UserID)
	}
	if err := tr.Logs.Update(ctx, created.ID, dec("3"), []string{"design", "review"}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	logs, err := tr.Logs.MonthRange(ctx, p.ID, march())
	if err != nil {
		t.Fatalf("MonthRange: %v", err)
	}
	if len(logs) != 1 {
		t.Fatalf("len(logs) = %d, want 1", len(logs))
	}
	got := logs[0]
	if got.ID != created.ID || got.Date != day || got.UserID != created.UserID || got.ProjectID != p.ID {
		t.Fatalf("identity fields changed: %+v vs %+v", got, created)
	}
	if !got.Hours.Equal(dec("3")) {
		t.Fatalf("Hours = %s, want 3", got.Hours)
	}
	if diff := cmp.Diff([]string{"design", "review"}, got.Descriptions); diff != "" {
		t.Fatalf("descriptions (-want +got):\n%s", diff)
	}

	if _, err := tr.Logs.Create(ctx, p.ID, day, dec("1"), []string{" "}); !model.IsValidation(err) {
		t.Fatalf("Create(blank descriptions) err = %v, want validation error", err)
	}
	if _, err := tr.Logs.Create(ctx, p.ID, day, decimal.Zero, []string{"x"}); !model.IsValidation(err) {
		t.Fatalf("Create(0h) err = %v, want validation error", err)
	}

	_ = id.SignOut()
	if _, err := tr.Logs.Create(ctx, p.ID, day, dec("1"), []string{"x"}); !errors.Is(err, model.ErrUnauthenticated) {
		t.Fatalf("Create(signed out) err = %v, want ErrUnauthenticated", err)
	}
}

func TestProjectMembersAndAvailableUsers(t *testing.T) {
	ctx := context.Background()
	tr, _, _ := newTestTracker(t)

	ada, err := tr.Projects.SaveProfile(ctx, model.Profile{Email: "ada@example.com"})
	if err != nil {
		t.Fatalf("SaveProfile: %v", err)
	}
	bob, _ := tr.Projects.SaveProfile(ctx, model.Profile{Email: "bob@example.com"})

	p := newProject(t, tr, model.TeamMember{UserID: ada.ID, Rate: dec("50")})
	avail, err := tr.Projects.AvailableUsers(ctx, p.ID)
	if err != nil {
		t.Fatalf("AvailableUsers: %v", err)
	}
	if len(avail) != 1 || avail[0].ID != bob.ID {
		t.Fatalf("available = %+v, want only bob", avail)
	}

	if err := tr.Projects.UpdateRate(ctx, p.ID, ada.ID, dec("55")); err != nil {
		t.Fatalf("UpdateRate: %v", err)
	}
	if err := tr.Projects.UpdateRate(ctx, p.ID, bob.ID, dec("55")); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("UpdateRate(non-member) err = %v, want ErrNotFound", err)
	}

	d, err := tr.Projects.Hydrate(ctx, p.ID)
	if err != nil {
		t.Fatalf("Hydrate: %v", err)
	}
	if d.Name != "Atlas" || len(d.Members) != 1 || !d.Rates()[ada.ID].Equal(dec("55")) {
		t.Fatalf("hydrated = %+v", d)
	}

	if _, err := tr.Projects.Hydrate(ctx, uuid.New()); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("Hydrate(unknown) err = %v, want ErrNotFound", err)
	}
}

func TestMonthView(t *testing.T) {
	ctx := context.Background()
	tr, s, id := newTestTracker(t)
	m := march()
	p := newProject(t, tr, model.TeamMember{UserID: id.id, Rate: dec("50")})

	if _, err := s.ScheduleMonth(ctx, m, nil); err != nil {
		t.Fatalf("ScheduleMonth: %v", err)
	}
	if err := tr.Budgets.Replace(ctx, p.ID, []model.MonthlyBudget{{Month: m, Amount: dec("1000")}}); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	if err := tr.Allocations.Upsert(ctx, p.ID, id.id, m, dec("20")); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	for _, day := range []int{3, 4, 5} {
		if _, err := tr.Logs.Create(ctx, p.ID, model.Date{Year: 2025, Month: 3, Day: day}, dec("4"), []string{"build"}); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	today := model.Date{Year: 2025, Month: 3, Day: 14}
	view, err := tr.MonthView(ctx, p.ID, m, today)
	if err != nil {
		t.Fatalf("MonthView: %v", err)
	}
	r := view.Report
	if !r.Spend.Equal(dec("600")) || !r.Percentage.Equal(dec("60")) {
		t.Fatalf("spend/pct = %s/%s, want 600/60", r.Spend, r.Percentage)
	}
	if r.WorkingDays.Total != 21 || r.WorkingDays.Elapsed != 10 || !r.WorkingDays.Current {
		t.Fatalf("working days = %+v, want 10 of 21 current", r.WorkingDays)
	}
	if len(r.Members) != 1 || r.Members[0].MaxHours.Hours != 20 {
		t.Fatalf("members = %+v", r.Members)
	}
	if r.Members[0].Pacing.Status != reconcile.PaceAhead {
		t.Fatalf("pacing = %v, want on track", r.Members[0].Pacing.Status)
	}

	// An unscheduled month still produces a view with undefined pacing.
	april := m.AddMonths(1)
	view, err = tr.MonthView(ctx, p.ID, april, model.Date{Year: 2025, Month: 4, Day: 2})
	if err != nil {
		t.Fatalf("MonthView(unscheduled): %v", err)
	}
	if view.Report.WorkingDays.Total != 0 || len(view.Report.Members) != 1 {
		t.Fatalf("april report = %+v", view.Report)
	}
	if view.Report.Members[0].Pacing.Status != reconcile.PaceUndefined {
		t.Fatalf("april pacing = %v, want undefined", view.Report.Members[0].Pacing.Status)
	}
}
