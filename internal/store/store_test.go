package store

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/theirongolddev/tally/internal/model"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewMemory()
	if err != nil {
		t.Fatalf("new memory store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newTestProject(t *testing.T, s *Store) model.Project {
	t.Helper()
	p, err := s.CreateProject(context.Background(), model.Project{Name: "Atlas", CreatedBy: uuid.New()})
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	return p
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func mustMonth(t *testing.T, s string) model.Month {
	t.Helper()
	m, err := model.ParseMonth(s)
	if err != nil {
		t.Fatalf("ParseMonth(%q): %v", s, err)
	}
	return m
}

func mustDate(t *testing.T, s string) model.Date {
	t.Helper()
	d, err := model.ParseDate(s)
	if err != nil {
		t.Fatalf("ParseDate(%q): %v", s, err)
	}
	return d
}

func TestNewMemoryMigrates(t *testing.T) {
	s := newTestStore(t)
	var version int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		t.Fatal(err)
	}
	if version != currentVersion {
		t.Fatalf("user_version = %d, want %d", version, currentVersion)
	}
	if err := s.migrate(); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
}

func TestProjectLifecycle(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	p := newTestProject(t, s)

	if err := s.RenameProject(ctx, p.ID, "  Borealis "); err != nil {
		t.Fatalf("RenameProject: %v", err)
	}
	got, err := s.GetProject(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetProject: %v", err)
	}
	if got.Name != "Borealis" {
		t.Fatalf("Name = %q, want Borealis", got.Name)
	}

	if _, err := s.GetProject(ctx, uuid.New()); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("GetProject(unknown) err = %v, want ErrNotFound", err)
	}
	if err := s.RenameProject(ctx, uuid.New(), "x"); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("RenameProject(unknown) err = %v, want ErrNotFound", err)
	}
	if _, err := s.CreateProject(ctx, model.Project{Name: "x"}); !errors.Is(err, model.ErrUnauthenticated) {
		t.Fatalf("CreateProject without creator err = %v, want ErrUnauthenticated", err)
	}
}

func TestMembers(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	p := newTestProject(t, s)
	user := uuid.New()

	m := model.TeamMember{ProjectID: p.ID, UserID: user, Rate: dec("50"), MonthlyHoursBudget: dec("80")}
	if err := s.AddMember(ctx, m); err != nil {
		t.Fatalf("AddMember: %v", err)
	}
	if err := s.AddMember(ctx, m); !model.IsValidation(err) {
		t.Fatalf("duplicate AddMember err = %v, want validation error", err)
	}
	if err := s.AddMember(ctx, model.TeamMember{ProjectID: p.ID, UserID: uuid.New()}); !model.IsValidation(err) {
		t.Fatalf("AddMember(zero rate) err = %v, want validation error", err)
	}

	m.Rate = dec("62.5")
	if err := s.UpdateMember(ctx, m); err != nil {
		t.Fatalf("UpdateMember: %v", err)
	}
	members, err := s.ListMembers(ctx, p.ID)
	if err != nil {
		t.Fatalf("ListMembers: %v", err)
	}
	if len(members) != 1 || !members[0].Rate.Equal(dec("62.5")) {
		t.Fatalf("members = %+v, want one member at 62.5", members)
	}

	if err := s.RemoveMember(ctx, p.ID, user); err != nil {
		t.Fatalf("RemoveMember: %v", err)
	}
	if err := s.RemoveMember(ctx, p.ID, user); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("second RemoveMember err = %v, want ErrNotFound", err)
	}
}

func TestBudgetsReplaceOnlyListedMonths(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	p := newTestProject(t, s)
	jan, feb, mar := mustMonth(t, "2025-01"), mustMonth(t, "2025-02"), mustMonth(t, "2025-03")

	if err := s.InsertBudgets(ctx, p.ID, []model.MonthlyBudget{
		{Month: jan, Amount: dec("100")},
		{Month: feb, Amount: dec("200")},
	}); err != nil {
		t.Fatalf("InsertBudgets: %v", err)
	}

	replace := []model.MonthlyBudget{{Month: feb, Amount: dec("250")}, {Month: mar, Amount: dec("300")}}
	for i := 0; i < 2; i++ {
		if err := s.DeleteBudgets(ctx, p.ID, []model.Month{feb, mar}); err != nil {
			t.Fatalf("DeleteBudgets: %v", err)
		}
		if err := s.InsertBudgets(ctx, p.ID, replace); err != nil {
			t.Fatalf("InsertBudgets: %v", err)
		}
	}

	budgets, err := s.ListBudgets(ctx, p.ID)
	if err != nil {
		t.Fatalf("ListBudgets: %v", err)
	}
	got := map[string]string{}
	for _, b := range budgets {
		got[b.Month.Key()] = b.Amount.String()
	}
	want := map[string]string{"2025-01-01": "100", "2025-02-01": "250", "2025-03-01": "300"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("budgets mismatch (-want +got):\n%s", diff)
	}
	if budgets[0].Month != jan {
		t.Fatalf("first month = %v, want %v (ascending)", budgets[0].Month, jan)
	}
}

func TestAllocationUpsertOverwrites(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	p := newTestProject(t, s)
	user := uuid.New()
	month := mustMonth(t, "2025-03-14")

	for _, h := range []string{"10", "12.5"} {
		err := s.UpsertAllocation(ctx, model.MonthlyAllocation{
			ProjectID: p.ID, UserID: user, Month: month, Hours: dec(h),
		})
		if err != nil {
			t.Fatalf("UpsertAllocation(%s): %v", h, err)
		}
	}
	allocs, err := s.ListAllocations(ctx, p.ID)
	if err != nil {
		t.Fatalf("ListAllocations: %v", err)
	}
	if len(allocs) != 1 {
		t.Fatalf("len(allocs) = %d, want 1", len(allocs))
	}
	if !allocs[0].Hours.Equal(dec("12.5")) || allocs[0].Month.Key() != "2025-03-01" {
		t.Fatalf("alloc = %+v, want 12.5h in 2025-03-01", allocs[0])
	}

	if err := s.UpsertAllocation(ctx, model.MonthlyAllocation{
		ProjectID: p.ID, UserID: user, Month: month, Hours: decimal.Zero,
	}); !model.IsValidation(err) {
		t.Fatalf("UpsertAllocation(0) err = %v, want validation error", err)
	}

	if err := s.DeleteAllocation(ctx, p.ID, user, month); err != nil {
		t.Fatalf("DeleteAllocation: %v", err)
	}
	if err := s.DeleteAllocation(ctx, p.ID, user, month); err != nil {
		t.Fatalf("DeleteAllocation(absent): %v", err)
	}
	allocs, _ = s.ListAllocations(ctx, p.ID)
	if len(allocs) != 0 {
		t.Fatalf("allocations after delete = %d, want 0", len(allocs))
	}
}

func TestConcurrentUpsertsLeaveOneRow(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	p := newTestProject(t, s)
	user := uuid.New()
	month := mustMonth(t, "2025-04")

	submitted := map[string]bool{}
	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 1; i <= 8; i++ {
		h := decimal.NewFromInt(int64(i * 5))
		submitted[h.String()] = true
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- s.UpsertAllocation(ctx, model.MonthlyAllocation{
				ProjectID: p.ID, UserID: user, Month: month, Hours: h,
			})
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("UpsertAllocation: %v", err)
		}
	}

	allocs, err := s.ListAllocations(ctx, p.ID)
	if err != nil {
		t.Fatalf("ListAllocations: %v", err)
	}
	if len(allocs) != 1 {
		t.Fatalf("len(allocs) = %d, want 1", len(allocs))
	}
	if !submitted[allocs[0].Hours.String()] {
		t.Fatalf("final hours %s was never submitted", allocs[0].Hours)
	}
}

func TestLogRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	p := newTestProject(t, s)
	user := uuid.New()

	created, err := s.InsertLog(ctx, model.DailyLog{
		ProjectID:    p.ID,
		UserID:       user,
		Date:         mustDate(t, "2025-03-10"),
		Hours:        dec("3.5"),
		Descriptions: []string{"review", "deploy"},
	})
	if err != nil {
		t.Fatalf("InsertLog: %v", err)
	}
	if created.ID == uuid.Nil || created.CreatedAt.IsZero() {
		t.Fatalf("created log missing id or timestamp: %+v", created)
	}
	if _, err := s.InsertLog(ctx, model.DailyLog{
		ProjectID: p.ID, UserID: user, Date: mustDate(t, "2025-04-01"),
		Hours: dec("1"), Descriptions: []string{"april"},
	}); err != nil {
		t.Fatalf("InsertLog: %v", err)
	}

	if err := s.UpdateLog(ctx, created.ID, dec("4"), []string{"review"}); err != nil {
		t.Fatalf("UpdateLog: %v", err)
	}

	logs, err := s.ListLogs(ctx, p.ID, mustDate(t, "2025-03-01"), mustDate(t, "2025-03-31"))
	if err != nil {
		t.Fatalf("ListLogs: %v", err)
	}
	if len(logs) != 1 {
		t.Fatalf("len(logs) = %d, want 1", len(logs))
	}
	if !logs[0].Hours.Equal(dec("4")) {
		t.Fatalf("Hours = %s, want 4", logs[0].Hours)
	}
	if diff := cmp.Diff([]string{"review"}, logs[0].Descriptions); diff != "" {
		t.Fatalf("descriptions mismatch (-want +got):\n%s", diff)
	}

	all, _ := s.ListLogs(ctx, p.ID, model.Date{}, model.Date{})
	if len(all) != 2 {
		t.Fatalf("open range returned %d logs, want 2", len(all))
	}

	if err := s.DeleteLog(ctx, created.ID); err != nil {
		t.Fatalf("DeleteLog: %v", err)
	}
	if err := s.UpdateLog(ctx, created.ID, dec("1"), []string{"x"}); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("UpdateLog(deleted) err = %v, want ErrNotFound", err)
	}
}

func TestCalendarProcedures(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	march := mustMonth(t, "2025-03")

	if _, err := s.MonthWorkingDays(ctx, march); !errors.Is(err, model.ErrNoData) {
		t.Fatalf("MonthWorkingDays(unscheduled) err = %v, want ErrNoData", err)
	}

	if err := s.AddHoliday(ctx, mustDate(t, "2025-03-17"), "St Patrick's Day"); err != nil {
		t.Fatalf("AddHoliday: %v", err)
	}
	days, err := s.ScheduleMonth(ctx, march, nil)
	if err != nil {
		t.Fatalf("ScheduleMonth: %v", err)
	}
	if days != 20 {
		t.Fatalf("scheduled days = %d, want 20", days)
	}
	if got, _ := s.MonthWorkingDays(ctx, march); got != 20 {
		t.Fatalf("MonthWorkingDays = %d, want 20", got)
	}

	elapsed, err := s.CalculateWorkingDays(ctx, march.Start(), mustDate(t, "2025-03-18"))
	if err != nil {
		t.Fatalf("CalculateWorkingDays: %v", err)
	}
	// 3..7, 10..14, 18 with the 17th off.
	if elapsed != 11 {
		t.Fatalf("elapsed = %d, want 11", elapsed)
	}

	if _, err := s.CalculateWorkingDays(ctx, march.Start(), mustDate(t, "2025-04-02")); !errors.Is(err, model.ErrNoData) {
		t.Fatalf("range into unscheduled month err = %v, want ErrNoData", err)
	}

	override := 18
	if _, err := s.ScheduleMonth(ctx, march, &override); err != nil {
		t.Fatalf("ScheduleMonth(override): %v", err)
	}
	full, _ := s.CalculateWorkingDays(ctx, march.Start(), march.End())
	if full != 18 {
		t.Fatalf("full month after override = %d, want 18 (capped)", full)
	}
}

func TestProfiles(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	ada, err := s.UpsertProfile(ctx, model.Profile{Email: "ada@example.com", FullName: "Ada"})
	if err != nil {
		t.Fatalf("UpsertProfile: %v", err)
	}
	ada.FullName = "Ada Lovelace"
	if _, err := s.UpsertProfile(ctx, ada); err != nil {
		t.Fatalf("UpsertProfile(update): %v", err)
	}
	if _, err := s.UpsertProfile(ctx, model.Profile{}); !model.IsValidation(err) {
		t.Fatalf("UpsertProfile(empty) err = %v, want validation error", err)
	}

	profiles, err := s.ListProfiles(ctx)
	if err != nil {
		t.Fatalf("ListProfiles: %v", err)
	}
	if len(profiles) != 1 || profiles[0].DisplayName() != "Ada Lovelace" {
		t.Fatalf("profiles = %+v, want one Ada Lovelace", profiles)
	}
}
