package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/theirongolddev/tally/internal/model"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func mustMonth(t *testing.T, s string) model.Month {
	t.Helper()
	m, err := model.ParseMonth(s)
	if err != nil {
		t.Fatalf("ParseMonth(%q): %v", s, err)
	}
	return m
}

func TestApplyBudgetEdits(t *testing.T) {
	jan := mustMonth(t, "2025-01")
	window := []model.MonthlyBudget{
		{Month: jan, Amount: decimal.NewFromInt(100)},
		{Month: jan.AddMonths(1)},
	}

	if err := applyBudgetEdits(window, []string{"2025-02=$2500.50", "2025-01=0"}); err != nil {
		t.Fatalf("applyBudgetEdits: %v", err)
	}
	if !window[0].Amount.IsZero() {
		t.Errorf("January = %s, want 0", window[0].Amount)
	}
	if !window[1].Amount.Equal(decimal.RequireFromString("2500.50")) {
		t.Errorf("February = %s, want 2500.50", window[1].Amount)
	}

	for _, bad := range []string{"2025-01", "2025-03=10", "2025-01=lots", "soon=10"} {
		if err := applyBudgetEdits(window, []string{bad}); !model.IsValidation(err) {
			t.Errorf("applyBudgetEdits(%q) = %v, want a validation error", bad, err)
		}
	}
}

func TestParseAmount(t *testing.T) {
	d, err := parseAmount("budget_amount", " $1200.25 ")
	if err != nil {
		t.Fatalf("parseAmount: %v", err)
	}
	if !d.Equal(decimal.RequireFromString("1200.25")) {
		t.Fatalf("parseAmount = %s", d)
	}
	if _, err := parseAmount("budget_amount", "12h"); !model.IsValidation(err) {
		t.Fatalf("parseAmount(12h) = %v, want a validation error", err)
	}
}

func TestLogRange(t *testing.T) {
	reset := func() { flagLogMonth, flagLogFrom, flagLogTo = "", "", "" }
	t.Cleanup(reset)

	reset()
	flagLogMonth = "2025-02"
	from, to, err := logRange()
	if err != nil {
		t.Fatalf("logRange: %v", err)
	}
	if from.String() != "2025-02-01" || to.String() != "2025-02-28" {
		t.Errorf("month range = %s..%s", from, to)
	}

	reset()
	flagLogFrom = "2025-03-10"
	from, to, err = logRange()
	if err != nil {
		t.Fatalf("logRange: %v", err)
	}
	if from.String() != "2025-03-10" || !to.IsZero() {
		t.Errorf("open range = %s..%q", from, to)
	}

	reset()
	flagLogFrom, flagLogTo = "2025-03-10", "2025-03-01"
	if _, _, err := logRange(); !model.IsValidation(err) {
		t.Errorf("inverted range error = %v, want a validation error", err)
	}
}

func TestDescribeError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{"canceled", fmt.Errorf("listing: %w", context.Canceled), "interrupted"},
		{"transient", model.Transient(errors.New("dial tcp: refused")), "try again"},
		{"unauthenticated", model.ErrUnauthenticated, "tally login"},
		{"validation", model.NewValidationError("hours_spent", "must be positive"), "invalid input"},
		{
			"batch",
			&model.BatchError{Op: "save allocations", Total: 3, Errors: []error{errors.New("bob: timeout")}},
			"1 of 3 changes failed",
		},
		{"other", errors.New("disk full"), "disk full"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := describeError(tc.err); !strings.Contains(got, tc.want) {
				t.Errorf("describeError = %q, want it to contain %q", got, tc.want)
			}
		})
	}
}

func TestDailySparkline(t *testing.T) {
	feb := mustMonth(t, "2025-02")
	if got := dailySparkline(feb, nil); got != "" {
		t.Fatalf("empty sparkline = %q", got)
	}
	logs := []model.DailyLog{
		{Date: model.Date{Year: 2025, Month: 2, Day: 3}, Hours: decimal.NewFromInt(4)},
		{Date: model.Date{Year: 2025, Month: 2, Day: 3}, Hours: decimal.NewFromInt(4)},
		{Date: model.Date{Year: 2025, Month: 3, Day: 1}, Hours: decimal.NewFromInt(8)},
	}
	got := []rune(dailySparkline(feb, logs))
	if len(got) != 28 {
		t.Fatalf("sparkline has %d days, want 28", len(got))
	}
	if got[2] != '█' || got[0] != '▁' {
		t.Errorf("sparkline = %q", string(got))
	}
}

func TestAllocRows(t *testing.T) {
	alice, bob, carol := uuid.New(), uuid.New(), uuid.New()
	jan := mustMonth(t, "2025-01")
	d := model.ProjectDetails{
		Members: []model.TeamMember{
			{UserID: bob, Rate: decimal.NewFromInt(50)},
			{UserID: alice, Rate: decimal.NewFromInt(80)},
		},
		Allocations: []model.MonthlyAllocation{
			{UserID: carol, Month: jan, Hours: decimal.NewFromInt(5)},
			{UserID: alice, Month: jan, Hours: decimal.NewFromInt(10)},
			{UserID: carol, Month: jan.AddMonths(1), Hours: decimal.NewFromInt(5)},
		},
	}
	names := map[uuid.UUID]string{alice: "Alice", bob: "bob", carol: "Carol"}

	type row struct {
		Name  string
		Rated bool
	}
	var got []row
	for _, m := range allocRows(d, jan, names) {
		got = append(got, row{m.Name, m.Rated})
	}
	want := []row{{"Alice", true}, {"bob", true}, {"Carol", false}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("allocRows mismatch (-want +got):\n%s", diff)
	}

	if rows := allocRows(d, jan.AddMonths(2), names); len(rows) != 2 {
		t.Errorf("month without allocations has %d rows, want the 2 members", len(rows))
	}
}

func TestMaskToken(t *testing.T) {
	cases := map[string]string{
		"":                          "not set",
		"abc":                       "****",
		"secret123":                 "secr...",
		"0123456789abcdefghijklmno": "01234567...lmno",
	}
	for in, want := range cases {
		if got := maskToken(in); got != want {
			t.Errorf("maskToken(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestFilterDetachArg(t *testing.T) {
	got := filterDetachArg([]string{"serve", "--detach", "--addr", ":9000", "--detach=true"})
	if diff := cmp.Diff([]string{"serve", "--addr", ":9000"}, got); diff != "" {
		t.Errorf("filterDetachArg mismatch (-want +got):\n%s", diff)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("truncate = %q", got)
	}
	got := truncate("a rather long description", 10)
	if utf8.RuneCountInString(got) != 10 || !strings.HasSuffix(got, "…") {
		t.Errorf("truncate = %q", got)
	}
}
