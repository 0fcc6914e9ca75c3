package cli

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestFormatMoney(t *testing.T) {
	cases := map[string]string{
		"0":         "$0.00",
		"1234.5":    "$1,234.50",
		"-20":       "-$20.00",
		"1000000.1": "$1,000,000.10",
	}
	for in, want := range cases {
		if got := FormatMoney(decimal.RequireFromString(in)); got != want {
			t.Fatalf("FormatMoney(%s) = %q, want %q", in, got, want)
		}
	}
}

func TestFormatHours(t *testing.T) {
	if got := FormatHours(decimal.RequireFromString("7.50")); got != "7.5h" {
		t.Fatalf("FormatHours = %q, want 7.5h", got)
	}
	if got := FormatHoursDelta(decimal.RequireFromString("1.25")); got != "+1.25h" {
		t.Fatalf("FormatHoursDelta = %q, want +1.25h", got)
	}
	if got := FormatHoursDelta(decimal.RequireFromString("-2")); got != "-2h" {
		t.Fatalf("FormatHoursDelta = %q, want -2h", got)
	}
}

func TestFormatNumber(t *testing.T) {
	if got := FormatNumber(1234567); got != "1,234,567" {
		t.Fatalf("FormatNumber = %q", got)
	}
	if got := FormatNumber(-999); got != "-999" {
		t.Fatalf("FormatNumber = %q", got)
	}
}

func TestRenderBudgetBarShowsUnclampedPercent(t *testing.T) {
	out := RenderBudgetBar(decimal.RequireFromString("150"), 20)
	if !strings.HasSuffix(out, "150.0%") {
		t.Fatalf("bar = %q, want unclamped 150.0%% suffix", out)
	}
}

func TestRenderTableAlignsStyledCells(t *testing.T) {
	out := RenderTable(Table{
		Headers: []string{"Member", "Hours"},
		Rows:    [][]string{{"ada", Good("12h")}, {"---"}, {"bob", "3h"}},
	})
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 7 {
		t.Fatalf("table has %d lines, want 7:\n%s", len(lines), out)
	}
}
