package model

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestParseMonthNormalizesToFirstDay(t *testing.T) {
	for _, in := range []string{"2025-03", "2025-03-01", "2025-03-17"} {
		m, err := ParseMonth(in)
		if err != nil {
			t.Fatalf("ParseMonth(%q): %v", in, err)
		}
		if m.Key() != "2025-03-01" {
			t.Fatalf("ParseMonth(%q).Key() = %q, want 2025-03-01", in, m.Key())
		}
	}
}

func TestParseMonthRejectsGarbage(t *testing.T) {
	_, err := ParseMonth("march")
	if !IsValidation(err) {
		t.Fatalf("ParseMonth(march) err = %v, want validation error", err)
	}
}

func TestMonthEnd(t *testing.T) {
	cases := map[string]string{
		"2024-02": "2024-02-29",
		"2025-02": "2025-02-28",
		"2025-12": "2025-12-31",
		"2025-04": "2025-04-30",
	}
	for in, want := range cases {
		m, _ := ParseMonth(in)
		if got := m.End().String(); got != want {
			t.Fatalf("%s End() = %s, want %s", in, got, want)
		}
	}
}

func TestMonthAddMonthsCrossesYear(t *testing.T) {
	m := Month{Year: 2025, Month: time.November}
	if got := m.AddMonths(3).Key(); got != "2026-02-01" {
		t.Fatalf("AddMonths(3) = %s, want 2026-02-01", got)
	}
	if got := m.AddMonths(-11).Key(); got != "2024-12-01" {
		t.Fatalf("AddMonths(-11) = %s, want 2024-12-01", got)
	}
}

func TestMonthContains(t *testing.T) {
	m := Month{Year: 2025, Month: time.March}
	if !m.Contains(Date{2025, time.March, 31}) {
		t.Fatal("March should contain March 31")
	}
	if m.Contains(Date{2025, time.April, 1}) {
		t.Fatal("March should not contain April 1")
	}
}

func TestDateJSONRoundTrip(t *testing.T) {
	type wrapper struct {
		D Date  `json:"d"`
		M Month `json:"m"`
	}
	in := wrapper{D: Date{2025, time.June, 9}, M: Month{2025, time.June}}
	b, err := json.Marshal(in)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != `{"d":"2025-06-09","m":"2025-06-01"}` {
		t.Fatalf("marshal = %s", b)
	}
	var out wrapper
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatal(err)
	}
	if out != in {
		t.Fatalf("round trip = %+v, want %+v", out, in)
	}
}

func TestTransientClassification(t *testing.T) {
	base := errors.New("dial tcp: connection refused")
	err := Transient(base)
	if !IsTransient(err) {
		t.Fatal("Transient(err) not classified transient")
	}
	if !errors.Is(err, base) {
		t.Fatal("Transient(err) lost the cause")
	}
	if IsTransient(NewValidationError("hours", "must be positive")) {
		t.Fatal("validation error classified transient")
	}
	if Transient(nil) != nil {
		t.Fatal("Transient(nil) should be nil")
	}
}

func TestBatchErrorUnwrap(t *testing.T) {
	err := &BatchError{Op: "apply allocations", Total: 3, Errors: []error{Transient(errors.New("reset")), ErrNotFound}}
	if !errors.Is(err, ErrNotFound) {
		t.Fatal("BatchError should unwrap to ErrNotFound")
	}
	if !IsTransient(err) {
		t.Fatal("BatchError should unwrap to ErrTransient")
	}
	want := "apply allocations: 2 of 3 operations failed"
	if got := err.Error(); len(got) < len(want) || got[:len(want)] != want {
		t.Fatalf("Error() = %q, want prefix %q", got, want)
	}
}
