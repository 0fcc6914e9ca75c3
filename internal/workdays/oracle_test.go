package workdays

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/theirongolddev/tally/internal/model"
	"github.com/theirongolddev/tally/internal/retry"
)

type fakeCalendar struct {
	mu         sync.Mutex
	monthCalls int
	rangeCalls int
	failFirst  int
	monthErr   error
	days       int
	elapsed    int
	elapsedErr error
	lastStart  model.Date
	lastEnd    model.Date
}

func (f *fakeCalendar) MonthWorkingDays(_ context.Context, _ model.Month) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.monthCalls++
	if f.monthCalls <= f.failFirst {
		return 0, model.Transient(errors.New("Failed to fetch"))
	}
	if f.monthErr != nil {
		return 0, f.monthErr
	}
	return f.days, nil
}

func (f *fakeCalendar) CalculateWorkingDays(_ context.Context, start, end model.Date) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rangeCalls++
	f.lastStart, f.lastEnd = start, end
	return f.elapsed, f.elapsedErr
}

var march = model.Month{Year: 2025, Month: time.March}

func testPolicy(delay time.Duration) retry.Policy {
	return retry.Policy{Attempts: 3, InitialDelay: delay}
}

func TestInMonthRetriesThenCaches(t *testing.T) {
	cal := &fakeCalendar{failFirst: 2, days: 21}
	o := New(cal, testPolicy(10*time.Millisecond), nil)

	start := time.Now()
	n, err := o.InMonth(context.Background(), march)
	elapsed := time.Since(start)
	if err != nil {
		t.Fatalf("InMonth: %v", err)
	}
	if n != 21 {
		t.Fatalf("InMonth = %d, want 21", n)
	}
	if cal.monthCalls != 3 {
		t.Fatalf("calendar calls = %d, want 3", cal.monthCalls)
	}
	// initialDelay + 2*initialDelay
	if elapsed < 30*time.Millisecond {
		t.Fatalf("elapsed = %s, want >= 30ms", elapsed)
	}

	cached, ok := o.Cached(march)
	if !ok || cached != 21 {
		t.Fatalf("Cached = %d,%v, want 21,true", cached, ok)
	}

	if _, err := o.InMonth(context.Background(), march); err != nil {
		t.Fatal(err)
	}
	if cal.monthCalls != 3 {
		t.Fatalf("cached lookup hit the calendar: calls = %d", cal.monthCalls)
	}
}

func TestInMonthNoDataIsZero(t *testing.T) {
	cal := &fakeCalendar{monthErr: model.ErrNoData}
	o := New(cal, testPolicy(time.Millisecond), nil)

	n, err := o.InMonth(context.Background(), march)
	if err != nil {
		t.Fatalf("no data should not be an error: %v", err)
	}
	if n != 0 {
		t.Fatalf("InMonth = %d, want 0", n)
	}
	if cal.monthCalls != 1 {
		t.Fatalf("no data was retried: calls = %d", cal.monthCalls)
	}
	if _, ok := o.Cached(march); ok {
		t.Fatal("no-data month should not be cached")
	}
}

func TestInMonthSurfacesOtherErrors(t *testing.T) {
	cal := &fakeCalendar{failFirst: 5}
	o := New(cal, testPolicy(time.Millisecond), nil)

	_, err := o.InMonth(context.Background(), march)
	if !model.IsTransient(err) {
		t.Fatalf("err = %v, want transient after exhausting retries", err)
	}
	if cal.monthCalls != 3 {
		t.Fatalf("calls = %d, want 3", cal.monthCalls)
	}
}

func TestElapsedIsFreshAndTolerant(t *testing.T) {
	cal := &fakeCalendar{elapsed: 9}
	o := New(cal, testPolicy(time.Millisecond), nil)
	asOf := model.Date{Year: 2025, Month: time.March, Day: 13}

	if got := o.Elapsed(context.Background(), asOf); got != 9 {
		t.Fatalf("Elapsed = %d, want 9", got)
	}
	if cal.lastStart != march.Start() || cal.lastEnd != asOf {
		t.Fatalf("range = %s..%s, want %s..%s", cal.lastStart, cal.lastEnd, march.Start(), asOf)
	}

	cal.elapsed = 10
	if got := o.Elapsed(context.Background(), asOf.AddDays(1)); got != 10 {
		t.Fatalf("Elapsed not recomputed: %d", got)
	}

	cal.elapsedErr = model.Transient(errors.New("offline"))
	if got := o.Elapsed(context.Background(), asOf); got != 0 {
		t.Fatalf("Elapsed on failure = %d, want 0", got)
	}
	if cal.rangeCalls != 3 {
		t.Fatalf("range calls = %d, want 3", cal.rangeCalls)
	}
}

func TestInMonthConcurrent(t *testing.T) {
	cal := &fakeCalendar{days: 20}
	o := New(cal, testPolicy(time.Millisecond), nil)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m := march.AddMonths(i % 4)
			if n, err := o.InMonth(context.Background(), m); err != nil || n != 20 {
				t.Errorf("InMonth(%s) = %d, %v", m, n, err)
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < 4; i++ {
		if _, ok := o.Cached(march.AddMonths(i)); !ok {
			t.Fatalf("month %d not cached", i)
		}
	}
}
