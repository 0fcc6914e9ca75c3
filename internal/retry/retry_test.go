package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/theirongolddev/tally/internal/model"
)

func fastPolicy() Policy {
	return Policy{Attempts: 3, InitialDelay: 5 * time.Millisecond}
}

func TestDoSucceedsAfterTwoTransientFailures(t *testing.T) {
	calls := 0
	start := time.Now()
	got, err := Do(context.Background(), fastPolicy(), "working days", func(context.Context) (int, error) {
		calls++
		if calls < 3 {
			return 0, model.Transient(errors.New("connection reset"))
		}
		return 21, nil
	})
	elapsed := time.Since(start)

	if err != nil {
		t.Fatalf("Do returned error: %v", err)
	}
	if got != 21 {
		t.Fatalf("Do = %d, want 21", got)
	}
	if calls != 3 {
		t.Fatalf("calls = %d, want 3", calls)
	}
	// 5ms + 10ms of backoff must have elapsed.
	if elapsed < 15*time.Millisecond {
		t.Fatalf("elapsed = %s, want >= 15ms", elapsed)
	}
}

func TestDoGivesUpAfterAttempts(t *testing.T) {
	calls := 0
	cause := errors.New("connection refused")
	_, err := Do(context.Background(), fastPolicy(), "list", func(context.Context) (string, error) {
		calls++
		return "", model.Transient(cause)
	})
	if calls != 3 {
		t.Fatalf("calls = %d, want 3", calls)
	}
	if !errors.Is(err, cause) || !model.IsTransient(err) {
		t.Fatalf("err = %v, want transient wrapping cause", err)
	}
}

func TestDoDoesNotRetryNonTransient(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), fastPolicy(), "get", func(context.Context) (int, error) {
		calls++
		return 0, model.ErrNotFound
	})
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
	if !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestDoStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := Policy{Attempts: 3, InitialDelay: time.Hour}
	calls := 0
	done := make(chan error, 1)
	go func() {
		_, err := Do(ctx, p, "slow", func(context.Context) (int, error) {
			calls++
			return 0, model.Transient(errors.New("timeout"))
		})
		done <- err
	}()
	cancel()
	select {
	case err := <-done:
		if err == nil {
			t.Fatal("expected error after cancel")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Do did not return after cancel")
	}
}

func TestPolicyDelay(t *testing.T) {
	p := DefaultPolicy()
	if p.Delay(2) != time.Second || p.Delay(3) != 2*time.Second || p.Delay(4) != 4*time.Second {
		t.Fatalf("delays = %s %s %s, want 1s 2s 4s", p.Delay(2), p.Delay(3), p.Delay(4))
	}
	if p.Delay(1) != 0 {
		t.Fatalf("Delay(1) = %s, want 0", p.Delay(1))
	}
}

func TestRun(t *testing.T) {
	calls := 0
	err := Run(context.Background(), fastPolicy(), "write", func(context.Context) error {
		calls++
		if calls == 1 {
			return model.Transient(errors.New("eof"))
		}
		return nil
	})
	if err != nil || calls != 2 {
		t.Fatalf("Run err=%v calls=%d, want nil and 2", err, calls)
	}
}
