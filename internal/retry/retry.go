// Package retry applies bounded exponential backoff to operations that can
// fail with transient transport errors.
package retry

import (
	"context"
	"log/slog"
	"time"

	"github.com/theirongolddev/tally/internal/model"

	goretry "github.com/sethvargo/go-retry"
)

const (
	DefaultAttempts     = 3
	DefaultInitialDelay = time.Second
)

// Policy bounds a retry loop. Attempts counts the first call, so Attempts=3
// allows two retries, waiting InitialDelay and then 2*InitialDelay.
type Policy struct {
	Attempts     int
	InitialDelay time.Duration
	Logger       *slog.Logger
}

// DefaultPolicy returns 3 attempts starting at a one second delay.
func DefaultPolicy() Policy {
	return Policy{Attempts: DefaultAttempts, InitialDelay: DefaultInitialDelay}
}

// Delay returns the wait before attempt n (n >= 2).
func (p Policy) Delay(attempt int) time.Duration {
	if attempt < 2 {
		return 0
	}
	return p.InitialDelay << (attempt - 2)
}

func (p Policy) normalized() Policy {
	if p.Attempts < 1 {
		p.Attempts = 1
	}
	if p.InitialDelay <= 0 {
		p.InitialDelay = DefaultInitialDelay
	}
	if p.Logger == nil {
		p.Logger = slog.New(slog.DiscardHandler)
	}
	return p
}

// Do runs op, retrying only errors classified by model.IsTransient while the
// policy has attempts left. Any other error is returned immediately. When the
// attempts run out the last transient error is returned.
func Do[T any](ctx context.Context, p Policy, name string, op func(context.Context) (T, error)) (T, error) {
	p = p.normalized()

	b := goretry.NewExponential(p.InitialDelay)
	b = goretry.WithMaxRetries(uint64(p.Attempts-1), b)

	var (
		out     T
		attempt int
	)
	err := goretry.Do(ctx, b, func(ctx context.Context) error {
		attempt++
		v, err := op(ctx)
		if err == nil {
			out = v
			return nil
		}
		if !model.IsTransient(err) {
			return err
		}
		if attempt < p.Attempts {
			p.Logger.Warn("transient failure, retrying",
				"op", name,
				"attempt", attempt,
				"next_delay", p.Delay(attempt+1),
				"err", err)
		}
		return goretry.RetryableError(err)
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

// Run is Do for operations without a result.
func Run(ctx context.Context, p Policy, name string, op func(context.Context) error) error {
	_, err := Do(ctx, p, name, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	})
	return err
}
