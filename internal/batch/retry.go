package batch

import (
	"context"
	"time"
)

// Policy is an explicit retry policy: how many attempts, how long between
// them, and a predicate deciding whether an outcome is worth retrying.
// Keeping the predicate on the outcome (not just the error) lets callers
// retry classified results such as rate-limit snapshots.
type Policy[R any] struct {
	MaxAttempts int
	Backoff     time.Duration
	Retryable   func(R, error) bool
}

// Do runs fn until it produces a non-retryable outcome or attempts are
// exhausted, returning the final outcome either way.
func (p Policy[R]) Do(ctx context.Context, fn func(context.Context) (R, error)) (R, error) {
	attempts := max(p.MaxAttempts, 1)

	var value R
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		value, err = fn(ctx)
		if p.Retryable == nil || !p.Retryable(value, err) {
			return value, err
		}
		if attempt < attempts && p.Backoff > 0 {
			if serr := sleep(ctx, p.Backoff); serr != nil {
				return value, serr
			}
		}
	}
	return value, err
}
