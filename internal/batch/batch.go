// Package batch provides a bounded-concurrency batch executor and an explicit
// retry policy, shared by the bulk stats query and the interactive refresh
// path so neither duplicates its own batching logic.
package batch

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
)

// Result pairs one item's outcome with the error that produced it, in the
// same position as the item appeared in the input.
type Result[R any] struct {
	Value R
	Err   error
}

// Chunk splits items into consecutive slices of at most size elements.
// A non-positive size yields a single chunk.
func Chunk[T any](items []T, size int) [][]T {
	if size <= 0 {
		if len(items) == 0 {
			return nil
		}
		return [][]T{items}
	}
	var chunks [][]T
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		chunks = append(chunks, items[start:end])
	}
	return chunks
}

// Run applies fn to every item, size items at a time. Items within a batch
// run concurrently; batches run strictly sequentially with delay between
// them, bounding outbound request volume. Results are positional, so callers
// match outcomes to inputs by index, not arrival order. Per-item errors are
// captured in the results; only context cancellation stops the run early.
func Run[T, R any](ctx context.Context, items []T, size int, delay time.Duration, fn func(context.Context, T) (R, error)) ([]Result[R], error) {
	results := make([]Result[R], len(items))

	for start := 0; start < len(items); start += max(size, 1) {
		if start > 0 && delay > 0 {
			if err := sleep(ctx, delay); err != nil {
				return results, err
			}
		}
		end := min(start+max(size, 1), len(items))

		g, gctx := errgroup.WithContext(ctx)
		for i := start; i < end; i++ {
			g.Go(func() error {
				results[i].Value, results[i].Err = fn(gctx, items[i])
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return results, err
		}
		if err := ctx.Err(); err != nil {
			return results, err
		}
	}
	return results, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
