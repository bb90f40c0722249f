package batch

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunk(t *testing.T) {
	testCases := []struct {
		name     string
		items    []int
		size     int
		expected [][]int
	}{
		{"even split", []int{1, 2, 3, 4}, 2, [][]int{{1, 2}, {3, 4}}},
		{"remainder", []int{1, 2, 3}, 2, [][]int{{1, 2}, {3}}},
		{"oversized batch", []int{1, 2}, 50, [][]int{{1, 2}}},
		{"non-positive size", []int{1, 2}, 0, [][]int{{1, 2}}},
		{"empty input", nil, 3, nil},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Chunk(tc.items, tc.size))
		})
	}
}

func TestRun_ResultsArePositional(t *testing.T) {
	items := []int{10, 20, 30, 40, 50}

	results, err := Run(context.Background(), items, 2, 0, func(_ context.Context, n int) (int, error) {
		if n == 30 {
			return 0, errors.New("boom")
		}
		return n * 2, nil
	})

	require.NoError(t, err)
	require.Len(t, results, len(items))
	assert.Equal(t, 20, results[0].Value)
	assert.Equal(t, 40, results[1].Value)
	assert.Error(t, results[2].Err)
	assert.Equal(t, 80, results[3].Value)
	assert.Equal(t, 100, results[4].Value)
}

func TestRun_BoundsConcurrency(t *testing.T) {
	var current, peak int64
	var mu sync.Mutex

	items := make([]int, 20)
	_, err := Run(context.Background(), items, 5, 0, func(_ context.Context, n int) (int, error) {
		cur := atomic.AddInt64(&current, 1)
		mu.Lock()
		if cur > peak {
			peak = cur
		}
		mu.Unlock()
		time.Sleep(5 * time.Millisecond)
		atomic.AddInt64(&current, -1)
		return n, nil
	})

	require.NoError(t, err)
	assert.LessOrEqual(t, peak, int64(5))
}

func TestRun_CancelledContextStopsBetweenBatches(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var calls int64

	_, err := Run(ctx, make([]int, 10), 2, time.Millisecond, func(_ context.Context, n int) (int, error) {
		if atomic.AddInt64(&calls, 1) == 2 {
			cancel()
		}
		return n, nil
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int64(2), atomic.LoadInt64(&calls))
}

func TestPolicy_Do(t *testing.T) {
	t.Run("stops on first non-retryable outcome", func(t *testing.T) {
		calls := 0
		p := Policy[int]{MaxAttempts: 5, Retryable: func(_ int, err error) bool { return err != nil }}
		v, err := p.Do(context.Background(), func(context.Context) (int, error) {
			calls++
			return 7, nil
		})
		require.NoError(t, err)
		assert.Equal(t, 7, v)
		assert.Equal(t, 1, calls)
	})

	t.Run("retries up to MaxAttempts", func(t *testing.T) {
		calls := 0
		p := Policy[int]{MaxAttempts: 3, Retryable: func(_ int, err error) bool { return err != nil }}
		_, err := p.Do(context.Background(), func(context.Context) (int, error) {
			calls++
			return 0, errors.New("still failing")
		})
		assert.Error(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("recovers on a later attempt", func(t *testing.T) {
		calls := 0
		p := Policy[string]{MaxAttempts: 3, Retryable: func(s string, _ error) bool { return s == "limited" }}
		v, err := p.Do(context.Background(), func(context.Context) (string, error) {
			calls++
			if calls < 2 {
				return "limited", nil
			}
			return "ok", nil
		})
		require.NoError(t, err)
		assert.Equal(t, "ok", v)
		assert.Equal(t, 2, calls)
	})

	t.Run("zero attempts still runs once", func(t *testing.T) {
		calls := 0
		p := Policy[int]{}
		_, err := p.Do(context.Background(), func(context.Context) (int, error) {
			calls++
			return 0, nil
		})
		require.NoError(t, err)
		assert.Equal(t, 1, calls)
	})
}
