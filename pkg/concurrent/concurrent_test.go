package concurrent

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConcurrent(t *testing.T) {
	t.Run("Runs Every Element", func(t *testing.T) {
		var sum atomic.Int64
		err := Concurrent(context.Background(), Range(100), 4, func(_ context.Context, v int) error {
			sum.Add(int64(v))
			return nil
		})
		require.NoError(t, err)
		require.Equal(t, int64(4950), sum.Load())
	})

	t.Run("Respects Limit", func(t *testing.T) {
		var running, peak atomic.Int32
		err := Concurrent(context.Background(), Range(50), 3, func(context.Context, int) error {
			n := running.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			running.Add(-1)
			return nil
		})
		require.NoError(t, err)
		require.LessOrEqual(t, peak.Load(), int32(3))
	})

	t.Run("First Error Cancels", func(t *testing.T) {
		boom := errors.New("boom")
		err := Concurrent(context.Background(), Range(10), 1, func(ctx context.Context, v int) error {
			if v == 2 {
				return boom
			}
			return ctx.Err()
		})
		require.ErrorIs(t, err, boom)
	})
}

func TestParallelMap(t *testing.T) {
	out, err := ParallelMap(context.Background(), []int{1, 2, 3, 4}, 2, func(_ context.Context, v int) (int, error) {
		return v * v, nil
	})
	require.NoError(t, err)
	require.Equal(t, []int{1, 4, 9, 16}, out)

	boom := errors.New("boom")
	out, err = ParallelMap(context.Background(), []int{1, 2}, 0, func(_ context.Context, v int) (int, error) {
		if v == 2 {
			return 0, boom
		}
		return v, nil
	})
	require.ErrorIs(t, err, boom)
	require.Nil(t, out)
}
