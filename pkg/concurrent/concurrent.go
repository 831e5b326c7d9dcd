package concurrent

import (
	"context"
	"iter"

	"golang.org/x/sync/errgroup"
)

// Concurrent runs action for each element of seq in its own goroutine, at
// most limit at a time (limit <= 0 means unbounded). It waits for all
// goroutines and returns the first error; the context passed to action is
// cancelled as soon as one action fails.
func Concurrent[T any](ctx context.Context, seq iter.Seq[T], limit int, action func(context.Context, T) error) error {
	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for value := range seq {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			return action(ctx, value)
		})
	}
	return g.Wait()
}

// ParallelMap applies mapFn to each element of in with at most workers
// goroutines, preserving order. On error the partial results are discarded.
func ParallelMap[T any, R any](ctx context.Context, in []T, workers int, mapFn func(context.Context, T) (R, error)) ([]R, error) {
	out := make([]R, len(in))
	g, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i, v := range in {
		g.Go(func() error {
			r, err := mapFn(ctx, v)
			if err != nil {
				return err
			}
			out[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Range yields 0..n-1.
func Range(n int) iter.Seq[int] {
	return func(yield func(int) bool) {
		for i := 0; i < n; i++ {
			if !yield(i) {
				return
			}
		}
	}
}
