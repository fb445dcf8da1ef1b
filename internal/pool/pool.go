// Package pool provides bounded fan-out for independent units of work.
package pool

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Map applies fn to every item with at most limit calls in flight and
// returns the results in input order. A non-positive limit runs the items
// one at a time. fn reports its own failures through R; Map only fails
// when ctx is cancelled before every item was started, or when fn panics.
func Map[T, R any](ctx context.Context, limit int, items []T, fn func(ctx context.Context, index int, item T) R) ([]R, error) {
	if limit <= 0 {
		limit = 1
	}
	results := make([]R, len(items))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, item := range items {
		if err := gctx.Err(); err != nil {
			break
		}
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("pool: item %d panicked: %v", i, r)
				}
			}()
			results[i] = fn(gctx, i, item)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, ctx.Err()
}
