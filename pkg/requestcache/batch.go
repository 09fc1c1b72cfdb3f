package requestcache

import (
	"context"

	"golang.org/x/sync/errgroup"
)

const defaultBatchSize = 5

// Batch runs the requests in fixed-size sequential batches, with full
// parallelism inside each batch. Results are returned in the original
// request order. The first error aborts the run.
func Batch[T any](ctx context.Context, requests []FetchFunc[T], batchSize int) ([]T, error) {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	results := make([]T, len(requests))
	for start := 0; start < len(requests); start += batchSize {
		end := min(start+batchSize, len(requests))

		g, gctx := errgroup.WithContext(ctx)
		for i := start; i < end; i++ {
			i := i
			g.Go(func() error {
				value, err := requests[i](gctx)
				if err != nil {
					return err
				}
				results[i] = value
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}
	return results, nil
}
