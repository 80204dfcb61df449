package tablestore

import (
	"context"
	"sync"

	"github.com/panjf2000/ants/v2"
)

// DefaultScanParallel bounds concurrent partition drains when the caller does
// not say otherwise.
const DefaultScanParallel = 4

// ScatterGather drains the filtered contents of every named partition
// concurrently and returns the concatenated rows. At most parallel partitions
// are read at once. The first failure cancels the remaining drains and no
// partial result is returned.
//
// Row order across partitions is unspecified; callers impose their own total
// order before paging.
func ScatterGather[T any](ctx context.Context, c Client[T], partitionKeys []string, parallel int, f Filter) ([]T, error) {
	if len(partitionKeys) == 0 {
		return nil, nil
	}
	if parallel <= 0 {
		parallel = DefaultScanParallel
	}

	pool, err := ants.NewPool(parallel)
	if err != nil {
		return nil, err
	}
	defer pool.Release()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		items    []T
		firstErr error
	)

	fail := func(err error) {
		mu.Lock()
		if firstErr == nil {
			firstErr = err
		}
		mu.Unlock()
		cancel()
	}

	for _, pk := range partitionKeys {
		pf := f
		pf.PartitionKey = pk

		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			if ctx.Err() != nil {
				return
			}
			rows, err := c.Query(pf).Drain(ctx)
			if err != nil {
				fail(err)
				return
			}
			mu.Lock()
			items = append(items, rows...)
			mu.Unlock()
		})
		if submitErr != nil {
			wg.Done()
			fail(submitErr)
			break
		}
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return items, nil
}
