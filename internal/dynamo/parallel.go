package dynamo

import (
	"sync"
)

// ParallelFor executes fn over [0, n) split into at most workers contiguous
// chunks of at least minChunk items. workers <= 1 runs inline.
func ParallelFor(n, minChunk, workers int, fn func(start, end int)) {
	if n <= 0 {
		return
	}
	if minChunk < 1 {
		minChunk = 1
	}
	if n <= minChunk || workers <= 1 {
		fn(0, n)
		return
	}

	if n/minChunk < workers {
		workers = n / minChunk
	}
	if workers < 1 {
		workers = 1
	}

	chunkSize := (n + workers - 1) / workers

	var wg sync.WaitGroup
	for start := 0; start < n; start += chunkSize {
		end := start + chunkSize
		if end > n {
			end = n
		}

		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(start, end)
	}

	wg.Wait()
}

// ParallelForErr is ParallelFor for fallible work. Every chunk runs to
// completion; the error from the lowest-indexed failing chunk is returned so
// the result does not depend on scheduling.
func ParallelForErr(n, minChunk, workers int, fn func(start, end int) error) error {
	if n <= 0 {
		return nil
	}

	var mu sync.Mutex
	firstStart := n
	var firstErr error

	ParallelFor(n, minChunk, workers, func(start, end int) {
		if err := fn(start, end); err != nil {
			mu.Lock()
			if start < firstStart {
				firstStart = start
				firstErr = err
			}
			mu.Unlock()
		}
	})

	return firstErr
}
