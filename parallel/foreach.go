// Package parallel provides the small concurrency helpers used by the checks
package parallel

import (
	"sync"
	"sync/atomic"
)

// ForEach runs body for every index in [0, length) using at most limit
// concurrent workers. It returns once every index has been processed.
func ForEach(length, limit int, body func(i int)) {
	if length <= 0 {
		return
	}
	if limit <= 0 {
		limit = 1
	}
	if limit > length {
		limit = length
	}

	var next int64 = -1
	var wg sync.WaitGroup
	wg.Add(limit)
	for w := 0; w < limit; w++ {
		go func() {
			defer wg.Done()
			for {
				i := int(atomic.AddInt64(&next, 1))
				if i >= length {
					return
				}
				body(i)
			}
		}()
	}
	wg.Wait()
}
