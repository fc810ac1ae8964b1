package probe

import (
	"context"
	"sync"
)

// Result pairs an input path with its probe outcome. Exactly one of File
// and Err is set.
type Result struct {
	Path string
	File *MediaFile
	Err  error
}

// InspectAll probes paths with a fixed pool of workers pulling from a shared
// queue and returns one Result per path once every worker has finished.
// Result order is unspecified. workers is clamped to [1, len(paths)].
//
// onDone, if non-nil, is called from worker goroutines after each path and
// must be safe for concurrent use.
func InspectAll(ctx context.Context, in Inspector, paths []string, workers int, onDone func(Result)) []Result {
	if len(paths) == 0 {
		return nil
	}
	workers = min(max(workers, 1), len(paths))

	queue := make(chan string, len(paths))
	for _, p := range paths {
		queue <- p
	}
	close(queue)

	var (
		mu      sync.Mutex
		results = make([]Result, 0, len(paths))
		wg      sync.WaitGroup
	)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range queue {
				r := Result{Path: path}
				r.File, r.Err = in.Inspect(ctx, path)
				if r.Err != nil {
					r.File = nil
				}

				mu.Lock()
				results = append(results, r)
				mu.Unlock()

				if onDone != nil {
					onDone(r)
				}
			}
		}()
	}
	wg.Wait()
	return results
}
