package runner

import (
	"context"
	"sync"
)

// Task pairs a runner with its position in a batch.
type Task struct {
	Runner *Runner
}

// ExecuteBatch runs many independent runners concurrently, bounded by
// limit. Results are returned in task order. A limit below one runs the
// tasks sequentially. Each runner owns its execution context, so tasks
// share nothing beyond the context used for cancellation.
func ExecuteBatch(ctx context.Context, tasks []Task, limit int) []*Result {
	if limit < 1 {
		limit = 1
	}

	results := make([]*Result, len(tasks))
	sem := make(chan struct{}, limit)
	var wg sync.WaitGroup

	for i, task := range tasks {
		wg.Add(1)
		go func(i int, task Task) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			results[i] = task.Runner.Execute(ctx)
		}(i, task)
	}

	wg.Wait()
	return results
}
