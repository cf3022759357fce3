package task

import (
	"context"
	"time"

	"github.com/hashicorp/go-multierror"
)

// taskAttempts is how many times a failed Run or WaitUntilStopped call is
// retried before the worker gives up on that task.
const taskAttempts = 3

// taskRetryDelay separates retries, long enough to ride out transient ECS
// API throttling.
const taskRetryDelay = 10 * time.Second

// worker drains jobs, launching and waiting on each via runner, retrying
// both steps independently before reporting the task's outcome on results.
func worker(ctx context.Context, runner Runner, jobs <-chan *Options, results chan<- error) {
	for opts := range jobs {
		var t *Task
		var err error

		for attempt := 0; attempt < taskAttempts; attempt++ {
			t, err = runner.Run(ctx, *opts)
			if err == nil {
				break
			}
			time.Sleep(taskRetryDelay)
		}
		if err != nil {
			results <- err
			continue
		}

		for attempt := 0; attempt < taskAttempts; attempt++ {
			err = runner.WaitUntilStopped(ctx, t)
			if err == nil {
				break
			}
			time.Sleep(taskRetryDelay)
		}
		results <- err
	}
}

// RunAll launches a task for each of taskOptions across up to batchSize
// concurrent workers and blocks until every task has stopped, aggregating
// whatever errors occurred.
func RunAll(ctx context.Context, runner Runner, taskOptions []*Options, batchSize int) error {
	numTasks := len(taskOptions)
	if numTasks == 0 {
		return nil
	}

	numWorkers := batchSize
	if numWorkers > numTasks {
		numWorkers = numTasks
	}
	if numWorkers < 1 {
		numWorkers = 1
	}

	jobs := make(chan *Options, numTasks)
	results := make(chan error, numTasks)

	for w := 0; w < numWorkers; w++ {
		go worker(ctx, runner, jobs, results)
	}
	for _, opts := range taskOptions {
		jobs <- opts
	}
	close(jobs)

	var result *multierror.Error
	for i := 0; i < numTasks; i++ {
		result = multierror.Append(result, <-results)
	}
	return result.ErrorOrNil()
}
