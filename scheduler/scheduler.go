// Package scheduler fans output jobs across a bounded worker pool.
//
// Jobs are independent: one job failing never stops the pool, and the only
// shared state between workers is the segment cache, which handles its own
// locking. Cancelling the context stops dispatch of not-yet-started jobs;
// running jobs see the same context and abort through it.
package scheduler

import (
	"context"
	"sort"
	"sync"

	"github.com/samber/lo"

	"mixer/models"
)

// Executor runs one output job to completion and reports its result.
type Executor func(ctx context.Context, job models.OutputJob) models.JobResult

// Outcome aggregates one dispatch round.
type Outcome struct {
	// Results holds one entry per executed job, ordered by job index.
	Results []models.JobResult

	// Skipped counts jobs never handed to a worker because the context was
	// cancelled first.
	Skipped int
}

// Succeeded counts jobs that produced an output.
func (o Outcome) Succeeded() int {
	return lo.CountBy(o.Results, func(r models.JobResult) bool {
		return r.Succeeded()
	})
}

// Failed counts executed jobs that ended in an error.
func (o Outcome) Failed() int {
	return len(o.Results) - o.Succeeded()
}

// Scheduler dispatches jobs to a fixed-size worker pool.
type Scheduler struct {
	workers    int
	onProgress func(completed, total int, result models.JobResult)
}

// New creates a scheduler. A worker count below 1 is raised to 1.
func New(workers int) *Scheduler {
	if workers < 1 {
		workers = 1
	}
	return &Scheduler{workers: workers}
}

// SetProgressCallback sets a callback invoked after each job finishes, from
// the collection goroutine only.
func (s *Scheduler) SetProgressCallback(callback func(completed, total int, result models.JobResult)) {
	s.onProgress = callback
}

// Run executes the jobs on the pool and blocks until every dispatched job has
// finished. The returned outcome accounts for every input job: executed ones
// in Results, never-dispatched ones in Skipped.
func (s *Scheduler) Run(ctx context.Context, jobs []models.OutputJob, execute Executor) Outcome {
	if len(jobs) == 0 {
		return Outcome{}
	}

	workers := s.workers
	if workers > len(jobs) {
		workers = len(jobs)
	}

	jobCh := make(chan models.OutputJob)
	resultCh := make(chan models.JobResult)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobCh {
				resultCh <- execute(ctx, job)
			}
		}()
	}

	go func() {
	dispatch:
		for _, job := range jobs {
			if ctx.Err() != nil {
				break
			}
			select {
			case jobCh <- job:
			case <-ctx.Done():
				break dispatch
			}
		}
		close(jobCh)
		wg.Wait()
		close(resultCh)
	}()

	results := []models.JobResult{}
	for result := range resultCh {
		results = append(results, result)
		if s.onProgress != nil {
			s.onProgress(len(results), len(jobs), result)
		}
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Index < results[j].Index
	})

	return Outcome{
		Results: results,
		Skipped: len(jobs) - len(results),
	}
}
