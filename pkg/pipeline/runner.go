package pipeline

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Runner is a bounded worker pool fed by a buffered queue of task ids.
// A task id is queued at most once until its handler returns.
type Runner struct {
	workers int
	queue   chan string

	lock   sync.Mutex
	queued map[string]struct{}
}

func NewRunner(workers, queueSize int) *Runner {
	if workers <= 0 {
		workers = 1
	}
	if queueSize <= 0 {
		queueSize = 1
	}

	return &Runner{
		workers: workers,
		queue:   make(chan string, queueSize),
		queued:  make(map[string]struct{}),
	}
}

// Enqueue schedules a task without blocking. It returns false if the task is
// already queued or running, or if the queue is full.
func (r *Runner) Enqueue(taskID string) bool {
	r.lock.Lock()
	defer r.lock.Unlock()

	if _, ok := r.queued[taskID]; ok {
		return false
	}

	select {
	case r.queue <- taskID:
		r.queued[taskID] = struct{}{}
		return true
	default:
		log.WithField("task_id", taskID).Warn("task queue is full, task will be picked up by the next sweep")
		return false
	}
}

// Pending returns the number of queued and running tasks.
func (r *Runner) Pending() int {
	r.lock.Lock()
	defer r.lock.Unlock()

	return len(r.queued)
}

// Run starts the workers and blocks until ctx is done.
// Handlers receive ctx, never the context of the request that scheduled the task.
func (r *Runner) Run(ctx context.Context, handle func(ctx context.Context, taskID string)) error {
	group, ctx := errgroup.WithContext(ctx)

	for i := 0; i < r.workers; i++ {
		group.Go(func() error {
			for {
				select {
				case <-ctx.Done():
					return nil
				case taskID := <-r.queue:
					handle(ctx, taskID)
					r.done(taskID)
				}
			}
		})
	}

	return group.Wait()
}

func (r *Runner) done(taskID string) {
	r.lock.Lock()
	defer r.lock.Unlock()

	delete(r.queued, taskID)
}
