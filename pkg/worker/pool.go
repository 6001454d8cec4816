package worker

import (
	"errors"
	"fmt"
	"sync"

	"github.com/vidgate/vidgate/pkg/logger"
)

var poolLogger = logger.Get("WorkerPool")

// Job is a unit of blocking work submitted to a WorkerPool. The pool makes
// no attempt to interrupt a running job; cancellation (if any) must be
// handled inside the closure itself.
type Job func()

// WorkerPool runs blocking jobs on a fixed-size set of worker goroutines,
// keeping slow work off the goroutines that submitted it. Jobs submitted
// while all workers are busy queue on the shared job channel.
//
// The pool is an owned resource: construct it, Start it, hand it to the
// services that need it, and Close it on shutdown. It must not be shared
// via package-level state.
type WorkerPool struct {
	size    int
	jobs    chan Job
	wg      sync.WaitGroup
	started bool
	mu      sync.Mutex
}

// NewWorkerPool creates a pool which will run at most 'size' jobs
// concurrently once started. A non-positive size is coerced to 1.
func NewWorkerPool(size int) *WorkerPool {
	if size < 1 {
		size = 1
	}

	return &WorkerPool{
		size: size,
		jobs: make(chan Job, size*4),
	}
}

// Start spawns the worker goroutines. Each worker consumes from the shared
// job channel until Close is called.
func (pool *WorkerPool) Start() error {
	pool.mu.Lock()
	defer pool.mu.Unlock()

	if pool.started {
		return errors.New("cannot start an already started worker pool")
	}

	pool.started = true
	for i := 0; i < pool.size; i++ {
		label := fmt.Sprintf("worker-%d", i)

		pool.wg.Add(1)
		go func(label string) {
			defer pool.wg.Done()

			poolLogger.Debugf("Worker %s is ready\n", label)
			for job := range pool.jobs {
				job()
			}
			poolLogger.Debugf("Worker %s has stopped\n", label)
		}(label)
	}

	return nil
}

// Submit enqueues a job for execution by the next free worker. Submit blocks
// only when the job channel buffer is full (i.e. the queue is saturated).
// An error is returned if the pool has not been started, or has been closed.
func (pool *WorkerPool) Submit(job Job) error {
	pool.mu.Lock()
	defer pool.mu.Unlock()

	if !pool.started {
		return errors.New("cannot submit job to a worker pool that is not running")
	}

	pool.jobs <- job
	return nil
}

// Size returns the number of workers this pool runs when started.
func (pool *WorkerPool) Size() int {
	return pool.size
}

// Close stops the pool by closing the job channel and waiting for all
// workers to finish their current job. Jobs still queued when Close is
// called will be executed before the workers exit.
func (pool *WorkerPool) Close() {
	pool.mu.Lock()
	if !pool.started {
		pool.mu.Unlock()
		return
	}
	pool.started = false
	pool.mu.Unlock()

	close(pool.jobs)
	pool.wg.Wait()
}
