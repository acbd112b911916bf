// Package pool provides a bounded worker pool for concurrent task execution.
package pool

import (
	"context"
	"sync"
	"sync/atomic"
)

// DefaultWorkers bounds the pool when no size is specified.
const DefaultWorkers = 5

// WorkerPool manages a fixed set of workers consuming a shared task queue.
// Tasks run in submission order per worker but complete in no guaranteed
// order across workers.
type WorkerPool struct {
	workers    int
	taskQueue  chan func()
	wg         sync.WaitGroup
	ctx        context.Context
	cancel     context.CancelFunc
	running    atomic.Bool
	tasksTotal atomic.Uint64
	tasksDone  atomic.Uint64
}

// NewWorkerPool creates a new worker pool with the specified number of workers.
// If workers is 0 or less, it defaults to DefaultWorkers.
func NewWorkerPool(workers int) *WorkerPool {
	if workers <= 0 {
		workers = DefaultWorkers
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &WorkerPool{
		workers:   workers,
		taskQueue: make(chan func(), workers*16),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Start starts the worker pool.
func (p *WorkerPool) Start() {
	if p.running.Swap(true) {
		return // Already running
	}

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

func (p *WorkerPool) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case task := <-p.taskQueue:
			task()
			p.tasksDone.Add(1)
		}
	}
}

// Submit submits a task to the worker pool, blocking while the queue is full.
// Returns false if the pool is not running.
func (p *WorkerPool) Submit(task func()) bool {
	if !p.running.Load() {
		return false
	}

	select {
	case p.taskQueue <- task:
		p.tasksTotal.Add(1)
		return true
	case <-p.ctx.Done():
		return false
	}
}

// Stop stops the worker pool and waits for all workers to finish. The task
// queue is never closed; workers and in-flight Submit calls unblock through
// context cancellation, so a Submit racing Stop cannot send on a closed
// channel.
func (p *WorkerPool) Stop() {
	if !p.running.Swap(false) {
		return // Not running
	}

	p.cancel()
	p.wg.Wait()
}

// Workers returns the pool size.
func (p *WorkerPool) Workers() int {
	return p.workers
}

// Stats returns pool counters.
func (p *WorkerPool) Stats() (total, done uint64) {
	return p.tasksTotal.Load(), p.tasksDone.Load()
}
