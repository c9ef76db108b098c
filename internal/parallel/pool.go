// Package parallel runs independent raster work (layer warps, row bands)
// across a fixed set of goroutines.
package parallel

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// WorkerPool is a pool of goroutines for parallel raster work.
//
// The pool distributes work items across multiple workers, each with their own
// queue. Workers can steal work from other workers when their own queue is empty.
// This balances load when some items (large layers) are slower than others.
//
// Work submitted to the pool must not itself wait on the same pool.
//
// Thread safety: WorkerPool is safe for concurrent use.
type WorkerPool struct {
	// workers is the number of worker goroutines.
	workers int

	// workQueues holds per-worker work queues.
	workQueues []chan func()

	// done signals workers to stop.
	done chan struct{}

	// wg waits for all workers to finish.
	wg sync.WaitGroup

	// running indicates whether the pool is accepting work.
	running atomic.Bool
}

// NewWorkerPool creates a new worker pool with the specified number of workers.
// If workers is 0 or negative, GOMAXPROCS is used.
// The pool starts immediately and workers begin waiting for work.
func NewWorkerPool(workers int) *WorkerPool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	queueSize := max(workers*4, 8)

	p := &WorkerPool{
		workers:    workers,
		workQueues: make([]chan func(), workers),
		done:       make(chan struct{}),
	}
	for i := range workers {
		p.workQueues[i] = make(chan func(), queueSize)
	}

	p.running.Store(true)

	p.wg.Add(workers)
	for i := range workers {
		go p.worker(i)
	}

	return p
}

// worker is the main loop for each worker goroutine.
func (p *WorkerPool) worker(id int) {
	defer p.wg.Done()

	myQueue := p.workQueues[id]

	for {
		select {
		case <-p.done:
			p.drainQueue(myQueue)
			return

		case work := <-myQueue:
			work()

		default:
			if stolen := p.steal(id); stolen != nil {
				stolen()
				continue
			}
			// No work available anywhere, block on own queue
			select {
			case <-p.done:
				p.drainQueue(myQueue)
				return
			case work := <-myQueue:
				work()
			}
		}
	}
}

// drainQueue executes all remaining work in a queue.
func (p *WorkerPool) drainQueue(queue chan func()) {
	for {
		select {
		case work := <-queue:
			work()
		default:
			return
		}
	}
}

// steal attempts to take work from another worker's queue.
// Returns nil if no work is available.
func (p *WorkerPool) steal(myID int) func() {
	for i := range p.workers {
		if i == myID {
			continue
		}
		select {
		case work := <-p.workQueues[i]:
			return work
		default:
		}
	}
	return nil
}

// ExecuteAll distributes work across workers and waits for all to complete.
// If the pool is closed, the work runs on the calling goroutine.
func (p *WorkerPool) ExecuteAll(work []func()) {
	if len(work) == 0 {
		return
	}
	if !p.running.Load() {
		for _, fn := range work {
			fn()
		}
		return
	}

	var completionWG sync.WaitGroup
	completionWG.Add(len(work))

	for i, fn := range work {
		workFn := fn
		wrapped := func() {
			defer completionWG.Done()
			workFn()
		}

		select {
		case p.workQueues[i%p.workers] <- wrapped:
		case <-p.done:
			// Pool is closing; run the item here so Wait returns.
			wrapped()
		}
	}

	completionWG.Wait()
}

// ForEach calls fn(i) for every i in [0, n) on the pool and waits.
func (p *WorkerPool) ForEach(n int, fn func(i int)) {
	work := make([]func(), n)
	for i := range n {
		work[i] = func() { fn(i) }
	}
	p.ExecuteAll(work)
}

// Bands splits [0, rows) into at most Workers() contiguous bands and calls
// fn(start, end) for each band on the pool, then waits.
func (p *WorkerPool) Bands(rows int, fn func(start, end int)) {
	if rows <= 0 {
		return
	}
	bands := min(p.workers, rows)
	size := (rows + bands - 1) / bands

	work := make([]func(), 0, bands)
	for start := 0; start < rows; start += size {
		end := min(start+size, rows)
		work = append(work, func() { fn(start, end) })
	}
	p.ExecuteAll(work)
}

// Close gracefully shuts down the pool.
// It stops accepting new work, waits for all queued work to complete,
// and then stops all workers.
// Close is safe to call multiple times.
func (p *WorkerPool) Close() {
	if !p.running.CompareAndSwap(true, false) {
		return
	}
	close(p.done)
	p.wg.Wait()
}

// Workers returns the number of workers in the pool.
func (p *WorkerPool) Workers() int {
	return p.workers
}

// IsRunning returns true if the pool is still accepting work.
func (p *WorkerPool) IsRunning() bool {
	return p.running.Load()
}
