// Package parallel runs independent jobs, such as one file conversion each,
// on a bounded number of goroutines.
package parallel

import (
	"runtime"
	"sync"
	"sync/atomic"
)

type (
	// WorkerFunc queues a job. It may block while every worker is busy.
	WorkerFunc func(func())
	// WaitFunc blocks until queued jobs are done. With done set the pool
	// stops accepting jobs.
	WaitFunc func(done bool)
)

// Pool runs jobs handed to Do on a fixed set of workers.
type Pool struct {
	wg      sync.WaitGroup
	pending sync.WaitGroup
	jobs    chan func()
	workers int
	ran     atomic.Uint64
	closeFn func()
}

// Start launches numWorkers goroutines, GOMAXPROCS when below 1. A pool of one
// worker runs jobs on the calling goroutine.
func Start(numWorkers int) *Pool {
	if numWorkers < 1 {
		numWorkers = runtime.GOMAXPROCS(0)
	}

	pool := &Pool{
		workers: numWorkers,
		closeFn: func() {},
	}
	if numWorkers == 1 {
		return pool
	}

	pool.jobs = make(chan func(), numWorkers)
	for range numWorkers {
		pool.wg.Go(func() {
			for f := range pool.jobs {
				f()
				pool.ran.Add(1)
				pool.pending.Done()
			}
		})
	}
	pool.closeFn = sync.OnceFunc(func() { close(pool.jobs) })

	return pool
}

func (p *Pool) Workers() int {
	return p.workers
}

// Ran returns how many jobs have completed.
func (p *Pool) Ran() uint64 {
	return p.ran.Load()
}

func (p *Pool) Do(f func()) {
	if p.jobs == nil {
		f()
		p.ran.Add(1)
		return
	}
	p.pending.Add(1)
	p.jobs <- f
}

// Wait blocks until every job handed to Do has finished. With done set the
// pool is closed and its workers exit; otherwise it keeps accepting jobs.
func (p *Pool) Wait(done bool) {
	if !done {
		p.pending.Wait()
		return
	}
	p.closeFn()
	p.wg.Wait()
}

// Close stops the pool and waits for queued jobs.
func (p *Pool) Close() {
	p.Wait(true)
}
