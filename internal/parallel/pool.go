// Package parallel provides a small worker pool for data-parallel image
// work: full-frame pipeline evaluation, export encoding, anything that
// stripes rows of a pixel buffer across cores.
package parallel

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// Pool is a fixed set of long-lived worker goroutines fed from one shared
// queue. Image workloads here are uniform row stripes, so a shared queue
// balances load without per-worker queues or stealing.
//
// Thread safety: Pool is safe for concurrent use.
type Pool struct {
	workers int
	queue   chan func()
	done    chan struct{}
	wg      sync.WaitGroup
	running atomic.Bool
}

// NewPool creates a pool with the given number of workers.
// If workers is 0 or negative, GOMAXPROCS is used.
// Workers start immediately and wait for work.
func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	p := &Pool{
		workers: workers,
		queue:   make(chan func(), workers*4),
		done:    make(chan struct{}),
	}
	p.running.Store(true)

	p.wg.Add(workers)
	for range workers {
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for {
		select {
		case <-p.done:
			// Drain remaining work before exiting.
			for {
				select {
				case work := <-p.queue:
					work()
				default:
					return
				}
			}
		case work := <-p.queue:
			work()
		}
	}
}

// ExecuteAll runs every item and waits for all of them to complete.
// If the pool is closed, the items run inline on the calling goroutine so
// results stay correct during teardown races.
func (p *Pool) ExecuteAll(work []func()) {
	if len(work) == 0 {
		return
	}
	if !p.running.Load() {
		for _, fn := range work {
			fn()
		}
		return
	}

	var wg sync.WaitGroup
	wg.Add(len(work))
	for _, fn := range work {
		fn := fn
		wrapped := func() {
			defer wg.Done()
			fn()
		}
		select {
		case p.queue <- wrapped:
		case <-p.done:
			// Pool is closing; run inline.
			wrapped()
		}
	}
	wg.Wait()
}

// ForRows splits [0, height) into contiguous stripes and runs fn(y0, y1) for
// each on the pool, returning when all stripes are done. The stripe count is
// a small multiple of the worker count so uneven rows still balance.
func (p *Pool) ForRows(height int, fn func(y0, y1 int)) {
	if height <= 0 {
		return
	}
	parts := p.workers * 4
	if parts > height {
		parts = height
	}

	work := make([]func(), 0, parts)
	chunk := height / parts
	extra := height % parts
	y := 0
	for i := 0; i < parts; i++ {
		h := chunk
		if i < extra {
			h++
		}
		y0, y1 := y, y+h
		y = y1
		work = append(work, func() { fn(y0, y1) })
	}
	p.ExecuteAll(work)
}

// Close gracefully shuts down the pool: stops accepting queued work, waits
// for in-flight items, then stops all workers. Safe to call multiple times.
func (p *Pool) Close() {
	if !p.running.CompareAndSwap(true, false) {
		return
	}
	close(p.done)
	p.wg.Wait()
}

// Workers returns the number of workers in the pool.
func (p *Pool) Workers() int {
	return p.workers
}

// IsRunning reports whether the pool is still accepting work.
func (p *Pool) IsRunning() bool {
	return p.running.Load()
}
