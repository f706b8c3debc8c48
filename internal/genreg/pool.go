package genreg

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"golang.org/x/time/rate"
)

// Pool is the dedicated CPU-bound worker pool that runs Generate calls off
// the connection I/O goroutines. A burst of generation jobs queued on the
// pool cannot stall a reader/writer task or the dispatcher.
//
// The pool is re-entrant: Submit may be called from inside a task running
// on the pool itself (a generator fanning out sub-tasks), since workers
// only block while pulling from the task channel, never while holding it.
type Pool struct {
	mu      sync.RWMutex
	closed  bool
	tasks   chan func()
	wg      sync.WaitGroup
	limiter *rate.Limiter
}

// NewPool starts a pool of the given worker count. A count of 0 means
// "auto": one worker per GOMAXPROCS, matching the source's "0 meaning
// auto" pool initialisation.
func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	p := &Pool{tasks: make(chan func(), workers*4)}
	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.runWorker()
	}
	return p
}

// WithCoarsening attaches a rate limiter governing how many jobs Submit
// admits per tick — the "coarsening" tuning knob from the CLI surface. It
// has no behavioral contract beyond pacing; a nil limiter (the default)
// disables throttling.
func (p *Pool) WithCoarsening(limiter *rate.Limiter) *Pool {
	p.limiter = limiter
	return p
}

func (p *Pool) runWorker() {
	defer p.wg.Done()
	for fn := range p.tasks {
		fn()
	}
}

// Submit queues work to run on the pool. work's return value (including a
// recovered panic, translated to an error) is delivered to onDone, which
// runs on the worker goroutine — callers that need to cross back onto the
// I/O runtime should fire a dispatcher event from within onDone rather
// than blocking it.
func (p *Pool) Submit(ctx context.Context, work func() error, onDone func(error)) {
	if p.limiter != nil {
		_ = p.limiter.Wait(ctx)
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		// Shutdown raced the dispatch; the result would be dropped anyway.
		return
	}
	p.tasks <- func() {
		onDone(runIsolated(work))
	}
}

// QueueDepth reports tasks queued but not yet picked up by a worker.
func (p *Pool) QueueDepth() int { return len(p.tasks) }

// QueueCapacity reports the task queue's bound.
func (p *Pool) QueueCapacity() int { return cap(p.tasks) }

// runIsolated invokes work, converting a panic into an error so a bug in a
// single generator cannot take down the worker goroutine running it.
func runIsolated(work func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("genreg: generator panicked: %v", r)
		}
	}()
	return work()
}

// Close stops accepting new work and waits for queued tasks to finish. It
// is idempotent; Submit calls arriving after Close drop their work.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.tasks)
	p.mu.Unlock()
	p.wg.Wait()
}
