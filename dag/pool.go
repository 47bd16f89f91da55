package dag

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/fsdfsfssdf/gryflux/errors"
	"github.com/fsdfsfssdf/gryflux/logger"
)

// Job is a unit of work submitted to a WorkerPool.
type Job func() error

// Future is returned by Submit and resolves once the job has run.
type Future struct {
	done chan struct{}
	err  error
}

// Wait blocks until the job completes and returns its error, if any.
func (f *Future) Wait() error {
	<-f.done
	return f.err
}

type job struct {
	fn     Job
	future *Future
}

// WorkerPool is a fixed-size pool of goroutines draining a FIFO job
// queue. A worker that panics while running a job recovers, records the
// panic as the job's error, and keeps serving subsequent jobs.
type WorkerPool struct {
	jobs    chan job
	stop    chan struct{}
	wg      sync.WaitGroup
	stopped atomic.Bool
	name    string
	log     *logger.Logger
}

// NewWorkerPool starts n worker goroutines. n<=0 resolves to
// runtime.NumCPU(), floored at 1.
func NewWorkerPool(n int, name string, log *logger.Logger) *WorkerPool {
	if n <= 0 {
		n = runtime.NumCPU()
	}
	if n < 1 {
		n = 1
	}
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	p := &WorkerPool{
		jobs: make(chan job, n*4),
		stop: make(chan struct{}),
		name: name,
		log:  log.WithComponent("dag.pool"),
	}
	p.wg.Add(n)
	for i := 0; i < n; i++ {
		go p.worker(i)
	}
	p.log.Debug("worker pool started", map[string]interface{}{"pool": name, "workers": n})
	return p
}

func (p *WorkerPool) worker(id int) {
	defer p.wg.Done()
	for {
		select {
		case j, ok := <-p.jobs:
			if !ok {
				return
			}
			p.run(id, j)
		case <-p.stop:
			return
		}
	}
}

func (p *WorkerPool) run(id int, j job) {
	defer func() {
		if r := recover(); r != nil {
			j.future.err = fmt.Errorf("worker %d: panic: %v", id, r)
		}
		close(j.future.done)
	}()
	j.future.err = j.fn()
}

// Submit enqueues fn for execution and returns a Future for its result.
// It returns ErrPoolStopped if the pool has already been shut down.
func (p *WorkerPool) Submit(fn Job) (*Future, error) {
	if p.stopped.Load() {
		return nil, errors.PoolStopped(p.name)
	}
	future := &Future{done: make(chan struct{})}
	select {
	case p.jobs <- job{fn: fn, future: future}:
		return future, nil
	case <-p.stop:
		return nil, errors.PoolStopped(p.name)
	}
}

// Shutdown stops accepting new work and waits for in-flight jobs to
// finish. Jobs still sitting in the queue are discarded. Idempotent.
func (p *WorkerPool) Shutdown() {
	if !p.stopped.CompareAndSwap(false, true) {
		return
	}
	close(p.stop)
	p.wg.Wait()
	p.log.Debug("worker pool stopped", map[string]interface{}{"pool": p.name})
}
