// Package workerpool runs divide-and-conquer subqueries across a fixed
// set of worker goroutines, each owning its own solver Engine. Adapted
// from the teacher's internal/parallel.WorkerPool/StaticWorkerPool: the
// dynamic-scaling machinery is dropped (subquery counts are known and
// bounded up front, not an open stream of arbitrary tasks) in favor of
// the lock-free bounded MPMC queue and atomic termination flags spec.md
// §5 calls for, wired through golang.org/x/sync/errgroup instead of a
// hand-rolled sync.WaitGroup.
package workerpool

import (
	"context"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

// Job is one unit of work a Pool worker executes. It returns either a
// terminal verdict (done=true) or a set of follow-up jobs to push back
// onto the queue (e.g. a timed-out subquery repartitioned into smaller
// subqueries).
type Job[T any] interface {
	// Run executes the job. done=true signals the pool should begin
	// winding down (first Sat wins, per spec.md §4.8).
	Run(ctx context.Context) (result T, more []Job[T], done bool, err error)
}

// Result bundles a completed job's outcome: its value, or the error it
// failed with.
type Result[T any] struct {
	Value T
	Err   error
}

// Pool runs Jobs across NumWorkers goroutines, draining a bounded MPMC
// queue until either a job reports done, the queue empties with no
// outstanding work, or the context is canceled.
type Pool[T any] struct {
	queue         chan Job[T]
	numWorkers    int
	unsolvedCount int64
	shouldQuit    int32
}

// NewPool creates a pool with the given worker count and queue capacity.
func NewPool[T any](numWorkers, queueCapacity int) *Pool[T] {
	if numWorkers <= 0 {
		numWorkers = 1
	}
	if queueCapacity <= 0 {
		queueCapacity = numWorkers * 4
	}
	return &Pool[T]{
		queue:      make(chan Job[T], queueCapacity),
		numWorkers: numWorkers,
	}
}

// Push enqueues a job without blocking. Returns false if the queue is at
// capacity (spec.md §7's "queue push failure").
func (p *Pool[T]) Push(j Job[T]) bool {
	select {
	case p.queue <- j:
		atomic.AddInt64(&p.unsolvedCount, 1)
		return true
	default:
		return false
	}
}

// Quit raises the cooperative shouldQuit flag every worker polls.
func (p *Pool[T]) Quit() { atomic.StoreInt32(&p.shouldQuit, 1) }

func (p *Pool[T]) quitRequested() bool { return atomic.LoadInt32(&p.shouldQuit) != 0 }

// Run drains the queue across NumWorkers goroutines until a job
// completes with done=true (terminal verdict), the queue runs dry with no
// outstanding jobs, or ctx is canceled. It returns the first terminal
// result observed, or a zero Result and found=false if the queue drained
// without one.
func (p *Pool[T]) Run(ctx context.Context) (found bool, first Result[T]) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make(chan Result[T], p.numWorkers)
	g, gctx := errgroup.WithContext(ctx)

	for i := 0; i < p.numWorkers; i++ {
		g.Go(func() error {
			p.worker(gctx, results)
			return nil
		})
	}

	done := make(chan struct{})
	go func() {
		g.Wait()
		close(done)
	}()

	for {
		select {
		case r := <-results:
			found = true
			first = r
			p.Quit()
			cancel()
			<-done
			return found, first
		case <-done:
			return found, first
		case <-ctx.Done():
			<-done
			return found, first
		}
	}
}

func (p *Pool[T]) worker(ctx context.Context, results chan<- Result[T]) {
	for {
		if p.quitRequested() {
			return
		}
		select {
		case job, ok := <-p.queue:
			if !ok {
				return
			}
			p.runJob(ctx, job, results)
		default:
			if atomic.LoadInt64(&p.unsolvedCount) <= 0 {
				return
			}
			select {
			case <-ctx.Done():
				return
			case job, ok := <-p.queue:
				if !ok {
					return
				}
				p.runJob(ctx, job, results)
			case <-time.After(time.Millisecond):
			}
		}
	}
}

func (p *Pool[T]) runJob(ctx context.Context, job Job[T], results chan<- Result[T]) {
	value, more, done, err := job.Run(ctx)
	atomic.AddInt64(&p.unsolvedCount, -1)
	if err != nil {
		results <- Result[T]{Err: err}
		return
	}
	if done {
		results <- Result[T]{Value: value}
		return
	}
	for _, child := range more {
		if !p.Push(child) {
			results <- Result[T]{Err: ErrQueueFull}
			return
		}
	}
}

// UnsolvedCount reports the current number of jobs pushed but not yet
// completed.
func (p *Pool[T]) UnsolvedCount() int64 { return atomic.LoadInt64(&p.unsolvedCount) }
