package dispatch

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"

	"github.com/qoncrete/qoncrete-go/pkg/log"
)

// DefaultConcurrency is the parallelism used when none is configured.
const DefaultConcurrency = 200

// ErrClosed is returned by Close when the dispatcher was already closed.
var ErrClosed = errors.New("dispatch: closed")

// Task is one unit of work. Its context is canceled only when Close gives up
// waiting for running tasks.
type Task func(ctx context.Context)

type entry struct {
	run  Task
	drop func()
}

// Dispatcher is a concurrency-limited FIFO work queue.
type Dispatcher struct {
	sem    *semaphore.Weighted
	logger log.Logger

	mu     sync.Mutex
	queue  []entry
	closed bool
	wake   chan struct{}

	// busy counts queued plus running tasks; idle is closed whenever it is 0.
	busy int
	idle chan struct{}

	ctx      context.Context
	cancel   context.CancelFunc
	pumpDone chan struct{}

	taskCtx    context.Context
	taskCancel context.CancelFunc
	running    sync.WaitGroup
	inFlight   atomic.Int64
}

// New creates a dispatcher running at most concurrency tasks at once and
// starts its admission loop.
func New(concurrency int, logger log.Logger) *Dispatcher {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	ctx, cancel := context.WithCancel(context.Background())
	taskCtx, taskCancel := context.WithCancel(context.Background())
	idle := make(chan struct{})
	close(idle)
	d := &Dispatcher{
		idle:       idle,
		sem:        semaphore.NewWeighted(int64(concurrency)),
		logger:     logger,
		wake:       make(chan struct{}, 1),
		ctx:        ctx,
		cancel:     cancel,
		pumpDone:   make(chan struct{}),
		taskCtx:    taskCtx,
		taskCancel: taskCancel,
	}
	go d.pump()
	return d
}

// Enqueue appends a task to the queue. It never blocks.
// Returns false if the dispatcher is closed and the task was not accepted.
func (d *Dispatcher) Enqueue(t Task) bool {
	return d.EnqueueWithDrop(t, nil)
}

// EnqueueWithDrop is Enqueue with a function called instead of t if Close
// drops t before it starts.
func (d *Dispatcher) EnqueueWithDrop(t Task, drop func()) bool {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return false
	}
	d.queue = append(d.queue, entry{run: t, drop: drop})
	d.busy++
	if d.busy == 1 {
		d.idle = make(chan struct{})
	}
	d.mu.Unlock()

	select {
	case d.wake <- struct{}{}:
	default:
	}
	return true
}

// Pending returns the number of tasks waiting for a slot.
func (d *Dispatcher) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.queue)
}

// InFlight returns the number of tasks currently running.
func (d *Dispatcher) InFlight() int {
	return int(d.inFlight.Load())
}

// Idle blocks until no task is queued or running, or ctx ends.
func (d *Dispatcher) Idle(ctx context.Context) error {
	d.mu.Lock()
	idle := d.idle
	d.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops admitting tasks, drops every queued task that has not
// started, and waits for running tasks until ctx is done. It returns the
// number of dropped tasks and ctx.Err() if running tasks did not finish.
func (d *Dispatcher) Close(ctx context.Context) (int, error) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return 0, ErrClosed
	}
	d.closed = true
	queued := d.queue
	dropped := len(queued)
	d.queue = nil
	d.release(dropped)
	d.mu.Unlock()

	// Stop the pump first so nothing new is started after the drop.
	d.cancel()
	<-d.pumpDone

	if dropped > 0 {
		d.logger.Warn("dropped queued deliveries on close", log.Int("tasks", dropped))
	}
	for _, e := range queued {
		if e.drop != nil {
			e.drop()
		}
	}

	done := make(chan struct{})
	go func() {
		d.running.Wait()
		close(done)
	}()

	defer d.taskCancel()
	select {
	case <-done:
		return dropped, nil
	case <-ctx.Done():
		d.logger.Warn("abandoning in-flight deliveries at close",
			log.Int("tasks", d.InFlight()))
		return dropped, ctx.Err()
	}
}

// pump admits tasks one at a time. A single goroutine acquiring the
// semaphore keeps start order equal to enqueue order.
func (d *Dispatcher) pump() {
	defer close(d.pumpDone)

	for {
		if err := d.sem.Acquire(d.ctx, 1); err != nil {
			return
		}

		e, ok := d.next()
		if !ok {
			d.sem.Release(1)
			return
		}

		d.running.Add(1)
		d.inFlight.Add(1)
		go func() {
			defer func() {
				d.inFlight.Add(-1)
				d.sem.Release(1)
				d.mu.Lock()
				d.release(1)
				d.mu.Unlock()
				d.running.Done()
			}()
			e.run(d.taskCtx)
		}()
	}
}

// release marks n tasks as no longer busy. d.mu must be held.
func (d *Dispatcher) release(n int) {
	if n == 0 || d.busy == 0 {
		return
	}
	d.busy -= n
	if d.busy == 0 {
		close(d.idle)
	}
}

// next blocks until a task is queued or the dispatcher is closed.
func (d *Dispatcher) next() (entry, bool) {
	for {
		d.mu.Lock()
		if len(d.queue) > 0 {
			e := d.queue[0]
			d.queue[0] = entry{}
			d.queue = d.queue[1:]
			d.mu.Unlock()
			return e, true
		}
		d.mu.Unlock()

		select {
		case <-d.wake:
		case <-d.ctx.Done():
			return entry{}, false
		}
	}
}
