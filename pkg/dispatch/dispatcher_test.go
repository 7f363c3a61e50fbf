package dispatch

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestDispatcher_RespectsConcurrencyLimit(t *testing.T) {
	for _, limit := range []int{1, 3, 16} {
		d := New(limit, nil)

		var (
			current atomic.Int32
			peak    atomic.Int32
			wg      sync.WaitGroup
		)
		const tasks = 100
		wg.Add(tasks)
		for i := 0; i < tasks; i++ {
			d.Enqueue(func(ctx context.Context) {
				defer wg.Done()
				n := current.Add(1)
				for {
					p := peak.Load()
					if n <= p || peak.CompareAndSwap(p, n) {
						break
					}
				}
				time.Sleep(2 * time.Millisecond)
				current.Add(-1)
			})
		}
		wg.Wait()

		if got := peak.Load(); got > int32(limit) {
			t.Fatalf("limit %d: peak concurrency %d", limit, got)
		}
		if _, err := d.Close(context.Background()); err != nil {
			t.Fatalf("Close() error = %v", err)
		}
	}
}

func TestDispatcher_StartsInEnqueueOrder(t *testing.T) {
	d := New(1, nil)
	defer d.Close(context.Background())

	var (
		mu    sync.Mutex
		order []int
		wg    sync.WaitGroup
	)
	const tasks = 50
	wg.Add(tasks)
	for i := 0; i < tasks; i++ {
		i := i
		d.Enqueue(func(ctx context.Context) {
			defer wg.Done()
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
		})
	}
	wg.Wait()

	for i, v := range order {
		if v != i {
			t.Fatalf("task %d started at position %d", v, i)
		}
	}
}

func TestDispatcher_CloseDropsQueuedTasks(t *testing.T) {
	d := New(1, nil)

	release := make(chan struct{})
	started := make(chan struct{})
	d.Enqueue(func(ctx context.Context) {
		close(started)
		<-release
	})
	<-started

	var ran, droppedCalls atomic.Int32
	for i := 0; i < 4; i++ {
		d.Enqueue(func(ctx context.Context) { ran.Add(1) })
	}
	d.EnqueueWithDrop(func(ctx context.Context) { ran.Add(1) }, func() { droppedCalls.Add(1) })
	if got := d.Pending(); got != 5 {
		t.Fatalf("Pending() = %d, want 5", got)
	}
	if got := d.InFlight(); got != 1 {
		t.Fatalf("InFlight() = %d, want 1", got)
	}

	closed := make(chan int)
	go func() {
		dropped, _ := d.Close(context.Background())
		closed <- dropped
	}()

	// Close must wait for the running task.
	select {
	case <-closed:
		t.Fatal("Close returned before in-flight task finished")
	case <-time.After(50 * time.Millisecond):
	}
	close(release)

	if dropped := <-closed; dropped != 5 {
		t.Fatalf("dropped = %d, want 5", dropped)
	}
	if ran.Load() != 0 {
		t.Fatalf("%d queued tasks ran after close", ran.Load())
	}
	if droppedCalls.Load() != 1 {
		t.Fatalf("drop callback called %d times, want 1", droppedCalls.Load())
	}
	if d.Enqueue(func(ctx context.Context) {}) {
		t.Fatal("Enqueue accepted a task after Close")
	}
	if _, err := d.Close(context.Background()); !errors.Is(err, ErrClosed) {
		t.Fatalf("second Close() error = %v, want ErrClosed", err)
	}
}

func TestDispatcher_CloseTimeoutCancelsRunningTasks(t *testing.T) {
	d := New(2, nil)

	canceled := make(chan struct{})
	started := make(chan struct{})
	d.Enqueue(func(ctx context.Context) {
		close(started)
		<-ctx.Done()
		close(canceled)
	})
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := d.Close(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Close() error = %v, want deadline exceeded", err)
	}

	select {
	case <-canceled:
	case <-time.After(time.Second):
		t.Fatal("running task context was not canceled")
	}
}

func TestDispatcher_Idle(t *testing.T) {
	d := New(2, nil)
	defer d.Close(context.Background())

	if err := d.Idle(context.Background()); err != nil {
		t.Fatalf("Idle() on empty dispatcher = %v", err)
	}

	var done atomic.Int32
	for i := 0; i < 6; i++ {
		d.Enqueue(func(ctx context.Context) {
			time.Sleep(10 * time.Millisecond)
			done.Add(1)
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := d.Idle(ctx); err != nil {
		t.Fatalf("Idle() = %v", err)
	}
	if got := done.Load(); got != 6 {
		t.Fatalf("Idle returned with %d of 6 tasks done", got)
	}
}
