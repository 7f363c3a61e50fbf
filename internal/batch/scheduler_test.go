package batch

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestScheduler_FiresRepeatedly(t *testing.T) {
	var fired atomic.Int32
	s := NewScheduler(20*time.Millisecond, func() { fired.Add(1) })

	ctx, cancel := context.WithCancel(context.Background())
	go s.Run(ctx)

	time.Sleep(150 * time.Millisecond)
	cancel()
	<-s.Done()

	if n := fired.Load(); n < 3 {
		t.Fatalf("fired %d times, want at least 3", n)
	}
}

func TestScheduler_ResetPostponesTick(t *testing.T) {
	var fired atomic.Int32
	s := NewScheduler(100*time.Millisecond, func() { fired.Add(1) })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	// Keep resetting for longer than one interval.
	deadline := time.Now().Add(250 * time.Millisecond)
	for time.Now().Before(deadline) {
		s.Reset()
		time.Sleep(20 * time.Millisecond)
	}
	if n := fired.Load(); n != 0 {
		t.Fatalf("fired %d times while being reset, want 0", n)
	}

	time.Sleep(200 * time.Millisecond)
	if fired.Load() == 0 {
		t.Fatal("scheduler never fired after resets stopped")
	}
}

func TestScheduler_StopsOnCancel(t *testing.T) {
	s := NewScheduler(time.Hour, func() {})
	ctx, cancel := context.WithCancel(context.Background())
	go s.Run(ctx)
	cancel()

	select {
	case <-s.Done():
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
}
