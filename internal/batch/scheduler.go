package batch

import (
	"context"
	"time"
)

// Scheduler calls fn every interval until its context ends.
// Reset restarts the countdown, so fn runs interval after the last cut.
type Scheduler struct {
	interval time.Duration
	fn       func()
	reset    chan struct{}
	done     chan struct{}
}

// NewScheduler creates a scheduler. Nothing runs until Run is called.
func NewScheduler(interval time.Duration, fn func()) *Scheduler {
	return &Scheduler{
		interval: interval,
		fn:       fn,
		reset:    make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
}

// Run blocks, firing fn on every tick, until ctx is canceled.
func (s *Scheduler) Run(ctx context.Context) {
	defer close(s.done)

	timer := time.NewTimer(s.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.reset:
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(s.interval)
		case <-timer.C:
			s.fn()
			timer.Reset(s.interval)
		}
	}
}

// Reset restarts the countdown. It never blocks.
func (s *Scheduler) Reset() {
	select {
	case s.reset <- struct{}{}:
	default:
	}
}

// Done is closed once Run has returned.
func (s *Scheduler) Done() <-chan struct{} {
	return s.done
}
