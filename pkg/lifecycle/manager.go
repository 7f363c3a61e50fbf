package lifecycle

import (
	"context"
	"errors"
	"sync"

	"github.com/qoncrete/qoncrete-go/pkg/log"
)

// Common lifecycle errors.
var (
	ErrClosed            = errors.New("lifecycle: closed")
	ErrInvalidTransition = errors.New("lifecycle: invalid transition")
)

// Manager implements the Running -> Closing -> Closed state machine.
type Manager struct {
	mu      sync.RWMutex
	state   State
	wg      sync.WaitGroup
	logger  log.Logger
	emitter EventEmitter
}

// NewManager creates a manager in StateRunning. emitter may be nil.
func NewManager(logger log.Logger, emitter EventEmitter) *Manager {
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return &Manager{
		state:   StateRunning,
		logger:  logger,
		emitter: emitter,
	}
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Running returns true while the client accepts work.
func (m *Manager) Running() bool {
	return m.State() == StateRunning
}

// TransitionTo moves to newState. Only forward single steps are allowed;
// closing twice returns ErrClosed.
func (m *Manager) TransitionTo(newState State, reason string) error {
	m.mu.Lock()
	old := m.state
	if newState != old+1 || newState > StateClosed {
		m.mu.Unlock()
		if old != StateRunning {
			return ErrClosed
		}
		return ErrInvalidTransition
	}
	m.state = newState
	m.mu.Unlock()

	// Emit event outside of lock
	if m.emitter != nil {
		m.emitter.OnStateChange(old, newState, reason)
	}
	m.logger.Info("state transition",
		log.String("from", old.String()),
		log.String("to", newState.String()),
		log.String("reason", reason),
	)
	return nil
}

// AddWorker registers a background goroutine. It must be called before the
// goroutine starts and before Wait.
func (m *Manager) AddWorker() {
	m.wg.Add(1)
}

// WorkerDone marks a registered goroutine as finished.
func (m *Manager) WorkerDone() {
	m.wg.Done()
}

// Wait blocks until every worker is done or ctx ends.
func (m *Manager) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		m.logger.Warn("shutdown timeout, workers still running")
		return ctx.Err()
	}
}
