// Package batch accumulates submitted records and decides when batches are
// cut from them.
package batch

import (
	"sync"

	"github.com/qoncrete/qoncrete-go/internal/domain"
)

// Accumulator holds records waiting to be dispatched, in submission order.
type Accumulator struct {
	mu         sync.Mutex
	pending    []domain.Record
	batchSize  int
	maxPending int
}

// NewAccumulator creates an accumulator cutting batches of at most batchSize
// records. maxPending bounds the number of pending records; 0 means unbounded.
func NewAccumulator(batchSize, maxPending int) *Accumulator {
	return &Accumulator{
		batchSize:  batchSize,
		maxPending: maxPending,
	}
}

// Add appends records and returns how many were rejected because the
// pending limit was reached. Records that fit are kept, in order.
func (a *Accumulator) Add(records ...domain.Record) (rejected int) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.maxPending > 0 {
		room := a.maxPending - len(a.pending)
		if room < 0 {
			room = 0
		}
		if len(records) > room {
			rejected = len(records) - room
			records = records[:room]
		}
	}
	a.pending = append(a.pending, records...)
	return rejected
}

// Len returns the number of pending records.
func (a *Accumulator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.pending)
}

// Cut removes up to batchSize records from the front.
// The returned batch is empty when nothing is pending.
func (a *Accumulator) Cut() domain.Batch {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cutLocked()
}

// CutFull removes every complete batch, leaving fewer than batchSize
// records pending.
func (a *Accumulator) CutFull() []domain.Batch {
	a.mu.Lock()
	defer a.mu.Unlock()

	var out []domain.Batch
	for len(a.pending) >= a.batchSize {
		out = append(out, a.cutLocked())
	}
	return out
}

// CutAll removes everything pending as consecutive batches.
func (a *Accumulator) CutAll() []domain.Batch {
	a.mu.Lock()
	defer a.mu.Unlock()

	var out []domain.Batch
	for len(a.pending) > 0 {
		out = append(out, a.cutLocked())
	}
	return out
}

// Drain discards everything pending and returns how many records were dropped.
func (a *Accumulator) Drain() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	n := len(a.pending)
	a.pending = nil
	return n
}

func (a *Accumulator) cutLocked() domain.Batch {
	n := a.batchSize
	if n > len(a.pending) {
		n = len(a.pending)
	}
	if n == 0 {
		return domain.Batch{}
	}
	// Copy so the batch never aliases the backing array still used by pending.
	records := make([]domain.Record, n)
	copy(records, a.pending[:n])
	a.pending = a.pending[n:]
	if len(a.pending) == 0 {
		a.pending = nil
	}
	return domain.NewBatch(records)
}
