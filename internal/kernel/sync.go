package kernel

import (
	"context"
	"sync/atomic"

	"github.com/nxp-qmc/qmc2g-core/internal/qmcerr"
)

// Mutex is a context-aware mutual exclusion lock, standing in for
// FreeRTOS's xSemaphoreTake/Give used with a timeout on a binary
// semaphore.
type Mutex struct {
	ch chan struct{}
}

// NewMutex creates an unlocked Mutex.
func NewMutex() *Mutex {
	m := &Mutex{ch: make(chan struct{}, 1)}
	m.ch <- struct{}{}
	return m
}

// Lock blocks until the mutex is acquired or ctx is done.
func (m *Mutex) Lock(ctx context.Context) error {
	select {
	case <-m.ch:
		return nil
	case <-ctx.Done():
		return qmcerr.Timeout
	}
}

// TryLock attempts to acquire the mutex without blocking.
func (m *Mutex) TryLock() bool {
	select {
	case <-m.ch:
		return true
	default:
		return false
	}
}

// Unlock releases the mutex. Unlocking an already-unlocked Mutex panics,
// matching misuse of a FreeRTOS binary semaphore.
func (m *Mutex) Unlock() {
	select {
	case m.ch <- struct{}{}:
	default:
		panic("kernel: unlock of unlocked mutex")
	}
}

// Semaphore is a counting semaphore with a context-aware Acquire.
type Semaphore struct {
	ch chan struct{}
}

// NewSemaphore creates a counting semaphore with the given number of
// initial permits.
func NewSemaphore(permits int) *Semaphore {
	s := &Semaphore{ch: make(chan struct{}, permits)}
	for i := 0; i < permits; i++ {
		s.ch <- struct{}{}
	}
	return s
}

// Acquire blocks until a permit is available or ctx is done.
func (s *Semaphore) Acquire(ctx context.Context) error {
	select {
	case <-s.ch:
		return nil
	case <-ctx.Done():
		return qmcerr.Timeout
	}
}

// Release returns a permit to the semaphore.
func (s *Semaphore) Release() {
	select {
	case s.ch <- struct{}{}:
	default:
		panic("kernel: semaphore release exceeds capacity")
	}
}

// AtomicU16 is a lock-free 16-bit counter, for counters where a full
// mutex would be disproportionate.
type AtomicU16 struct {
	v atomic.Uint32
}

// Load returns the current value.
func (a *AtomicU16) Load() uint16 { return uint16(a.v.Load()) }

// Store sets the value.
func (a *AtomicU16) Store(v uint16) { a.v.Store(uint32(v)) }

// Add adds delta and returns the new value, wrapping on overflow the way a
// 16-bit hardware counter would.
func (a *AtomicU16) Add(delta uint16) uint16 {
	for {
		old := a.v.Load()
		next := uint32(uint16(old) + delta)
		if a.v.CompareAndSwap(old, next) {
			return uint16(next)
		}
	}
}
