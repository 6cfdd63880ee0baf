package kernel

import (
	"sync"
	"time"
)

// Timer wraps a one-shot or periodic software timer, grounded on the
// error-log suppression timer the fault-handling task starts to rate-limit
// repeated log submissions for a fault that keeps recurring within the
// same window.
type Timer struct {
	mu       sync.Mutex
	period   time.Duration
	periodic bool
	callback func()
	t        *time.Timer
	stopped  bool
}

// NewTimer creates a timer that invokes callback after period elapses. If
// periodic is true the timer automatically rearms itself after firing.
// The timer does not start until Start is called.
func NewTimer(period time.Duration, periodic bool, callback func()) *Timer {
	return &Timer{period: period, periodic: periodic, callback: callback}
}

// Start (re)arms the timer. Starting an already-running timer resets it,
// matching xTimerStart/xTimerReset semantics.
func (tm *Timer) Start() {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	tm.stopped = false
	if tm.t != nil {
		tm.t.Stop()
	}
	tm.t = time.AfterFunc(tm.period, tm.fire)
}

func (tm *Timer) fire() {
	tm.mu.Lock()
	if tm.stopped {
		tm.mu.Unlock()
		return
	}
	cb := tm.callback
	periodic := tm.periodic
	period := tm.period
	tm.mu.Unlock()

	if cb != nil {
		cb()
	}

	if periodic {
		tm.mu.Lock()
		if !tm.stopped {
			tm.t = time.AfterFunc(period, tm.fire)
		}
		tm.mu.Unlock()
	}
}

// Stop disarms the timer. It is safe to call Stop multiple times.
func (tm *Timer) Stop() {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	tm.stopped = true
	if tm.t != nil {
		tm.t.Stop()
	}
}

// Reset rearms the timer with its configured period, starting it if it was
// stopped.
func (tm *Timer) Reset() {
	tm.Start()
}
