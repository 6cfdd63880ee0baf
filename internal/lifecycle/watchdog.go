package lifecycle

import (
	"sync"
	"time"

	"github.com/nxp-qmc/qmc2g-core/internal/logpipeline"
)

// WatchdogSink receives the functional-watchdog kick-failure log entry,
// satisfied by a thin adapter over *logpipeline.Service.QueueEntry.
type WatchdogSink interface {
	SubmitKickFailed(slot int)
}

// WatchdogRegistry tracks one kick slot per best-effort task, matching
// spec §4.9: "each best-effort task owns a kick slot; the task calls
// rpc_kick(slot) at least once per activation or logs
// FunctionalWatchdogKickFailed." A background sweep (Run) checks every
// registered slot once per period and reports any slot that missed its
// window.
type WatchdogRegistry struct {
	mu     sync.Mutex
	period time.Duration
	kicked map[int]bool
	sink   WatchdogSink
}

// NewWatchdogRegistry creates a registry that expects every registered
// slot to be kicked at least once per period.
func NewWatchdogRegistry(period time.Duration, sink WatchdogSink) *WatchdogRegistry {
	return &WatchdogRegistry{
		period: period,
		kicked: make(map[int]bool),
		sink:   sink,
	}
}

// Register allocates slot for a new best-effort task. It returns
// ErrSlotInUse if slot is already held.
func (w *WatchdogRegistry) Register(slot int) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, exists := w.kicked[slot]; exists {
		return ErrSlotInUse
	}
	w.kicked[slot] = false
	return nil
}

// Kick marks slot as serviced for the current period.
func (w *WatchdogRegistry) Kick(slot int) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, exists := w.kicked[slot]; !exists {
		return ErrUnknownSlot
	}
	w.kicked[slot] = true
	return nil
}

// sweep reports and resets every slot not kicked since the last sweep.
func (w *WatchdogRegistry) sweep() {
	w.mu.Lock()
	missed := make([]int, 0)
	for slot, ok := range w.kicked {
		if !ok {
			missed = append(missed, slot)
		}
		w.kicked[slot] = false
	}
	w.mu.Unlock()

	for _, slot := range missed {
		if w.sink != nil {
			w.sink.SubmitKickFailed(slot)
		}
	}
}

// Run sweeps the registry every period until stop is closed.
func (w *WatchdogRegistry) Run(stop <-chan struct{}) {
	ticker := time.NewTicker(w.period)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			w.sweep()
		}
	}
}

// logWatchdogSink adapts a *logpipeline.Service into a WatchdogSink.
type logWatchdogSink struct {
	log *logpipeline.Service
}

// NewLogWatchdogSink returns a WatchdogSink that queues
// EventFunctionalWatchdogKickFailed entries to log.
func NewLogWatchdogSink(log *logpipeline.Service) WatchdogSink {
	return &logWatchdogSink{log: log}
}

func (l *logWatchdogSink) SubmitKickFailed(slot int) {
	_ = l.log.QueueEntry(logpipeline.Record{
		Data: logpipeline.DefaultData{
			Source:    logpipeline.SourceFunctionalWatchdog,
			Category:  logpipeline.CategoryFault,
			EventCode: logpipeline.EventFunctionalWatchdogKickFailed,
			User:      0,
		},
	}, false)
}
