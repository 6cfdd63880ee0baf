package lifecycle

import (
	"github.com/nxp-qmc/qmc2g-core/internal/kernel"
	"github.com/nxp-qmc/qmc2g-core/internal/logpipeline"
)

// ShutdownRequester is notified of an impending shutdown so it can
// drain to flash and request a reset, satisfied by
// *logpipeline.Service.RequestShutdown.
type ShutdownRequester interface {
	RequestShutdown(reason logpipeline.ShutdownReason)
}

// ShutdownSignal sets the SystemStatus shutdown bits from an ISR
// context and hands off to the log service's shutdown-drain path,
// mirroring the power-loss ISR's two effects from spec §4.9: "sets
// SYSEVENT_SHUTDOWN_PowerLoss, signals the log task directly via a
// task notification."
type ShutdownSignal struct {
	events *kernel.EventGroup
	log    ShutdownRequester
}

// NewShutdownSignal builds a ShutdownSignal over the shared SystemStatus
// event group and the log service to hand the shutdown off to.
func NewShutdownSignal(events *kernel.EventGroup, log ShutdownRequester) *ShutdownSignal {
	return &ShutdownSignal{events: events, log: log}
}

// PowerLoss is the power-loss interrupt handler.
func (s *ShutdownSignal) PowerLoss() {
	if s.events != nil {
		s.events.SetBits(SysEventShutdownPowerLoss)
	}
	if s.log != nil {
		s.log.RequestShutdown(logpipeline.ShutdownPowerLoss)
	}
}

// WatchdogReset is the secure-watchdog expiry handler.
func (s *ShutdownSignal) WatchdogReset() {
	if s.events != nil {
		s.events.SetBits(SysEventShutdownWatchdogReset)
	}
	if s.log != nil {
		s.log.RequestShutdown(logpipeline.ShutdownWatchdogReset)
	}
}
