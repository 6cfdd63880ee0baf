package fault

import (
	"context"
	"sync"
	"time"

	"github.com/nxp-qmc/qmc2g-core/internal/kernel"
	"github.com/nxp-qmc/qmc2g-core/internal/logger"
	"github.com/nxp-qmc/qmc2g-core/internal/motorbus"
)

// System status event-group bits affected by fault dispatch, ported from
// api_qmc_common.h's QMC_SYSEVENT_FAULT_* definitions.
const (
	SysEventFaultMotor1 uint32 = 1 << 5
	SysEventFaultMotor2 uint32 = 1 << 6
	SysEventFaultMotor3 uint32 = 1 << 7
	SysEventFaultMotor4 uint32 = 1 << 8
	SysEventFaultSystem uint32 = 1 << 9
)

var motorFaultEventBit = [motorbus.MaxMotors]uint32{
	SysEventFaultMotor1, SysEventFaultMotor2, SysEventFaultMotor3, SysEventFaultMotor4,
}

// motorQueueTimeoutAttempts is the number of 10ms retries StopMotorsPerConfiguration
// and StopAllMotors make before giving up on a motor queue and escalating
// to an error lifecycle transition.
const motorQueueTimeoutAttempts = 20

// errorLogPeriod bounds how often a recurring fault-handling error (e.g. a
// communication error with a peripheral) is logged, preventing log
// flooding for a fault that keeps recurring.
const errorLogPeriod = 300 * time.Second

// LogSink receives one fault-log submission per newly observed or
// newly cleared fault, exactly mirroring SubmitLogs's one-call-per-fault
// behavior. motorID is only meaningful when withID is true.
type LogSink interface {
	SubmitFault(src Source, motorID uint8, withID bool)
}

// LifecycleSink is notified when a fault forces the device into the error
// lifecycle state.
type LifecycleSink interface {
	SetErrorState()
}

// StopPolicy reports whether a fault on faultMotor should also
// immediately stop stopMotor, beyond the faulting motor itself. It models
// the configuration-store-backed "immediate stop configuration" matrix.
type StopPolicy func(faultMotor, stopMotor motorbus.MotorID) bool

// Handler dispatches fault reports across the four planes described by
// the original fault-handling task: motor-control faults, board-service
// faults, system-wide faults, and fault-handling infrastructure errors.
type Handler struct {
	bus     *motorbus.Bus
	events  *kernel.EventGroup
	log     LogSink
	lc      LifecycleSink
	policy  StopPolicy

	buffer *ringBuffer
	queue  *kernel.Queue[Source]

	mu                     sync.Mutex
	mcNoFault              [motorbus.MaxMotors]bool
	bsNoFault              [motorbus.MaxMotors]bool
	systemNoFault          bool
	systemFaultStatus      Source
	handlingErrorFlags     Source
	alreadyReportedAPIErrs Source
	alreadyReportedAFEErr  [motorbus.MaxMotors]bool

	errorLogTimer *kernel.Timer
}

// New creates a Handler. queueLen bounds the fault queue used as the
// buffer's overflow path, mirroring g_FaultQueue.
func New(bus *motorbus.Bus, events *kernel.EventGroup, log LogSink, lc LifecycleSink, policy StopPolicy, queueLen int) *Handler {
	h := &Handler{
		bus:    bus,
		events: events,
		log:    log,
		lc:     lc,
		policy: policy,
		buffer: &ringBuffer{},
		queue:  kernel.NewQueue[Source](queueLen),
	}
	for i := range h.mcNoFault {
		h.mcNoFault[i] = true
		h.bsNoFault[i] = true
	}
	h.systemNoFault = true
	h.errorLogTimer = kernel.NewTimer(errorLogPeriod, false, h.onErrorLogTimerExpired)
	return h
}

// Raise posts src without blocking, from any context including one that
// must not block (an ISR-equivalent callback). It returns false if the
// buffer is full, in which case the sticky buffer-overflow flag is set.
func (h *Handler) Raise(src Source) bool {
	if ok := h.buffer.Push(src); ok {
		return true
	}
	h.mu.Lock()
	h.handlingErrorFlags |= FaultBufferOverflow
	h.mu.Unlock()
	return false
}

// RaiseBlocking posts src through the fault queue, used by callers that
// may block (the board service task, REST-triggered diagnostics). If the
// queue is full it sets the sticky queue-overflow flag instead of
// blocking indefinitely.
func (h *Handler) RaiseBlocking(src Source) {
	if err := h.queue.TrySend(src); err != nil {
		h.mu.Lock()
		h.handlingErrorFlags |= FaultQueueOverflow
		h.mu.Unlock()
	}
}

// SystemFaultStatus returns the current system-wide fault bitmask, the
// value the MQTT telemetry publisher reports as system/system_fault_status.
func (h *Handler) SystemFaultStatus() Source {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.systemFaultStatus
}

func (h *Handler) onErrorLogTimerExpired() {
	h.mu.Lock()
	h.alreadyReportedAPIErrs = 0
	for i := range h.alreadyReportedAFEErr {
		h.alreadyReportedAFEErr[i] = false
	}
	h.mu.Unlock()
}

// Run processes fault reports until ctx is done: draining the ring buffer
// first, falling back to the fault queue, and blocking on the queue when
// both are empty.
func (h *Handler) Run(ctx context.Context) {
	var src Source
	var haveSrc bool

	for {
		if !haveSrc {
			if s, ok := h.buffer.Pop(); ok {
				src = s
			} else {
				h.mu.Lock()
				h.handlingErrorFlags &^= FaultBufferOverflow
				h.mu.Unlock()

				s, err := h.queue.Receive(ctx)
				if err != nil {
					return
				}
				src = s
			}
		}
		haveSrc = false

		h.dispatch(ctx, src)

		if !h.buffer.Empty() {
			continue
		}
		h.mu.Lock()
		h.handlingErrorFlags &^= FaultBufferOverflow
		h.mu.Unlock()

		if s, err := h.queue.TryReceive(); err == nil {
			src = s
			haveSrc = true
			continue
		}

		h.mu.Lock()
		h.handlingErrorFlags &^= FaultQueueOverflow
		if h.systemNoFault && h.systemFaultStatus&OverflowErrorsMask != 0 {
			h.systemFaultStatus = NoFault
			h.mu.Unlock()
			h.events.ClearBits(SysEventFaultSystem)
			h.log.SubmitFault(NoFault, 0, false)
		} else {
			h.mu.Unlock()
		}
	}
}

func (h *Handler) dispatch(ctx context.Context, src Source) {
	motorID := motorbus.MotorID(src.MotorID())
	without := src.WithoutMotorID()

	if without == NoFaultMC || src&MCPSBFaultsMask != 0 {
		h.dispatchMCPlane(ctx, without, motorID)
		h.log.SubmitFault(src&allMCPSBFaultsBitsMask, uint8(motorID), true)
	}

	if without&NoFaultBS != 0 || src&BSPSBFaultsMask != 0 {
		h.dispatchBSPlane(ctx, without, motorID)
		h.log.SubmitFault(src&allBSPSBFaultsBitsMask, uint8(motorID), true)
	}

	if without&NoFault != 0 || src&SystemFaultsMask != 0 {
		h.dispatchSystemPlane(ctx, without, src)
		h.log.SubmitFault(src&allSystemFaultBitsMask, 0, false)
	}

	if src&FaultHandlingErrorsMask != 0 {
		h.dispatchCommunicationPlane(src, motorID)
	}

	h.mu.Lock()
	overflow := h.handlingErrorFlags & OverflowErrorsMask
	h.mu.Unlock()
	if overflow != 0 {
		h.dispatchOverflow(overflow)
	}

	if src&InvalidFaultSource != 0 {
		h.log.SubmitFault(InvalidFaultSource, 0, false)
	}
}

func (h *Handler) dispatchMCPlane(ctx context.Context, without Source, motorID motorbus.MotorID) {
	h.mu.Lock()
	if without == NoFaultMC {
		if h.bsNoFault[motorID] {
			h.events.ClearBits(motorFaultEventBit[motorID])
		}
		h.mcNoFault[motorID] = true
		h.mu.Unlock()
		return
	}
	h.mu.Unlock()

	h.stopMotorsPerConfiguration(ctx, motorID)

	h.mu.Lock()
	h.mcNoFault[motorID] = false
	h.mu.Unlock()
	h.events.SetBits(motorFaultEventBit[motorID])
	h.lc.SetErrorState()
}

func (h *Handler) dispatchBSPlane(ctx context.Context, without Source, motorID motorbus.MotorID) {
	h.mu.Lock()
	if without&NoFaultBS != 0 {
		if h.mcNoFault[motorID] {
			h.events.ClearBits(motorFaultEventBit[motorID])
		}
		h.bsNoFault[motorID] = true
		h.mu.Unlock()
		return
	}
	h.mu.Unlock()

	h.stopMotorsPerConfiguration(ctx, motorID)

	h.mu.Lock()
	h.bsNoFault[motorID] = false
	h.mu.Unlock()
	h.events.SetBits(motorFaultEventBit[motorID])
	h.lc.SetErrorState()
}

func (h *Handler) dispatchSystemPlane(ctx context.Context, without, src Source) {
	h.mu.Lock()
	if without&NoFault != 0 {
		if h.systemFaultStatus&OverflowErrorsMask == 0 {
			h.events.ClearBits(SysEventFaultSystem)
			h.systemFaultStatus = NoFault
		}
		h.systemNoFault = true
		h.mu.Unlock()
		return
	}
	h.mu.Unlock()

	h.stopAllMotors(ctx)

	h.mu.Lock()
	h.systemFaultStatus |= src & SystemFaultsMask
	h.systemFaultStatus &^= NoFault
	h.systemNoFault = false
	h.mu.Unlock()

	h.events.SetBits(SysEventFaultSystem)
	h.lc.SetErrorState()
}

func (h *Handler) dispatchCommunicationPlane(src Source, motorID motorbus.MotorID) {
	h.mu.Lock()
	h.events.SetBits(SysEventFaultSystem)
	h.systemFaultStatus |= src & FaultHandlingErrorsMask
	h.systemFaultStatus &^= NoFault
	h.systemNoFault = false

	isAFE := src.WithoutMotorID() == AfePsbCommunicationError
	shouldReport := (isAFE && !h.alreadyReportedAFEErr[motorID]) ||
		(h.alreadyReportedAPIErrs&FaultHandlingErrorsMask == 0)

	if shouldReport {
		h.errorLogTimer.Start()
		if isAFE {
			h.alreadyReportedAFEErr[motorID] = true
			h.mu.Unlock()
			h.log.SubmitFault(src&FaultHandlingErrorsMask, uint8(motorID), true)
		} else {
			h.mu.Unlock()
			h.log.SubmitFault(src&FaultHandlingErrorsMask, 0, false)
		}
		h.mu.Lock()
		h.alreadyReportedAPIErrs |= src & FaultHandlingErrorsMask
	}
	h.mu.Unlock()
}

func (h *Handler) dispatchOverflow(overflow Source) {
	h.mu.Lock()
	h.systemFaultStatus |= overflow
	h.systemFaultStatus &^= NoFault

	reportBuffer := containsBufferOverflow(overflow) && !containsBufferOverflow(h.alreadyReportedAPIErrs)
	reportQueue := containsQueueOverflow(overflow) && !containsQueueOverflow(h.alreadyReportedAPIErrs)
	h.mu.Unlock()

	h.events.SetBits(SysEventFaultSystem)

	if reportBuffer {
		h.errorLogTimer.Start()
		h.log.SubmitFault(FaultBufferOverflow, 0, false)
		h.mu.Lock()
		h.alreadyReportedAPIErrs |= FaultBufferOverflow
		h.mu.Unlock()
	}
	if reportQueue {
		h.errorLogTimer.Start()
		h.log.SubmitFault(FaultQueueOverflow, 0, false)
		h.mu.Lock()
		h.alreadyReportedAPIErrs |= FaultQueueOverflow
		h.mu.Unlock()
	}
}

// stopMotorsPerConfiguration stops the faulting motor and every other
// motor the stop policy designates for an immediate stop alongside it.
func (h *Handler) stopMotorsPerConfiguration(ctx context.Context, faultMotor motorbus.MotorID) {
	for stopMotor := motorbus.MotorID(0); stopMotor < motorbus.MaxMotors; stopMotor++ {
		if stopMotor == faultMotor || (h.policy != nil && h.policy(faultMotor, stopMotor)) {
			h.queueStopCommand(ctx, stopMotor)
		}
	}
}

func (h *Handler) stopAllMotors(ctx context.Context) {
	for stopMotor := motorbus.MotorID(0); stopMotor < motorbus.MaxMotors; stopMotor++ {
		h.queueStopCommand(ctx, stopMotor)
	}
}

func (h *Handler) queueStopCommand(ctx context.Context, motor motorbus.MotorID) {
	cmd := motorbus.Command{MotorID: motor, AppSwitch: motorbus.AppFreezeAndStop}

	for attempt := motorQueueTimeoutAttempts; attempt > 0; attempt-- {
		err := h.bus.QueueCommand(ctx, cmd)
		if err == nil {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(10 * time.Millisecond):
		}
	}

	logger.Error("failed to queue stop command after retries",
		logger.Component("fault"),
		logger.MotorID(int(motor)),
		logger.Attempt(motorQueueTimeoutAttempts))
	h.log.SubmitFault(NewSource(0, uint8(motor)), uint8(motor), false)
	h.lc.SetErrorState()
}
