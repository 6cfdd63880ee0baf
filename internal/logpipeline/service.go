package logpipeline

import (
	"context"
	"time"

	"github.com/nxp-qmc/qmc2g-core/internal/kernel"
	"github.com/nxp-qmc/qmc2g-core/internal/logger"
	"github.com/nxp-qmc/qmc2g-core/internal/motorbus"
	"github.com/nxp-qmc/qmc2g-core/internal/qmcerr"
)

// System status event-group bits this package owns, claimed at the next
// free bits after internal/fault's SysEventFaultMotor1..4/SysEventFaultSystem
// (1<<5..1<<9); the header defining QMC_SYSEVENT_LOG_* was not in the
// retrieval pack.
const (
	SysEventLogFlashError  uint32 = 1 << 10
	SysEventLogMessageLost uint32 = 1 << 11
)

// defaultInboundQueueDepth bounds how many submitted records may be
// pending flash-append before QueueEntry starts rejecting new ones. The
// defining constant for the datalogger's receive queue depth was not in
// the retrieval pack; 32 is an invented default sized for a burst of
// fault records during a multi-motor trip.
const defaultInboundQueueDepth = 32

const eventBitInbound uint32 = 1 << 0

// ShutdownReason identifies why Run is being asked to drain and reset,
// mirroring the two causes datalogger.c distinguishes on its shutdown
// notification path.
type ShutdownReason int

const (
	ShutdownNone ShutdownReason = iota
	ShutdownPowerLoss
	ShutdownWatchdogReset
	// ShutdownResetRequest is a caller-initiated reset, e.g. the REST
	// surface's POST /reset, draining the same as the two ISR-driven
	// causes but carrying its own reason for the reset log.
	ShutdownResetRequest
)

// MotorBus is the collaborator Service stops every motor through during
// an emergency shutdown drain, satisfied by *motorbus.Bus.
type MotorBus interface {
	QueueCommand(ctx context.Context, cmd motorbus.Command) error
}

// TSNGate lets Service disable TSN command injection on shutdown,
// satisfied by *motorbus.Bus.
type TSNGate interface {
	SetTSNCommandInjection(enabled bool)
}

// FastLoopDisabler disables the fast-loop motor control interrupts
// during an emergency shutdown, standing in for DisableMotorInterrupts's
// NVIC_DisableIRQ sweep.
type FastLoopDisabler interface {
	DisableFastLoopInterrupts()
}

// Resetter performs the final system reset once the shutdown drain has
// completed, standing in for RPC_Reset.
type Resetter interface {
	Reset(reason ShutdownReason) error
}

// RotationWriter is the SD-card export collaborator Service appends
// encrypted records to, rotating to a new file at maxFileSize bytes.
// It is optional: a nil RotationWriter simply skips the SD-card path,
// matching the source behavior when no SD card is mounted.
type RotationWriter interface {
	Append(rec *EncryptedRecord) error
}

// Service is the log recording and export pipeline: records submitted
// through QueueEntry are appended durably to a FlashRing, optionally
// mirrored to a RotationWriter, encrypted once any export consumer is
// registered, and fanned out through a Registry of subscriber queues.
type Service struct {
	ring     *FlashRing
	registry *Registry
	keys     KeyProvider
	rotation RotationWriter

	inbound *kernel.Queue[Record]
	events  *kernel.EventGroup

	motors   MotorBus
	tsn      TSNGate
	fastLoop FastLoopDisabler
	resetter Resetter

	shutdown chan ShutdownReason
}

// New creates a Service. keys may be nil if no export consumer will ever
// be registered; motors/tsn/fastLoop/resetter may be nil in configurations
// that never drive a shutdown drain (e.g. unit tests).
func New(ring *FlashRing, keys KeyProvider, rotation RotationWriter, motors MotorBus, tsn TSNGate, fastLoop FastLoopDisabler, resetter Resetter) *Service {
	return &Service{
		ring:     ring,
		registry: NewRegistry(),
		keys:     keys,
		rotation: rotation,
		inbound:  kernel.NewQueue[Record](defaultInboundQueueDepth),
		events:   kernel.NewEventGroup(),
		motors:   motors,
		tsn:      tsn,
		fastLoop: fastLoop,
		resetter: resetter,
		shutdown: make(chan ShutdownReason, 1),
	}
}

// QueueEntry submits rec for durable recording, without blocking.
// hasPriority requests front-of-queue placement, mirroring
// xQueueSendToFront used for records that must survive ahead of a
// brimming queue (fault and shutdown-cause records).
func (s *Service) QueueEntry(rec Record, hasPriority bool) error {
	var err error
	if hasPriority {
		err = s.inbound.TrySendFront(rec)
	} else {
		err = s.inbound.TrySend(rec)
	}
	if err != nil {
		return err
	}
	s.events.SetBits(eventBitInbound)
	return nil
}

// GetNewQueue registers a new export consumer and returns its dequeue
// handle.
func (s *Service) GetNewQueue(queueLen int) (uint32, error) {
	return s.registry.NewQueue(queueLen)
}

// ReturnQueue releases a previously obtained export consumer handle.
func (s *Service) ReturnQueue(handle uint32) error {
	return s.registry.ReturnQueue(handle)
}

// DequeueEncrypted retrieves the next encrypted record for handle,
// waiting up to ctx for one to arrive.
func (s *Service) DequeueEncrypted(ctx context.Context, handle uint32) (*EncryptedRecord, error) {
	return s.registry.Dequeue(ctx, handle)
}

// GetRecord retrieves the plain record written at uuid.
func (s *Service) GetRecord(uuid uint64) (Record, error) {
	return s.ring.GetRecord(uuid)
}

// GetRecordEncrypted retrieves the record written at uuid and encrypts
// it for export on demand, independent of whether any consumer is
// currently registered.
func (s *Service) GetRecordEncrypted(uuid uint64) (*EncryptedRecord, error) {
	rec, err := s.ring.GetRecord(uuid)
	if err != nil {
		return nil, err
	}
	if s.keys == nil {
		return nil, qmcerr.Internal
	}
	return EncryptRecord(rec, s.keys)
}

// LastID returns the most recently assigned record uuid.
func (s *Service) LastID() (uint64, error) {
	return s.ring.LastID()
}

// EventBits returns the current SysEventLog* bitmask, the
// flash-error/message-lost flags the MQTT telemetry publisher mirrors
// onto log/flash_error and log/message_lost.
func (s *Service) EventBits() uint32 {
	return s.events.GetBits()
}

// memoryLowThreshold is the inbound queue occupancy fraction above which
// MemoryLow reports true, the backpressure signal the MQTT telemetry
// publisher mirrors onto log/memory_low.
const memoryLowThreshold = 0.8

// MemoryLow reports whether the inbound recording queue is close to
// full, an early warning that QueueEntry is about to start dropping
// records.
func (s *Service) MemoryLow() bool {
	return float64(s.inbound.Len()) >= memoryLowThreshold*float64(s.inbound.Cap())
}

// Format erases the ring, for maintenance use only.
func (s *Service) Format() error {
	return s.ring.Format()
}

// RequestShutdown asks Run to stop accepting new export traffic, stop
// every motor, and drain the inbound queue to flash before resetting
// with reason. It is safe to call from any goroutine; only the first
// call per Service takes effect.
func (s *Service) RequestShutdown(reason ShutdownReason) {
	select {
	case s.shutdown <- reason:
	default:
	}
}

// Run drives the pipeline's main loop until ctx is done or a shutdown is
// requested: draining the inbound queue to the flash ring, encrypting
// and fanning out to export consumers whenever any are registered, and
// mirroring to the rotation writer when one is attached.
func (s *Service) Run(ctx context.Context) {
	for {
		select {
		case reason := <-s.shutdown:
			s.runShutdown(context.Background(), reason)
			return
		default:
		}

		events, err := s.events.Wait(ctx, eventBitInbound, false, true)
		if err != nil {
			return
		}
		if events&eventBitInbound == 0 {
			continue
		}

		s.drainInbound(true)
	}
}

// drainInbound processes every record currently queued, returning once
// the queue is empty. export controls whether drained records are also
// encrypted and fanned out; the shutdown path passes false to drain to
// flash only.
func (s *Service) drainInbound(export bool) {
	for {
		rec, err := s.inbound.TryReceive()
		if err != nil {
			return
		}
		s.processRecord(rec, export)
	}
}

func (s *Service) processRecord(rec Record, export bool) {
	uuid, err := s.ring.Append(rec)
	if err != nil {
		logger.Error("flash append failed",
			logger.Component("logpipeline"), logger.Err(err))
		s.events.SetBits(SysEventLogFlashError)
		return
	}
	rec.Head.UUID = uuid
	s.events.ClearBits(SysEventLogFlashError)

	if !export {
		return
	}

	if s.rotation != nil {
		if s.keys == nil {
			logger.Error("rotation writer attached without a key provider",
				logger.Component("logpipeline"), logger.LogUUID(formatUUID(uuid)))
		} else if enc, err := EncryptRecord(rec, s.keys); err == nil {
			if err := s.rotation.Append(enc); err != nil {
				logger.Error("sd-card rotation write failed",
					logger.Component("logpipeline"), logger.Err(err))
			}
		} else {
			logger.Error("record encryption failed",
				logger.Component("logpipeline"), logger.Err(err))
		}
	}

	if !s.registry.HasConsumers() || s.keys == nil {
		return
	}

	enc, err := EncryptRecord(rec, s.keys)
	if err != nil {
		logger.Error("record encryption failed",
			logger.Component("logpipeline"), logger.Err(err))
		return
	}
	logger.Debug("fanning out encrypted record",
		logger.Component("logpipeline"),
		logger.LogUUID(formatUUID(uuid)),
		logger.RecordLen(len(enc.RecordEnc)))

	if lost := s.registry.Push(enc); lost > 0 {
		s.events.SetBits(SysEventLogMessageLost)
	}
}

// runShutdown implements the emergency drain path common to every
// shutdown reason: bump nothing (the caller's scheduler priority change
// is out of this package's scope), stop every motor, disable TSN command
// injection and fast-loop interrupts, drain the inbound queue straight
// to flash with no export, and finally reset.
func (s *Service) runShutdown(ctx context.Context, reason ShutdownReason) {
	logger.Error("log pipeline entering shutdown drain",
		logger.Component("logpipeline"), logger.Event(shutdownReasonName(reason)))

	s.stopAllMotors(ctx)

	if s.tsn != nil {
		s.tsn.SetTSNCommandInjection(false)
	}
	if s.fastLoop != nil {
		s.fastLoop.DisableFastLoopInterrupts()
	}

	s.drainInbound(false)

	if s.resetter != nil {
		if err := s.resetter.Reset(reason); err != nil {
			logger.Error("reset request failed",
				logger.Component("logpipeline"), logger.Err(err))
		}
	}
}

// stopAllMotors mirrors internal/fault.Handler's queueStopCommand retry
// policy exactly: 20 attempts at 10ms apart before giving up on a motor.
func (s *Service) stopAllMotors(ctx context.Context) {
	if s.motors == nil {
		return
	}
	for motor := motorbus.MotorID(0); motor < motorbus.MaxMotors; motor++ {
		cmd := motorbus.Command{MotorID: motor, AppSwitch: motorbus.AppFreezeAndStop}
		s.queueStopCommand(ctx, cmd)
	}
}

func (s *Service) queueStopCommand(ctx context.Context, cmd motorbus.Command) {
	const attempts = 20
	for attempt := attempts; attempt > 0; attempt-- {
		if err := s.motors.QueueCommand(ctx, cmd); err == nil {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(10 * time.Millisecond):
		}
	}
	logger.Error("failed to queue stop command during shutdown drain",
		logger.Component("logpipeline"),
		logger.MotorID(int(cmd.MotorID)),
		logger.Attempt(attempts))
}

func shutdownReasonName(reason ShutdownReason) string {
	switch reason {
	case ShutdownPowerLoss:
		return "power_loss"
	case ShutdownWatchdogReset:
		return "watchdog_reset"
	case ShutdownResetRequest:
		return "reset_request"
	default:
		return "unknown"
	}
}

func formatUUID(uuid uint64) string {
	const hextable = "0123456789abcdef"
	buf := make([]byte, 16)
	for i := 15; i >= 0; i-- {
		buf[i] = hextable[uuid&0xF]
		uuid >>= 4
	}
	return string(buf)
}
