package motorbus

import (
	"context"
	"sync"
	"time"

	"github.com/nxp-qmc/qmc2g-core/internal/kernel"
	"github.com/nxp-qmc/qmc2g-core/internal/logger"
	"github.com/nxp-qmc/qmc2g-core/internal/qmcerr"
)

// statusSamplingInterval matches the firmware's periodic status poll
// cadence used to fan status out to subscribers.
const statusSamplingInterval = 20 * time.Millisecond

// MaxStatusQueues bounds the number of concurrently registered status
// subscribers. Event bit 0 is reserved for the command queue and bit 1 for
// the status-sampling timer, leaving 22 of the 24 usable event-group bits
// for per-subscriber "new status available" signalling.
const MaxStatusQueues = 22

const (
	eventBitCommandQueue uint32 = 1 << 0
	eventBitStatusTimer  uint32 = 1 << 1
	eventBitFirstStatus  uint32 = 1 << 2
)

// ControlLoop is the real-time motor control collaborator the bus drives:
// SetCommand applies a command for its target motor (returning
// qmcerr.Interrupted if the control loop could not atomically apply it
// this cycle, or qmcerr.Busy if the motor is TSN-frozen), and GetStatus
// returns the latest status snapshot for a motor.
type ControlLoop interface {
	SetCommand(cmd Command) error
	GetStatus(id MotorID) Status
}

type statusSubscriber struct {
	queue      *kernel.Queue[Status]
	eventMask  uint32
	prescaler  uint32
	counter    uint32
}

// Bus is the DataHub: it bridges best-effort command producers (REST,
// MQTT, CLI) and the real-time control loop through a shared command
// queue and a dynamic fan-out of prescaled status queues.
type Bus struct {
	loop ControlLoop

	commandQueue *kernel.Queue[Command]
	events       *kernel.EventGroup

	mu          sync.Mutex
	subscribers [MaxStatusQueues]*statusSubscriber

	tsnInjection bool
	frozen       [MaxMotors]bool

	samplingTimer *kernel.Timer
}

// New creates a Bus driving loop. commandQueueLen bounds how many pending
// commands may be queued before QueueCommand blocks.
func New(loop ControlLoop, commandQueueLen int) *Bus {
	b := &Bus{
		loop:         loop,
		commandQueue: kernel.NewQueue[Command](commandQueueLen),
		events:       kernel.NewEventGroup(),
	}
	b.samplingTimer = kernel.NewTimer(statusSamplingInterval, true, func() {
		b.events.SetBits(eventBitStatusTimer)
	})
	return b
}

// QueueCommand enqueues cmd for the control loop and wakes the task loop.
// It blocks until space is available in the command queue or ctx is done.
func (b *Bus) QueueCommand(ctx context.Context, cmd Command) error {
	if !cmd.MotorID.Valid() {
		return qmcerr.OutOfRange
	}
	if err := b.commandQueue.Send(ctx, cmd); err != nil {
		return err
	}
	b.events.SetBits(eventBitCommandQueue)
	return nil
}

// NewStatusQueue registers a new status subscriber with the given
// prescaler (1 = every sample, N = every Nth sample) and returns its
// queue and the event bit it will signal on arrival. It returns
// qmcerr.NoMem if every subscriber slot is in use.
func (b *Bus) NewStatusQueue(prescaler uint32, queueLen int) (*kernel.Queue[Status], uint32, error) {
	if prescaler == 0 {
		prescaler = 1
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	for i := range b.subscribers {
		if b.subscribers[i] == nil {
			mask := eventBitFirstStatus << uint(i)
			b.subscribers[i] = &statusSubscriber{
				queue:     kernel.NewQueue[Status](queueLen),
				eventMask: mask,
				prescaler: prescaler,
				counter:   prescaler,
			}
			return b.subscribers[i].queue, mask, nil
		}
	}
	return nil, 0, qmcerr.NoMem
}

// ReturnStatusQueue releases a subscriber slot previously obtained from
// NewStatusQueue, identified by the event mask it was given.
func (b *Bus) ReturnStatusQueue(eventMask uint32) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.subscribers {
		if b.subscribers[i] != nil && b.subscribers[i].eventMask == eventMask {
			b.subscribers[i] = nil
			return nil
		}
	}
	return qmcerr.ArgInvalid
}

// DequeueStatus retrieves one status update from the queue identified by
// eventMask, waiting up to the ctx deadline for the corresponding
// new-status event bit and a queued value.
func (b *Bus) DequeueStatus(ctx context.Context, eventMask uint32) (Status, error) {
	b.mu.Lock()
	var sub *statusSubscriber
	for i := range b.subscribers {
		if b.subscribers[i] != nil && b.subscribers[i].eventMask == eventMask {
			sub = b.subscribers[i]
			break
		}
	}
	b.mu.Unlock()
	if sub == nil {
		var zero Status
		return zero, qmcerr.ArgInvalid
	}

	if _, err := b.events.Wait(ctx, eventMask, false, true); err != nil {
		var zero Status
		return zero, err
	}
	return sub.queue.Receive(ctx)
}

// SetTSNCommandInjection enables or disables acceptance of motor commands
// arriving over the TSN connection. The bus itself does not distinguish
// command origin; callers gate TSN-sourced commands on this flag before
// calling QueueCommand.
func (b *Bus) SetTSNCommandInjection(enabled bool) {
	b.mu.Lock()
	b.tsnInjection = enabled
	b.mu.Unlock()
}

// TSNCommandInjectionEnabled reports the current TSN injection gate.
func (b *Bus) TSNCommandInjectionEnabled() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.tsnInjection
}

// UnfreezeMotor clears the TSN-freeze state for motor, allowing the
// control loop to accept commands for it again.
func (b *Bus) UnfreezeMotor(motor MotorID) error {
	if !motor.Valid() {
		return qmcerr.OutOfRange
	}
	b.mu.Lock()
	b.frozen[motor] = false
	b.mu.Unlock()
	return nil
}

func (b *Bus) motorFrozen(motor MotorID) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.frozen[motor]
}

func (b *Bus) setMotorFrozen(motor MotorID) {
	b.mu.Lock()
	b.frozen[motor] = true
	b.mu.Unlock()
}

// Run starts the bus's task loop, processing command and status-sampling
// events until ctx is done. Run is intended to be started via
// internal/kernel.Scheduler.Spawn.
func (b *Bus) Run(ctx context.Context) {
	b.samplingTimer.Start()
	defer b.samplingTimer.Stop()

	for {
		events, err := b.events.Wait(ctx, eventBitCommandQueue|eventBitStatusTimer, false, false)
		if err != nil {
			return
		}

		if events&eventBitCommandQueue != 0 {
			b.processCommands(ctx)
		}
		if events&eventBitStatusTimer != 0 {
			b.sampleAndFanOut()
			b.events.ClearBits(eventBitStatusTimer)
		}
	}
}

func (b *Bus) processCommands(ctx context.Context) {
	for {
		cmd, err := b.commandQueue.TryReceive()
		if err != nil {
			b.events.ClearBits(eventBitCommandQueue)
			return
		}

		if b.motorFrozen(cmd.MotorID) {
			continue
		}

		status := b.loop.SetCommand(cmd)
		if qmcerr.Is(status, qmcerr.Interrupted) {
			// control loop could not atomically apply it this cycle; requeue
			// and retry on the next wakeup rather than drop it.
			_ = b.commandQueue.SendFront(ctx, cmd)
			return
		}
		if qmcerr.Is(status, qmcerr.Busy) {
			b.setMotorFrozen(cmd.MotorID)
			continue
		}
		if status != nil {
			logger.Error("motor command failed",
				logger.Component("motorbus"),
				logger.MotorID(int(cmd.MotorID)),
				logger.Err(status))
		}
	}
}

func (b *Bus) sampleAndFanOut() {
	var statuses [MaxMotors]Status
	for k := 0; k < MaxMotors; k++ {
		statuses[k] = b.loop.GetStatus(MotorID(k))
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.subscribers {
		sub := b.subscribers[i]
		if sub == nil {
			continue
		}
		sub.counter--
		if sub.counter != 0 {
			continue
		}
		sub.counter = sub.prescaler

		for k := 0; k < MaxMotors; k++ {
			_ = sub.queue.TrySend(statuses[k])
		}
		b.events.SetBits(sub.eventMask)
	}
}
