package motorbus

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nxp-qmc/qmc2g-core/internal/qmcerr"
)

type fakeLoop struct {
	mu       sync.Mutex
	applied  []Command
	nextErr  error
	statuses [MaxMotors]Status
}

func newFakeLoop() *fakeLoop {
	l := &fakeLoop{}
	for i := range l.statuses {
		l.statuses[i] = Status{MotorID: MotorID(i)}
	}
	return l
}

func (f *fakeLoop) SetCommand(cmd Command) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.nextErr != nil {
		err := f.nextErr
		f.nextErr = nil
		return err
	}
	f.applied = append(f.applied, cmd)
	return nil
}

func (f *fakeLoop) GetStatus(id MotorID) Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.statuses[id]
}

func TestQueueCommandRejectsOutOfRangeMotor(t *testing.T) {
	bus := New(newFakeLoop(), 4)
	err := bus.QueueCommand(context.Background(), Command{MotorID: MaxMotors})
	assert.True(t, qmcerr.Is(err, qmcerr.OutOfRange))
}

func TestBusAppliesQueuedCommand(t *testing.T) {
	loop := newFakeLoop()
	bus := New(loop, 4)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go bus.Run(ctx)

	require.NoError(t, bus.QueueCommand(ctx, Command{MotorID: Motor2, AppSwitch: AppOn}))

	require.Eventually(t, func() bool {
		loop.mu.Lock()
		defer loop.mu.Unlock()
		return len(loop.applied) == 1
	}, time.Second, 5*time.Millisecond)
}

func TestBusFreezesMotorOnBusy(t *testing.T) {
	loop := newFakeLoop()
	loop.nextErr = qmcerr.Busy
	bus := New(loop, 4)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go bus.Run(ctx)

	require.NoError(t, bus.QueueCommand(ctx, Command{MotorID: Motor1}))

	require.Eventually(t, func() bool {
		return bus.motorFrozen(Motor1)
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, bus.UnfreezeMotor(Motor1))
	assert.False(t, bus.motorFrozen(Motor1))
}

func TestNewStatusQueueExhaustion(t *testing.T) {
	bus := New(newFakeLoop(), 4)
	for i := 0; i < MaxStatusQueues; i++ {
		_, _, err := bus.NewStatusQueue(1, 4)
		require.NoError(t, err)
	}
	_, _, err := bus.NewStatusQueue(1, 4)
	assert.True(t, qmcerr.Is(err, qmcerr.NoMem))
}

func TestStatusFanOutAndDequeue(t *testing.T) {
	loop := newFakeLoop()
	bus := New(loop, 4)

	_, mask, err := bus.NewStatusQueue(1, MaxMotors*2)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go bus.Run(ctx)

	dctx, dcancel := context.WithTimeout(ctx, time.Second)
	defer dcancel()
	status, err := bus.DequeueStatus(dctx, mask)
	require.NoError(t, err)
	assert.True(t, status.MotorID.Valid())
}

func TestReturnStatusQueueUnknownMask(t *testing.T) {
	bus := New(newFakeLoop(), 4)
	err := bus.ReturnStatusQueue(eventBitFirstStatus)
	assert.True(t, qmcerr.Is(err, qmcerr.ArgInvalid))
}

func TestTSNCommandInjectionToggle(t *testing.T) {
	bus := New(newFakeLoop(), 4)
	assert.False(t, bus.TSNCommandInjectionEnabled())
	bus.SetTSNCommandInjection(true)
	assert.True(t, bus.TSNCommandInjectionEnabled())
}
