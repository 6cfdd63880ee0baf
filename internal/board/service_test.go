package board

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nxp-qmc/qmc2g-core/internal/fault"
	"github.com/nxp-qmc/qmc2g-core/internal/kernel"
	"github.com/nxp-qmc/qmc2g-core/internal/motorbus"
)

type fakeBus struct {
	mu sync.Mutex

	selectErr   error
	gdStatus    [motorbus.MaxMotors]GD3000Status
	gdErr       error
	hasAFE      [motorbus.MaxMotors]bool
	psb1        [motorbus.MaxMotors]float64
	psb2        [motorbus.MaxMotors]float64
	psbErr      error
	boardTemp   float64
	boardErr    error
	mcuTemp     float64
	mcuErr      error
	watchdogErr error
	seReady     bool

	resets      []motorbus.MotorID
	clears      []motorbus.MotorID
	kicks       int
}

func newFakeBus() *fakeBus {
	b := &fakeBus{seReady: true}
	for i := range b.hasAFE {
		b.hasAFE[i] = true
	}
	return b
}

func (b *fakeBus) SelectSpiDevice(dev SpiDevice) error { return b.selectErr }

func (b *fakeBus) GD3000Status(motor motorbus.MotorID) (GD3000Status, error) {
	if b.gdErr != nil {
		return GD3000Status{}, b.gdErr
	}
	return b.gdStatus[motor], nil
}

func (b *fakeBus) ResetGD3000(motor motorbus.MotorID) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.resets = append(b.resets, motor)
	return nil
}

func (b *fakeBus) ClearGD3000Flags(motor motorbus.MotorID) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.clears = append(b.clears, motor)
	return nil
}

func (b *fakeBus) HasAFE(motor motorbus.MotorID) bool { return b.hasAFE[motor] }

func (b *fakeBus) ReadPSBTemp1(motor motorbus.MotorID) (float64, error) {
	if b.psbErr != nil {
		return 0, b.psbErr
	}
	return b.psb1[motor], nil
}

func (b *fakeBus) ReadPSBTemp2(motor motorbus.MotorID) (float64, error) {
	if b.psbErr != nil {
		return 0, b.psbErr
	}
	return b.psb2[motor], nil
}

func (b *fakeBus) ReadBoardTemperature() (float64, error) { return b.boardTemp, b.boardErr }
func (b *fakeBus) ReadMCUTemperature() (float64, error)   { return b.mcuTemp, b.mcuErr }
func (b *fakeBus) KickFunctionalWatchdog() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.kicks++
	return b.watchdogErr
}
func (b *fakeBus) SecureElementReady() bool { return b.seReady }

type fakeRaiser struct {
	mu     sync.Mutex
	faults []fault.Source
}

func (f *fakeRaiser) RaiseBlocking(src fault.Source) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.faults = append(f.faults, src)
}

func (f *fakeRaiser) count(pred func(fault.Source) bool) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, s := range f.faults {
		if pred(s) {
			n++
		}
	}
	return n
}

func TestInitRaisesWatchdogFaultOnKickFailure(t *testing.T) {
	bus := newFakeBus()
	bus.watchdogErr = assertErr
	raiser := &fakeRaiser{}
	svc := New(bus, raiser, kernel.NewEventGroup(), DefaultThresholds())

	svc.Init()

	assert.Equal(t, 1, raiser.count(func(s fault.Source) bool { return s == fault.FunctionalWatchdogInitFail }))
}

func TestPollResetsGateDriverOnResetRequest(t *testing.T) {
	bus := newFakeBus()
	bus.gdStatus[motorbus.Motor2] = GD3000Status{ResetRequest: true}
	raiser := &fakeRaiser{}
	svc := New(bus, raiser, kernel.NewEventGroup(), DefaultThresholds())

	svc.pollGateDrivers()

	require.Len(t, bus.resets, 1)
	assert.Equal(t, motorbus.Motor2, bus.resets[0])
}

func TestPollClearsGateDriverFlagsOnFault(t *testing.T) {
	bus := newFakeBus()
	bus.gdStatus[motorbus.Motor1] = GD3000Status{OverCurrent: true}
	raiser := &fakeRaiser{}
	svc := New(bus, raiser, kernel.NewEventGroup(), DefaultThresholds())

	svc.pollGateDrivers()

	require.Len(t, bus.clears, 1)
	assert.Equal(t, motorbus.Motor1, bus.clears[0])
}

func TestSweepRaisesOverTemperatureFault(t *testing.T) {
	bus := newFakeBus()
	bus.psb1[motorbus.Motor3] = 150 // above DefaultPSBTemp1Threshold
	raiser := &fakeRaiser{}
	svc := New(bus, raiser, kernel.NewEventGroup(), DefaultThresholds())

	svc.sweepTemperatures()

	assert.Equal(t, 1, raiser.count(func(s fault.Source) bool {
		return s.WithoutMotorID() == fault.PSBOverTemperature1 && s.MotorID() == uint8(motorbus.Motor3)
	}))
}

func TestSweepClearsStickyFaultOnceHealthy(t *testing.T) {
	bus := newFakeBus()
	bus.boardTemp = 200 // above DefaultDBTempThreshold
	raiser := &fakeRaiser{}
	svc := New(bus, raiser, kernel.NewEventGroup(), DefaultThresholds())

	svc.sweepTemperatures()
	require.Equal(t, 1, raiser.count(func(s fault.Source) bool { return s == fault.DbOverTemperature }))

	bus.boardTemp = 20
	svc.sweepTemperatures()
	assert.Equal(t, 1, raiser.count(func(s fault.Source) bool { return s == fault.NoFault }))
}

func TestSweepReportsRpcCallFailedOnceOnRepeatedSpiFailure(t *testing.T) {
	bus := newFakeBus()
	bus.selectErr = assertErr
	raiser := &fakeRaiser{}
	svc := New(bus, raiser, kernel.NewEventGroup(), DefaultThresholds())

	svc.sweepTemperatures()
	svc.sweepTemperatures()

	assert.Equal(t, 1, raiser.count(func(s fault.Source) bool { return s == fault.RpcCallFailed }))
}

func TestSelfTestFailsWhenSystemFaultBitSet(t *testing.T) {
	bus := newFakeBus()
	raiser := &fakeRaiser{}
	system := kernel.NewEventGroup()
	system.SetBits(fault.SysEventFaultMotor1)
	svc := New(bus, raiser, system, DefaultThresholds())
	svc.Init()

	err := svc.SelfTest()
	assert.Error(t, err)
}

func TestSelfTestPassesWhenHealthy(t *testing.T) {
	bus := newFakeBus()
	raiser := &fakeRaiser{}
	svc := New(bus, raiser, kernel.NewEventGroup(), DefaultThresholds())
	svc.Init()

	err := svc.SelfTest()
	assert.NoError(t, err)
}

func TestRunPollsOnEveryTick(t *testing.T) {
	bus := newFakeBus()
	bus.gdStatus[motorbus.Motor1] = GD3000Status{OverCurrent: true}
	raiser := &fakeRaiser{}
	svc := New(bus, raiser, kernel.NewEventGroup(), DefaultThresholds())
	svc.timer = kernel.NewTimer(5*time.Millisecond, true, func() {
		svc.events.SetBits(eventBitPoll)
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go svc.Run(ctx)

	require.Eventually(t, func() bool {
		bus.mu.Lock()
		defer bus.mu.Unlock()
		return len(bus.clears) > 0 && bus.kicks > 0
	}, time.Second, 5*time.Millisecond)
}

var assertErr = &testError{"simulated failure"}

type testError struct{ msg string }

func (e *testError) Error() string { return e.msg }
