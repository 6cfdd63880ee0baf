package logpipeline

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nxp-qmc/qmc2g-core/internal/motorbus"
)

type fakeMotorBus struct {
	mu      sync.Mutex
	queued  []motorbus.Command
	failAll bool
}

func (f *fakeMotorBus) QueueCommand(ctx context.Context, cmd motorbus.Command) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll {
		return context.DeadlineExceeded
	}
	f.queued = append(f.queued, cmd)
	return nil
}

func (f *fakeMotorBus) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queued)
}

type fakeTSNGate struct {
	mu      sync.Mutex
	enabled bool
}

func (f *fakeTSNGate) SetTSNCommandInjection(enabled bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.enabled = enabled
}

type fakeFastLoopDisabler struct {
	mu       sync.Mutex
	disabled bool
}

func (f *fakeFastLoopDisabler) DisableFastLoopInterrupts() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disabled = true
}

type fakeResetter struct {
	mu     sync.Mutex
	reason ShutdownReason
	called bool
}

func (f *fakeResetter) Reset(reason ShutdownReason) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reason = reason
	f.called = true
	return nil
}

type fakeRotationWriter struct {
	mu    sync.Mutex
	wrote []*EncryptedRecord
}

func (f *fakeRotationWriter) Append(rec *EncryptedRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.wrote = append(f.wrote, rec)
	return nil
}

func newTestService(t *testing.T, keys KeyProvider, rotation RotationWriter, motors MotorBus) *Service {
	t.Helper()
	ring := newTestRing(t)
	return New(ring, keys, rotation, motors, &fakeTSNGate{}, &fakeFastLoopDisabler{}, &fakeResetter{})
}

func TestServiceQueueEntryAndRunAppendsToFlash(t *testing.T) {
	svc := newTestService(t, nil, nil, nil)

	rec := testRecord(EventUserLogin)
	require.NoError(t, svc.QueueEntry(rec, false))

	ctx, cancel := context.WithCancel(context.Background())
	go svc.Run(ctx)

	require.Eventually(t, func() bool {
		last, err := svc.LastID()
		return err == nil && last == 0
	}, time.Second, time.Millisecond)
	cancel()

	got, err := svc.GetRecord(0)
	require.NoError(t, err)
	assert.Equal(t, EventUserLogin, got.Data.(SystemData).EventCode)
}

func TestServiceFansOutEncryptedRecordsToConsumers(t *testing.T) {
	kp := newTestKeyProvider(t)
	svc := newTestService(t, kp, nil, nil)

	handle, err := svc.GetNewQueue(4)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go svc.Run(ctx)

	require.NoError(t, svc.QueueEntry(testRecord(EventOverCurrent), true))

	dctx, dcancel := context.WithTimeout(context.Background(), time.Second)
	defer dcancel()
	enc, err := svc.DequeueEncrypted(dctx, handle)
	require.NoError(t, err)
	assert.NotEmpty(t, enc.RecordEnc)
}

func TestServiceMirrorsToRotationWriterWhenKeysAvailable(t *testing.T) {
	kp := newTestKeyProvider(t)
	rotation := &fakeRotationWriter{}
	svc := newTestService(t, kp, rotation, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go svc.Run(ctx)

	require.NoError(t, svc.QueueEntry(testRecord(EventNoFault), false))

	require.Eventually(t, func() bool {
		rotation.mu.Lock()
		defer rotation.mu.Unlock()
		return len(rotation.wrote) == 1
	}, time.Second, time.Millisecond)
}

func TestServiceGetRecordEncryptedWithoutKeysFails(t *testing.T) {
	svc := newTestService(t, nil, nil, nil)
	_, err := svc.ring.Append(testRecord(EventNoFault))
	require.NoError(t, err)

	_, err = svc.GetRecordEncrypted(0)
	assert.Error(t, err)
}

func TestServiceShutdownStopsMotorsAndResets(t *testing.T) {
	motors := &fakeMotorBus{}
	svc := newTestService(t, nil, nil, motors)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		svc.Run(ctx)
		close(done)
	}()

	require.NoError(t, svc.QueueEntry(testRecord(EventPowerLoss), true))
	svc.RequestShutdown(ShutdownPowerLoss)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after shutdown request")
	}

	assert.Equal(t, motorbus.MaxMotors, motors.count())

	last, err := svc.LastID()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), last)
}
