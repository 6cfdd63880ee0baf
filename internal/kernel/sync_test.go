package kernel

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nxp-qmc/qmc2g-core/internal/qmcerr"
)

func TestMutexLockUnlock(t *testing.T) {
	m := NewMutex()
	ctx := context.Background()

	require.NoError(t, m.Lock(ctx))
	assert.False(t, m.TryLock())
	m.Unlock()
	assert.True(t, m.TryLock())
	m.Unlock()
}

func TestMutexLockTimesOut(t *testing.T) {
	m := NewMutex()
	require.NoError(t, m.Lock(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Millisecond)
	defer cancel()
	err := m.Lock(ctx)
	assert.True(t, qmcerr.Is(err, qmcerr.Timeout))
}

func TestMutexDoubleUnlockPanics(t *testing.T) {
	m := NewMutex()
	assert.Panics(t, func() { m.Unlock() })
}

func TestSemaphoreAcquireRelease(t *testing.T) {
	s := NewSemaphore(2)
	ctx := context.Background()

	require.NoError(t, s.Acquire(ctx))
	require.NoError(t, s.Acquire(ctx))

	tctx, cancel := context.WithTimeout(ctx, 15*time.Millisecond)
	defer cancel()
	err := s.Acquire(tctx)
	assert.True(t, qmcerr.Is(err, qmcerr.Timeout))

	s.Release()
	require.NoError(t, s.Acquire(ctx))
}

func TestAtomicU16AddWraps(t *testing.T) {
	var a AtomicU16
	a.Store(65535)
	assert.Equal(t, uint16(0), a.Add(1))
}
