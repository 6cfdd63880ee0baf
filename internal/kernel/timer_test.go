package kernel

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTimerOneShotFiresOnce(t *testing.T) {
	var count atomic.Int32
	tm := NewTimer(15*time.Millisecond, false, func() { count.Add(1) })
	tm.Start()

	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, int32(1), count.Load())
}

func TestTimerPeriodicRearms(t *testing.T) {
	var count atomic.Int32
	tm := NewTimer(10*time.Millisecond, true, func() { count.Add(1) })
	tm.Start()
	defer tm.Stop()

	time.Sleep(55 * time.Millisecond)
	assert.GreaterOrEqual(t, count.Load(), int32(3))
}

func TestTimerStopPreventsFire(t *testing.T) {
	var count atomic.Int32
	tm := NewTimer(15*time.Millisecond, false, func() { count.Add(1) })
	tm.Start()
	tm.Stop()

	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, int32(0), count.Load())
}

func TestTimerResetRearms(t *testing.T) {
	var count atomic.Int32
	tm := NewTimer(15*time.Millisecond, false, func() { count.Add(1) })
	tm.Start()
	time.Sleep(5 * time.Millisecond)
	tm.Reset()

	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, int32(1), count.Load())
}
