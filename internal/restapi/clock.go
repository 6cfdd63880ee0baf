package api

import (
	"sync"
	"time"
)

// SystemClock is a software real-time clock, written by the /time REST
// endpoint and read by the session manager's authentication logic,
// standing in for BOARD_GetTime/RPC_SetTimeToRTC's wall-clock offset
// over the systick counter. Now returns ok=false until Set has been
// called at least once, mirroring BOARD_GetTime's uninitialized-RTC
// failure mode.
type SystemClock struct {
	mu     sync.Mutex
	offset time.Duration
	isSet  bool
}

// NewSystemClock returns a clock with no wall-clock offset set.
func NewSystemClock() *SystemClock {
	return &SystemClock{}
}

// Now reports the current wall-clock time in whole seconds since the
// epoch, satisfying internal/usermgmt.Clock.
func (c *SystemClock) Now() (seconds int64, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.isSet {
		return 0, false
	}
	return time.Now().Add(c.offset).Unix(), true
}

// NowMillis reports the current time split into whole seconds and a
// millisecond remainder, the decomposition the /time endpoint's
// "<sec><msec3>" wire format needs.
func (c *SystemClock) NowMillis() (seconds int64, millis uint16, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.isSet {
		return 0, 0, false
	}
	now := time.Now().Add(c.offset)
	return now.Unix(), uint16(now.Nanosecond() / int(time.Millisecond)), true
}

// Set adjusts the clock's offset so Now subsequently reports seconds.millis,
// mirroring RPC_SetTimeToRTC.
func (c *SystemClock) Set(seconds int64, millis uint16) {
	c.mu.Lock()
	defer c.mu.Unlock()
	target := time.Unix(seconds, int64(millis)*int64(time.Millisecond))
	c.offset = time.Until(target)
	c.isSet = true
}
