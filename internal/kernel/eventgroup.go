package kernel

import (
	"context"
	"sync"

	"github.com/nxp-qmc/qmc2g-core/internal/qmcerr"
)

// EventGroup is a 24-bit set of event bits, mirroring FreeRTOS's
// xEventGroupSetBits/xEventGroupWaitBits as used by the motor-bus and
// fault-handling tasks to wake a task on a command arriving, a status
// timer firing, or a fault being posted.
type EventGroup struct {
	mu   sync.Mutex
	bits uint32
	ch   chan struct{} // closed-and-replaced on every bit change, for Wait wakeups
}

const eventGroupBitMask = 0x00FFFFFF // 24 usable bits, matching FreeRTOS's EventBits_t reservation

// NewEventGroup creates an event group with all bits clear.
func NewEventGroup() *EventGroup {
	return &EventGroup{ch: make(chan struct{})}
}

// SetBits sets the given bits and returns the resulting bit set.
func (g *EventGroup) SetBits(bits uint32) uint32 {
	g.mu.Lock()
	g.bits |= bits & eventGroupBitMask
	result := g.bits
	old := g.ch
	g.ch = make(chan struct{})
	g.mu.Unlock()
	close(old)
	return result
}

// ClearBits clears the given bits and returns the bit set as it was before
// clearing.
func (g *EventGroup) ClearBits(bits uint32) uint32 {
	g.mu.Lock()
	defer g.mu.Unlock()
	before := g.bits
	g.bits &^= bits & eventGroupBitMask
	return before
}

// GetBits returns the current bit set without blocking.
func (g *EventGroup) GetBits() uint32 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.bits
}

// Wait blocks until any bit in mask is set (waitForAll=false) or until all
// bits in mask are set (waitForAll=true), returning the observed bit set.
// If clearOnExit is true, the matched bits are cleared atomically with the
// wake. Wait respects ctx cancellation, returning qmcerr.Timeout.
func (g *EventGroup) Wait(ctx context.Context, mask uint32, waitForAll, clearOnExit bool) (uint32, error) {
	mask &= eventGroupBitMask
	for {
		g.mu.Lock()
		bits := g.bits
		satisfied := false
		if waitForAll {
			satisfied = bits&mask == mask
		} else {
			satisfied = bits&mask != 0
		}
		if satisfied {
			if clearOnExit {
				g.bits &^= mask
			}
			wake := g.ch
			g.mu.Unlock()
			_ = wake
			return bits, nil
		}
		wake := g.ch
		g.mu.Unlock()

		select {
		case <-ctx.Done():
			return g.GetBits(), qmcerr.Timeout
		case <-wake:
		}
	}
}
