package lifecycle

import (
	"fmt"

	"github.com/nxp-qmc/qmc2g-core/internal/qmcerr"
)

var (
	// ErrInvalidTransition is returned when a requested state change
	// does not match one of the edges the state machine allows.
	ErrInvalidTransition = fmt.Errorf("lifecycle: invalid state transition: %w", qmcerr.ArgInvalid)
	// ErrSlotInUse is returned by the watchdog registry when a caller
	// requests a kick slot index that is already held.
	ErrSlotInUse = fmt.Errorf("lifecycle: watchdog kick slot already in use: %w", qmcerr.ArgInvalid)
	// ErrUnknownSlot is returned by Kick for a slot that was never
	// registered.
	ErrUnknownSlot = fmt.Errorf("lifecycle: unknown watchdog kick slot: %w", qmcerr.OutOfRange)
)
