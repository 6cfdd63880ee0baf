package logpipeline

import (
	"fmt"

	"github.com/nxp-qmc/qmc2g-core/internal/qmcerr"
)

var (
	// ErrRingClosed is returned when an operation is attempted on a closed ring.
	ErrRingClosed = fmt.Errorf("log ring closed: %w", qmcerr.Err)

	// ErrCorrupted is returned when the ring file's header or a decoded
	// record fails validation.
	ErrCorrupted = fmt.Errorf("log ring corrupted: %w", qmcerr.Internal)

	// ErrVersionMismatch is returned when an existing ring file's format
	// version does not match this build's.
	ErrVersionMismatch = fmt.Errorf("log ring version mismatch: %w", qmcerr.Internal)

	// ErrRecordNotFound is returned by GetRecord when uuid has already
	// been overwritten by the ring wrapping around, or was never written.
	ErrRecordNotFound = fmt.Errorf("log record not found: %w", qmcerr.OutOfRange)
)
