// Package qmcerr defines the language-agnostic error-kind enum every
// public core API returns instead of throwing, matching the status code
// table the QMC2G firmware core uses throughout its C API (qmc_status_t).
package qmcerr

import "errors"

// Kind is one of the fixed set of status codes every public core entry
// point may return. Components never invent ad-hoc error kinds; they wrap
// one of these with fmt.Errorf("...: %w", kind) to add context.
type Kind error

var (
	// Err is an unspecified failure.
	Err Kind = errors.New("qmc: error")
	// OutOfRange means a value was not in the expected enumeration or past
	// array bounds.
	OutOfRange Kind = errors.New("qmc: out of range")
	// ArgInvalid means a null or malformed argument was supplied.
	ArgInvalid Kind = errors.New("qmc: invalid argument")
	// Timeout means the operation did not complete within the given bound.
	Timeout Kind = errors.New("qmc: timeout")
	// Busy means the resource is temporarily unavailable (e.g. the target
	// motor is frozen).
	Busy Kind = errors.New("qmc: busy")
	// NoMem means a static slot pool is exhausted.
	NoMem Kind = errors.New("qmc: no memory")
	// Sync means mutex/event-group contention exceeded its timeout.
	Sync Kind = errors.New("qmc: sync contention")
	// NoMsg means a non-blocking receive found nothing.
	NoMsg Kind = errors.New("qmc: no message")
	// Interrupted means the caller should retry; the command could not be
	// atomically applied this time.
	Interrupted Kind = errors.New("qmc: interrupted, retry")
	// NoBufs means the caller-provided buffer was too small.
	NoBufs Kind = errors.New("qmc: buffer too small")
	// Internal means an unexpected internal state was reached; callers
	// observing this must always log it.
	Internal Kind = errors.New("qmc: internal error")
	// SignatureInvalid means a cryptographic verification failed.
	SignatureInvalid Kind = errors.New("qmc: signature invalid")
)

// Is reports whether err (or any error it wraps) matches kind.
func Is(err error, kind Kind) bool {
	return errors.Is(err, kind)
}
