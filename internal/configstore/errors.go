package configstore

import (
	"fmt"

	"github.com/nxp-qmc/qmc2g-core/internal/qmcerr"
)

var (
	// ErrUnknownKey is returned for any cell not named by Key's constants.
	ErrUnknownKey = fmt.Errorf("configuration key out of range: %w", qmcerr.OutOfRange)

	// ErrKeyNoneInvalid is returned when KeyNone is passed to a setter, mirroring CONFIG_SetStrValue's documented rejection of
	// kCONFIG_Key_None.
	ErrKeyNoneInvalid = fmt.Errorf("configuration key none is not a valid target: %w", qmcerr.ArgInvalid)

	// ErrValueTooLong is returned when a value exceeds MaxValueLen.
	ErrValueTooLong = fmt.Errorf("configuration value exceeds maximum length: %w", qmcerr.ArgInvalid)

	// ErrSealVerifyFailed is returned by Load (and so by Open) when the
	// committed image's authentication tag does not verify.
	ErrSealVerifyFailed = fmt.Errorf("configuration image authentication failed: %w", qmcerr.SignatureInvalid)

	// ErrNotSealed is returned by Load when no valid committed image has
	// ever been written, mirroring a fresh CONFIG_AREA with no valid marker set.
	ErrNotSealed = fmt.Errorf("no committed configuration image: %w", qmcerr.Internal)

	// ErrChunkMisaligned is returned by FwUpdateWriter.WriteChunk when
	// offset is not the next sequential offset or not on a sector boundary.
	ErrChunkMisaligned = fmt.Errorf("firmware update chunk is not sector-aligned: %w", qmcerr.ArgInvalid)

	// ErrParseFailed is returned by GetIntFromValue/GetBoolFromValue when
	// the stored value string does not parse as the requested type.
	ErrParseFailed = fmt.Errorf("configuration value does not parse: %w", qmcerr.ArgInvalid)

	// ErrRecordCorrupted is returned when a User*/UserHashes* cell's raw
	// bytes do not match the fixed-width layout expected for its type.
	ErrRecordCorrupted = fmt.Errorf("configuration record has an unexpected length: %w", qmcerr.Internal)
)
