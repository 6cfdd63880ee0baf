package secureelement

import (
	"fmt"

	"github.com/nxp-qmc/qmc2g-core/internal/qmcerr"
)

var (
	// ErrNotOpen is returned by any operation attempted before Open
	// succeeds, mirroring SE_IsInitialized's guard in the C source.
	ErrNotOpen = fmt.Errorf("secure element session not open: %w", qmcerr.Internal)
	// ErrAlreadyOpen names SE_Initialize's early return when
	// gs_isInitialized is already set. Open builds a new Session on every
	// call and does not return it.
	ErrAlreadyOpen = fmt.Errorf("secure element session already open: %w", qmcerr.Err)
	// ErrObjectNotFound is returned when an ObjectID has no bound key
	// material, mirroring sss_key_object_get_handle failing for an
	// unprovisioned object.
	ErrObjectNotFound = fmt.Errorf("secure element object not found: %w", qmcerr.ArgInvalid)
	// ErrObjectWrongKind reports an ObjectID queried through the wrong
	// accessor (e.g. an RSA object via DeviceKeyPair). No function in this
	// package returns it.
	ErrObjectWrongKind = fmt.Errorf("secure element object is not of the requested kind: %w", qmcerr.ArgInvalid)
	// ErrInputTooShort is returned by AESDecryptCBC when the input is
	// shorter than one IV or its ciphertext is not block-aligned, and is
	// wrapped by AESEncryptCBC for plaintext that is not block-aligned.
	ErrInputTooShort = fmt.Errorf("secure element input too short: %w", qmcerr.ArgInvalid)
	// ErrVerifyFailed is returned by ECDSAVerify on a failed signature
	// check.
	ErrVerifyFailed = fmt.Errorf("secure element signature verification failed: %w", qmcerr.SignatureInvalid)
)
