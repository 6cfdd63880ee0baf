package usermgmt

import (
	"fmt"

	"github.com/nxp-qmc/qmc2g-core/internal/qmcerr"
)

var (
	// ErrArgInvalid mirrors kStatus_QMC_ErrArgInvalid for malformed
	// names/passphrases/roles.
	ErrArgInvalid = fmt.Errorf("user management argument invalid: %w", qmcerr.ArgInvalid)

	// ErrPolicyViolation is returned when a passphrase or username fails
	// the character-class policy or length requirement.
	ErrPolicyViolation = fmt.Errorf("passphrase does not satisfy policy: %w", qmcerr.OutOfRange)

	// ErrPassphraseReused is returned when a candidate password matches
	// the current secret or one of the retained history hashes.
	ErrPassphraseReused = fmt.Errorf("passphrase matches a recent password: %w", qmcerr.Err)

	// ErrNoFreeSlot is returned by AddUser when every User* slot is
	// occupied.
	ErrNoFreeSlot = fmt.Errorf("no free user slot: %w", qmcerr.NoMem)

	// ErrUserNotFound is returned when no account matches the given name.
	ErrUserNotFound = fmt.Errorf("user not found: %w", qmcerr.ArgInvalid)

	// ErrAccountLocked is returned by CreateSession when the account is
	// within its lockout window and has no trial attempts remaining.
	ErrAccountLocked = fmt.Errorf("account is locked: %w", qmcerr.Busy)

	// ErrAuthenticationFailed is returned by CreateSession on a wrong
	// passphrase, for an expired non-Maintenance account, and when no
	// session slot is free for the account's role.
	ErrAuthenticationFailed = fmt.Errorf("authentication failed: %w", qmcerr.Err)

	// ErrSessionFull names the case where no session slot is available
	// for the account's role. CreateSession takes the login-failure path
	// for it and returns ErrAuthenticationFailed, not ErrSessionFull.
	ErrSessionFull = fmt.Errorf("no free session slot: %w", qmcerr.NoMem)

	// ErrAccountExpired names a non-Maintenance account past its validity
	// timestamp. CreateSession takes the login-failure path for it and
	// returns ErrAuthenticationFailed, not ErrAccountExpired.
	ErrAccountExpired = fmt.Errorf("account validity has expired: %w", qmcerr.Err)

	// ErrInvalidSession is returned by EndSession for a sid outside
	// [0, MaxSessions).
	ErrInvalidSession = fmt.Errorf("session id out of range: %w", qmcerr.OutOfRange)

	// ErrTokenMalformed is returned by ValidateSession for a token that
	// does not parse as three base64url segments with valid JSON claims.
	ErrTokenMalformed = fmt.Errorf("token is malformed: %w", qmcerr.ArgInvalid)

	// ErrTokenSignatureInvalid is returned when the recomputed HMAC does
	// not match the token's signature segment.
	ErrTokenSignatureInvalid = fmt.Errorf("token signature invalid: %w", qmcerr.SignatureInvalid)

	// ErrTokenExpired is returned when the token's exp claim has passed.
	ErrTokenExpired = fmt.Errorf("token has expired: %w", qmcerr.Timeout)

	// ErrNoMoreUsers / ErrNoMoreSessions terminate IterateUsers/
	// IterateSessions, mirroring kStatus_QMC_ErrRange on exhaustion.
	ErrNoMoreUsers    = fmt.Errorf("no more users: %w", qmcerr.OutOfRange)
	ErrNoMoreSessions = fmt.Errorf("no more sessions: %w", qmcerr.OutOfRange)
)
