// Package usermgmt implements user accounts, passphrase policy, and
// authenticated sessions: adding/updating/removing User* configuration
// slots, a constant-time-compared PBKDF2 secret with rolling history,
// a volatile per-account lockout counter, and bearer session tokens
// handed out on successful authentication.
package usermgmt

import "github.com/nxp-qmc/qmc2g-core/internal/configstore"

// SessionID identifies a live authenticated session, an index into the
// fixed session table.
type SessionID int

// NoSession marks "no acting session" for operations performed on the
// device's own behalf (e.g. the very first admin bootstrap), mirroring
// USRMGMT_NO_CURRENT_SESSION; such calls are not attributed to a user.
// AddUser, UpdateUser and RemoveUser log nothing of their own for them;
// a live session ended on their behalf is still logged as
// TerminateSession with no acting user.
const NoSession SessionID = -1

// Tunables below have no retrievable literal #define anywhere in the
// retrieval pack (they live in a board-specific qmc_features_config.h
// outside it); each is a documented judgment call.
const (
	// MaxSessions bounds the session table, mirroring USRMGMT_MAX_SESSIONS.
	MaxSessions = 16
	// ReservedSessions is the low slice of the session table Maintenance
	// accounts get exclusive use of, mirroring USRMGMT_RESERVED_SESSIONS.
	ReservedSessions = 2
	// SessionSecretLength is the per-session random HMAC key size; fixed
	// at 32 bytes to match the token's HMAC-SHA256 signature.
	SessionSecretLength = 32
	// AuthenticationAttempts is how many reauthentication tries a freshly
	// locked account gets before it is silently re-locked, mirroring
	// USRMGMT_AUTHENTICATION_ATTEMPTS.
	AuthenticationAttempts = 5
	// LockoutDuration is how long, in seconds, an account stays locked
	// after its trial counter reaches zero, mirroring
	// USRMGMT_LOCKOUT_DURATION.
	LockoutDuration = 5 * 60
	// SessionDuration is a session's lifetime in seconds from issuance,
	// mirroring USRMGMT_SESSION_DURATION.
	SessionDuration = 15 * 60
	// MinPassphraseLength is the minimum accepted passphrase length,
	// mirroring USRMGMT_MIN_PASSPHRASE_LENGTH.
	MinPassphraseLength = 12
	// MinPassphraseIterations is the PBKDF2 iteration count, mirroring
	// USRMGMT_MIN_PASSPHRASE_ITERATIONS.
	MinPassphraseIterations = 100_000
)

// CharacterClass is a bitmask classification of a single character, or
// of a whole buffer by OR-reduction, ported from
// usermgmt_character_classes_t.
type CharacterClass uint8

const (
	ClassInvalid   CharacterClass = 0x00
	ClassUppercase CharacterClass = 0x01
	ClassLowercase CharacterClass = 0x02
	ClassNumbers   CharacterClass = 0x04
	ClassSpecial   CharacterClass = 0x08
	ClassControl   CharacterClass = 0x10
	ClassNonASCII  CharacterClass = 0x20
)

// RequiredClasses and RejectedClasses gate passphrase acceptance; the
// defining USRMGMT_PASSPHRASE_REQUIRED_CLASSESS()/REJECTED_CLASSESS()
// macros are assembled from feature-config options not in the retrieval
// pack. The values below are a documented judgment call: require a mix
// of case and digits, and reject control and non-ASCII characters.
const (
	RequiredClasses = ClassUppercase | ClassLowercase | ClassNumbers
	RejectedClasses = ClassControl | ClassNonASCII
)

// PasswordRejectedClasses is applied to usernames (not passphrases),
// ported verbatim from USRMGMT_PASSWORD_REJECTED_CLASSES.
const PasswordRejectedClasses = ClassSpecial | ClassControl | ClassNonASCII

// Session is the public, read-only view of a live authenticated
// session, ported from usrmgmt_session_t.
type Session struct {
	UID       configstore.Key
	SID       SessionID
	Role      configstore.Role
	IssuedAt  int64
	ExpiresAt int64
}
