package usermgmt

import (
	"crypto/sha256"
	"crypto/subtle"

	"github.com/nxp-qmc/qmc2g-core/internal/configstore"
	"golang.org/x/crypto/pbkdf2"
)

// hashPassphrase derives the USER_SECRET_LENGTH-byte secret for
// passphrase under salt and iterations, ported from the
// mbedtls_pkcs5_pbkdf2_hmac call in USRMGMT_UpdateUser. The hash
// algorithm is PBKDF2-HMAC-SHA256 throughout, both at password-set time
// and at login-verification time; the source's USRMGMT_CreateSession
// sets up an MBEDTLS_MD_SHA1 context for that same verification step,
// which would make the login hash diverge from the hash stored at
// update time (a verifying hash must use the same primitive as the one
// that produced config.secret) — so SHA256 is normative, matching
// §4.7's "PBKDF2-HMAC-SHA256" and the explicit USRMGMT_PASSPHRASE_HASH
// naming; SHA1 in that one call site is treated as a source mismatch,
// not a second grounded behavior.
func hashPassphrase(passphrase []byte, salt [configstore.SaltLength]byte, iterations uint32) [configstore.UserSecretLength]byte {
	raw := pbkdf2.Key(passphrase, salt[:], int(iterations), configstore.UserSecretLength, sha256.New)
	var out [configstore.UserSecretLength]byte
	copy(out[:], raw)
	return out
}

// secretsEqual constant-time-compares two PBKDF2 secrets, ported from
// the byte-OR difference accumulator used throughout
// api_usermanagement.c (e.g. the hash comparison in USRMGMT_UpdateUser
// and the session-secret comparison in USRMGMT_CreateSession).
func secretsEqual(a, b [configstore.UserSecretLength]byte) bool {
	return subtle.ConstantTimeCompare(a[:], b[:]) == 1
}

// checkAndShiftHistory reports whether candidate reuses current or any
// entry in history, and otherwise returns the updated history with
// current appended at the end and the oldest entry dropped once the
// window is full, ported from the reuse-check-then-memmove-then-memcpy
// sequence in USRMGMT_UpdateUser.
func checkAndShiftHistory(candidate, current [configstore.UserSecretLength]byte, history [][configstore.UserSecretLength]byte) (reused bool, updated [][configstore.UserSecretLength]byte) {
	if secretsEqual(candidate, current) {
		return true, history
	}
	for _, h := range history {
		if secretsEqual(candidate, h) {
			return true, history
		}
	}
	updated = append(append([][configstore.UserSecretLength]byte{}, history...), current)
	if len(updated) > configstore.HistoryHashCount {
		updated = updated[len(updated)-configstore.HistoryHashCount:]
	}
	return false, updated
}
