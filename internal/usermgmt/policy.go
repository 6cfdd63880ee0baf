package usermgmt

import "github.com/nxp-qmc/qmc2g-core/internal/configstore"

// classifyCharacter returns the CharacterClass bits for a single byte,
// ported from ct_character_classifier's range table.
func classifyCharacter(c byte) CharacterClass {
	var result CharacterClass
	switch {
	case c < ' ':
		result |= ClassControl
	case c >= ' ' && c <= '/':
		result |= ClassSpecial
	case c >= '0' && c <= '9':
		result |= ClassNumbers
	case c >= ':' && c <= '@':
		result |= ClassSpecial
	case c >= 'A' && c <= 'Z':
		result |= ClassUppercase
	case c >= '[' && c <= '`':
		result |= ClassSpecial
	case c >= 'a' && c <= 'z':
		result |= ClassLowercase
	case c >= '{' && c <= '~':
		result |= ClassSpecial
	case c == 127:
		result |= ClassControl
	case c >= 128:
		result |= ClassNonASCII
	}
	return result
}

// classifyBuffer OR-reduces classifyCharacter over s, ported from
// ct_password_classifier (minus the fixed-width buffer scan, which Go's
// slice-of-exact-length already gives us without needing a sentinel
// terminator byte).
func classifyBuffer(s []byte) CharacterClass {
	var result CharacterClass
	for _, c := range s {
		result |= classifyCharacter(c)
	}
	return result
}

// ValidatePassphrase reports whether passphrase satisfies the required/
// rejected character-class policy and minimum length, ported from the
// classification check inlined in USRMGMT_UpdateUser.
func ValidatePassphrase(passphrase []byte) error {
	classification := classifyBuffer(passphrase)
	inBoth := RequiredClasses & classification
	violated := (RequiredClasses ^ inBoth) | (RejectedClasses & classification)
	if violated != 0 || len(passphrase) < MinPassphraseLength {
		return ErrPolicyViolation
	}
	return nil
}

// ValidateUsername reports whether name is an acceptable account name:
// non-empty, short enough for a User* record, and free of Special/
// Control/NonAscii characters, ported from the name-classification
// guard in USRMGMT_AddUser.
func ValidateUsername(name []byte) error {
	if len(name) == 0 || len(name) >= configstore.UserNameMaxLength {
		return ErrArgInvalid
	}
	if classifyBuffer(name)&PasswordRejectedClasses != 0 {
		return ErrPolicyViolation
	}
	return nil
}
