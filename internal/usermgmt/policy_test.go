package usermgmt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyBuffer(t *testing.T) {
	assert.Equal(t, ClassUppercase|ClassLowercase|ClassNumbers, classifyBuffer([]byte("Ab1")))
	assert.Equal(t, ClassSpecial, classifyBuffer([]byte("!")))
	assert.Equal(t, ClassControl, classifyBuffer([]byte("\x01")))
	assert.Equal(t, ClassNonASCII, classifyBuffer([]byte{0xC3}))
}

func TestValidatePassphraseAcceptsMixedClassesAboveMinLength(t *testing.T) {
	assert.NoError(t, ValidatePassphrase([]byte("Abcdefgh123!")))
}

func TestValidatePassphraseRejectsTooShort(t *testing.T) {
	assert.ErrorIs(t, ValidatePassphrase([]byte("Ab1")), ErrPolicyViolation)
}

func TestValidatePassphraseRejectsMissingRequiredClass(t *testing.T) {
	assert.ErrorIs(t, ValidatePassphrase([]byte("alllowercase")), ErrPolicyViolation)
}

func TestValidatePassphraseRejectsControlCharacter(t *testing.T) {
	assert.ErrorIs(t, ValidatePassphrase([]byte("Abcdefg12\x013!")), ErrPolicyViolation)
}

func TestValidateUsernameRejectsSpecialCharacters(t *testing.T) {
	assert.ErrorIs(t, ValidateUsername([]byte("admin!")), ErrPolicyViolation)
}

func TestValidateUsernameAcceptsAlphanumeric(t *testing.T) {
	assert.NoError(t, ValidateUsername([]byte("operator1")))
}

func TestValidateUsernameRejectsEmpty(t *testing.T) {
	assert.ErrorIs(t, ValidateUsername(nil), ErrArgInvalid)
}
