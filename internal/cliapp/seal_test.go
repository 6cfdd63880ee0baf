package cliapp

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigSealGeneratesEphemeralKeyWhenUnset(t *testing.T) {
	seal, err := configSeal(ConfigStoreConfig{})
	require.NoError(t, err)
	require.NotNil(t, seal)

	ciphertext, err := seal.Seal([]byte("hello"))
	require.NoError(t, err)
	plaintext, err := seal.Open(ciphertext)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), plaintext)
}

func TestConfigSealUsesConfiguredKey(t *testing.T) {
	key := strings.Repeat("ab", 32)
	seal, err := configSeal(ConfigStoreConfig{SealKeyHex: key})
	require.NoError(t, err)

	ciphertext, err := seal.Seal([]byte("hello"))
	require.NoError(t, err)
	plaintext, err := seal.Open(ciphertext)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), plaintext)
}

func TestConfigSealRejectsMalformedKey(t *testing.T) {
	_, err := configSeal(ConfigStoreConfig{SealKeyHex: "not-hex"})
	assert.Error(t, err)

	_, err = configSeal(ConfigStoreConfig{SealKeyHex: "ab"})
	assert.Error(t, err)
}
