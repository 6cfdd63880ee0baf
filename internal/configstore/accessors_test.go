package configstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyFromStringKnownAndUnknown(t *testing.T) {
	assert.Equal(t, KeyCloudAzureHubName, KeyFromString("cloud_azure_hub_name"))
	assert.Equal(t, KeyUserFirst+3, KeyFromString("user4"))
	assert.Equal(t, KeyUserHashesFirst+3, KeyFromString("user_hashes4"))
	assert.Equal(t, KeyNone, KeyFromString("does_not_exist"))
}

func TestKeyValidSkipsTheGapAt0xC(t *testing.T) {
	assert.False(t, Key(0x0C).Valid(), "0x0C is an intentional gap between CloudAzureHubName and CloudGenericHostName")
	assert.True(t, KeyCloudAzureHubName.Valid())
	assert.True(t, KeyCloudGenericHost.Valid())
}

func TestStoreGetSetStrByName(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.SetStrByName("mac_address", "de:ad:be:ef:00:01"))
	got, err := s.GetStrByName("mac_address")
	require.NoError(t, err)
	assert.Equal(t, "de:ad:be:ef:00:01", got)

	_, err = s.GetStrByName("not_a_key")
	assert.ErrorIs(t, err, ErrUnknownKey)
}

func TestGetIntFromValue(t *testing.T) {
	n, err := GetIntFromValue("  42")
	require.NoError(t, err)
	assert.Equal(t, 42, n)

	_, err = GetIntFromValue("not a number")
	assert.ErrorIs(t, err, ErrParseFailed)
}

func TestSetIntAsValueRoundTrips(t *testing.T) {
	s := SetIntAsValue(-7)
	n, err := GetIntFromValue(s)
	require.NoError(t, err)
	assert.Equal(t, -7, n)
}

func TestGetBoolFromValueRecognizesAllForms(t *testing.T) {
	for _, v := range []string{"true", "YES", "On", "1"} {
		b, err := GetBoolFromValue(v)
		require.NoError(t, err)
		assert.True(t, b, v)
	}
	for _, v := range []string{"false", "NO", "Off", "0"} {
		b, err := GetBoolFromValue(v)
		require.NoError(t, err)
		assert.False(t, b, v)
	}
	_, err := GetBoolFromValue("maybe")
	assert.ErrorIs(t, err, ErrParseFailed)
}

func TestSetBoolAsValueRoundTrips(t *testing.T) {
	b, err := GetBoolFromValue(SetBoolAsValue(true))
	require.NoError(t, err)
	assert.True(t, b)
}
