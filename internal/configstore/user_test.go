package configstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreGetUserEmptySlot(t *testing.T) {
	s := newTestStore(t)
	u, err := s.GetUser(0)
	require.NoError(t, err)
	assert.Equal(t, RoleEmpty, u.Role)
	assert.False(t, u.Occupied())
}

func TestStoreSetUserThenGetUserRoundTrips(t *testing.T) {
	s := newTestStore(t)
	var u UserConfig
	copy(u.Name[:], "op1")
	u.Role = RoleOperator
	u.Iterations = 100000
	copy(u.Salt[:], []byte("0123456789abcdef"))
	copy(u.Secret[:], []byte("00112233445566778899aabbccddeeff"))
	u.ValidityTimestamp = 1234567890

	require.NoError(t, s.SetUser(3, u))

	got, err := s.GetUser(3)
	require.NoError(t, err)
	assert.Equal(t, RoleOperator, got.Role)
	assert.True(t, got.Occupied())
	assert.Equal(t, u.Name, got.Name)
	assert.Equal(t, u.Salt, got.Salt)
	assert.Equal(t, u.Secret, got.Secret)
	assert.Equal(t, u.Iterations, got.Iterations)
	assert.Equal(t, u.ValidityTimestamp, got.ValidityTimestamp)
}

func TestStoreUserHashesHistoryRoundTrips(t *testing.T) {
	s := newTestStore(t)

	var hashes [][UserSecretLength]byte
	for i := 0; i < 3; i++ {
		var h [UserSecretLength]byte
		h[0] = byte(i + 1)
		hashes = append(hashes, h)
	}
	require.NoError(t, s.SetUserHashes(5, hashes))

	got, err := s.GetUserHashes(5)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, byte(1), got[0][0])
	assert.Equal(t, byte(3), got[2][0])
}

func TestStoreSetUserHashesTruncatesToHistoryLimit(t *testing.T) {
	s := newTestStore(t)

	hashes := make([][UserSecretLength]byte, HistoryHashCount+2)
	for i := range hashes {
		hashes[i][0] = byte(i)
	}
	require.NoError(t, s.SetUserHashes(0, hashes))

	got, err := s.GetUserHashes(0)
	require.NoError(t, err)
	require.Len(t, got, HistoryHashCount)
	assert.Equal(t, byte(2), got[0][0], "oldest two entries beyond the window should be dropped")
}

func TestStoreUserSlotOutOfRange(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetUser(10)
	assert.ErrorIs(t, err, ErrUnknownKey)
	assert.ErrorIs(t, s.SetUser(-1, UserConfig{}), ErrUnknownKey)
}
