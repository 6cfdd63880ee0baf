package configstore

import (
	"encoding/binary"
)

// encodeUserConfig serializes u to the fixed-width layout stored in a
// User* cell: name, role(2), lockoutTimestamp(8), iterations(4), salt,
// secret, validityTimestamp(8).
func encodeUserConfig(u UserConfig) []byte {
	buf := make([]byte, UserNameMaxLength+2+8+4+SaltLength+UserSecretLength+8)
	off := 0
	copy(buf[off:], u.Name[:])
	off += UserNameMaxLength
	binary.BigEndian.PutUint16(buf[off:], uint16(u.Role))
	off += 2
	binary.BigEndian.PutUint64(buf[off:], u.LockoutTimestamp)
	off += 8
	binary.BigEndian.PutUint32(buf[off:], u.Iterations)
	off += 4
	copy(buf[off:], u.Salt[:])
	off += SaltLength
	copy(buf[off:], u.Secret[:])
	off += UserSecretLength
	binary.BigEndian.PutUint64(buf[off:], u.ValidityTimestamp)
	return buf
}

func decodeUserConfig(buf []byte) (UserConfig, error) {
	want := UserNameMaxLength + 2 + 8 + 4 + SaltLength + UserSecretLength + 8
	if len(buf) != want {
		return UserConfig{}, ErrRecordCorrupted
	}
	var u UserConfig
	off := 0
	copy(u.Name[:], buf[off:off+UserNameMaxLength])
	off += UserNameMaxLength
	u.Role = Role(binary.BigEndian.Uint16(buf[off:]))
	off += 2
	u.LockoutTimestamp = binary.BigEndian.Uint64(buf[off:])
	off += 8
	u.Iterations = binary.BigEndian.Uint32(buf[off:])
	off += 4
	copy(u.Salt[:], buf[off:off+SaltLength])
	off += SaltLength
	copy(u.Secret[:], buf[off:off+UserSecretLength])
	off += UserSecretLength
	u.ValidityTimestamp = binary.BigEndian.Uint64(buf[off:])
	return u, nil
}

// GetUser returns the User* record at slot (0-9), or an empty record
// (every field zero, Role set to RoleEmpty) if the slot has never been set.
func (s *Store) GetUser(slot int) (UserConfig, error) {
	k, err := userSlotKey(slot)
	if err != nil {
		return UserConfig{}, err
	}
	raw, ok, err := s.GetBin(k)
	if err != nil {
		return UserConfig{}, err
	}
	if !ok {
		return UserConfig{Role: RoleEmpty}, nil
	}
	return decodeUserConfig(raw)
}

// SetUser stores u at slot (0-9).
func (s *Store) SetUser(slot int, u UserConfig) error {
	k, err := userSlotKey(slot)
	if err != nil {
		return err
	}
	return s.SetBin(k, encodeUserConfig(u))
}

func userSlotKey(slot int) (Key, error) {
	if slot < 0 || slot > 9 {
		return KeyNone, ErrUnknownKey
	}
	return KeyUserFirst + Key(slot), nil
}

func userHashesSlotKey(slot int) (Key, error) {
	if slot < 0 || slot > 9 {
		return KeyNone, ErrUnknownKey
	}
	return KeyUserHashesFirst + Key(slot), nil
}

// GetUserHashes returns the password history for account slot, oldest
// first, mirroring the HistoryHashCount-sized window api_usermanagement.c
// shifts on every successful password update.
func (s *Store) GetUserHashes(slot int) ([][UserSecretLength]byte, error) {
	k, err := userHashesSlotKey(slot)
	if err != nil {
		return nil, err
	}
	raw, ok, err := s.GetBin(k)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	count := len(raw) / UserSecretLength
	out := make([][UserSecretLength]byte, count)
	for i := 0; i < count; i++ {
		copy(out[i][:], raw[i*UserSecretLength:(i+1)*UserSecretLength])
	}
	return out, nil
}

// SetUserHashes stores the password history for account slot. hashes must
// hold at most HistoryHashCount entries.
func (s *Store) SetUserHashes(slot int, hashes [][UserSecretLength]byte) error {
	k, err := userHashesSlotKey(slot)
	if err != nil {
		return err
	}
	if len(hashes) > HistoryHashCount {
		hashes = hashes[len(hashes)-HistoryHashCount:]
	}
	buf := make([]byte, 0, len(hashes)*UserSecretLength)
	for _, h := range hashes {
		buf = append(buf, h[:]...)
	}
	return s.SetBin(k, buf)
}
