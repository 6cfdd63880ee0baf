package logpipeline

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha512"
	"encoding/binary"
	"fmt"
)

const (
	aesKeySize = 32 // AES-256
	ivSize     = 16
)

// KeyProvider is the cryptographic collaborator EncryptRecord uses to
// seal an exported record, decoupling this package from the secure
// element driver that ultimately backs it.
type KeyProvider interface {
	// RandomIVAndKey returns a fresh 16-byte IV and 32-byte AES key drawn
	// from a hardware random source.
	RandomIVAndKey() (iv [ivSize]byte, key [aesKeySize]byte, err error)
	// EncryptKeyIV RSA-encrypts iv||key under the configured log-reader
	// public key.
	EncryptKeyIV(keyIV []byte) ([]byte, error)
	// Sign produces an ECDSA-P384 signature of digest using the device's
	// signing key.
	Sign(digest []byte) ([]byte, error)
}

// EncryptRecord seals rec for export: a random AES-256-CBC key+IV
// encrypts the padded record bytes, the key+IV pair is itself
// RSA-encrypted under the log reader's public key, and the whole
// ciphertext is signed with a SHA-384 digest under the device's ECDSA
// key, mirroring the five-step construction used by the source
// datalogger when a record has any export consumer attached.
func EncryptRecord(rec Record, kp KeyProvider) (*EncryptedRecord, error) {
	iv, key, err := kp.RandomIVAndKey()
	if err != nil {
		return nil, fmt.Errorf("generate record key material: %w", err)
	}

	plain := encodeRecordForEncryption(rec)

	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, fmt.Errorf("build AES cipher: %w", err)
	}
	recordEnc := make([]byte, len(plain))
	cipher.NewCBCEncrypter(block, iv[:]).CryptBlocks(recordEnc, plain)

	keyIV := make([]byte, 0, ivSize+aesKeySize)
	keyIV = append(keyIV, iv[:]...)
	keyIV = append(keyIV, key[:]...)

	keyIVEnc, err := kp.EncryptKeyIV(keyIV)
	if err != nil {
		return nil, fmt.Errorf("seal key material: %w", err)
	}

	digestInput := make([]byte, 0, len(keyIVEnc)+len(recordEnc))
	digestInput = append(digestInput, keyIVEnc...)
	digestInput = append(digestInput, recordEnc...)
	digest := sha512.Sum384(digestInput)

	signature, err := kp.Sign(digest[:])
	if err != nil {
		return nil, fmt.Errorf("sign record digest: %w", err)
	}

	return &EncryptedRecord{
		Length:    uint32(len(recordEnc)),
		KeyIVEnc:  keyIVEnc,
		RecordEnc: recordEnc,
		Signature: signature,
	}, nil
}

// encodeRecordForEncryption serializes rec to the fixed RecordSize
// layout used on the ring, which is already AES-block aligned (RecordSize
// is rounded to an even byte count and sized a multiple of aes.BlockSize
// by construction of the recorder geometry) so no further padding step
// is required before CBC encryption.
func encodeRecordForEncryption(rec Record) []byte {
	buf := make([]byte, RecordSize)
	binary.LittleEndian.PutUint64(buf[4:12], rec.Head.UUID)
	sec := rec.Head.Timestamp.Unix()
	ms := uint16(rec.Head.Timestamp.Nanosecond() / 1e6)
	binary.LittleEndian.PutUint64(buf[12:20], uint64(sec))
	putUint16(buf[20:22], ms)
	buf[22] = byte(rec.Data.Type())
	rec.Data.encode(buf[23 : 23+maxDataSize])
	binary.LittleEndian.PutUint32(buf[0:4], rec.Head.Checksum)

	if pad := len(buf) % aes.BlockSize; pad != 0 {
		padded := make([]byte, len(buf)+(aes.BlockSize-pad))
		copy(padded, buf)
		return padded
	}
	return buf
}
