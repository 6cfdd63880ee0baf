package secureelement

import (
	"bytes"
	"fmt"

	"github.com/nxp-qmc/qmc2g-core/internal/qmcerr"
)

// configSeal wires a Session's ConfigEnc object into the
// configstore.SealProvider contract: encrypt-then-MAC with AES-CBC and
// HMAC-SHA256 under the same key, since the element only exposes a raw
// AES key object for this slot (no AEAD mode), mirroring idConfigEnc's
// documented "AES256 key" shape in se_session.h rather than an AEAD
// object.
type configSeal struct {
	session *Session
}

// ConfigSeal returns a configstore.SealProvider backed by this
// session's ObjConfigEnc key.
func (s *Session) ConfigSeal() *configSeal {
	return &configSeal{session: s}
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	padLen := blockSize - len(data)%blockSize
	padding := bytes.Repeat([]byte{byte(padLen)}, padLen)
	return append(data, padding...)
}

func pkcs7Unpad(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("configseal: empty padded block: %w", qmcerr.Internal)
	}
	padLen := int(data[len(data)-1])
	if padLen == 0 || padLen > len(data) {
		return nil, fmt.Errorf("configseal: invalid padding: %w", qmcerr.Internal)
	}
	return data[:len(data)-padLen], nil
}

// Seal encrypts then authenticates plaintext, returning
// ciphertext||mac where ciphertext is iv||AES-CBC(pkcs7(plaintext)).
func (c *configSeal) Seal(plaintext []byte) ([]byte, error) {
	ciphertext, err := c.session.AESEncryptCBC(ObjConfigEnc, pkcs7Pad(plaintext, 16))
	if err != nil {
		return nil, err
	}
	mac, err := c.session.HMACSHA256(ObjConfigEnc, ciphertext)
	if err != nil {
		return nil, err
	}
	return append(ciphertext, mac...), nil
}

// Open verifies then decrypts a blob produced by Seal.
func (c *configSeal) Open(blob []byte) ([]byte, error) {
	const macLen = 32
	if len(blob) < macLen {
		return nil, fmt.Errorf("configseal: blob too short: %w", qmcerr.SignatureInvalid)
	}
	ciphertext, mac := blob[:len(blob)-macLen], blob[len(blob)-macLen:]

	ok, err := c.session.VerifyHMACSHA256(ObjConfigEnc, ciphertext, mac)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("configseal: mac mismatch: %w", qmcerr.SignatureInvalid)
	}

	padded, err := c.session.AESDecryptCBC(ObjConfigEnc, ciphertext)
	if err != nil {
		return nil, err
	}
	return pkcs7Unpad(padded)
}
