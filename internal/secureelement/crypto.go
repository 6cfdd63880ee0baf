package secureelement

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/hmac"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/subtle"
	"fmt"
	"io"
	"math/big"

	"golang.org/x/crypto/pbkdf2"
)

// Random returns n cryptographically secure random bytes, mirroring
// mbedtls_se_entropy_poll's sss_rng_get_random call (capped there at 32
// bytes per poll; this package has no such cap since it isn't feeding
// an mbedTLS entropy accumulator).
func (s *Session) Random(n int) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireOpen(); err != nil {
		return nil, err
	}

	buf := make([]byte, n)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		return nil, fmt.Errorf("secure element random: %w", err)
	}
	return buf, nil
}

// AESEncryptCBC encrypts plaintext under the object's AES key with a
// fresh random IV, returning iv||ciphertext. plaintext must already be
// block-aligned (PKCS#7 padding is the caller's concern, matching the
// element's raw block-cipher object semantics).
func (s *Session) AESEncryptCBC(id ObjectID, plaintext []byte) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireOpen(); err != nil {
		return nil, err
	}

	key, ok := s.km.SymmetricKey(id)
	if !ok {
		return nil, ErrObjectNotFound
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("secure element aes key: %w", err)
	}
	if len(plaintext)%aes.BlockSize != 0 {
		return nil, fmt.Errorf("secure element aes plaintext not block-aligned: %w", ErrInputTooShort)
	}

	out := make([]byte, aes.BlockSize+len(plaintext))
	iv := out[:aes.BlockSize]
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return nil, fmt.Errorf("secure element iv: %w", err)
	}
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(out[aes.BlockSize:], plaintext)
	return out, nil
}

// AESDecryptCBC reverses AESEncryptCBC.
func (s *Session) AESDecryptCBC(id ObjectID, ivAndCiphertext []byte) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireOpen(); err != nil {
		return nil, err
	}
	if len(ivAndCiphertext) < aes.BlockSize || (len(ivAndCiphertext)-aes.BlockSize)%aes.BlockSize != 0 {
		return nil, ErrInputTooShort
	}

	key, ok := s.km.SymmetricKey(id)
	if !ok {
		return nil, ErrObjectNotFound
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("secure element aes key: %w", err)
	}

	iv := ivAndCiphertext[:aes.BlockSize]
	ciphertext := ivAndCiphertext[aes.BlockSize:]
	out := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(out, ciphertext)
	return out, nil
}

// HMACSHA256 returns HMAC-SHA256(data) under the object's symmetric key.
func (s *Session) HMACSHA256(id ObjectID, data []byte) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireOpen(); err != nil {
		return nil, err
	}

	key, ok := s.km.SymmetricKey(id)
	if !ok {
		return nil, ErrObjectNotFound
	}
	mac := hmac.New(sha256.New, key)
	mac.Write(data)
	return mac.Sum(nil), nil
}

// VerifyHMACSHA256 constant-time-compares mac against HMACSHA256(id, data).
func (s *Session) VerifyHMACSHA256(id ObjectID, data, mac []byte) (bool, error) {
	want, err := s.HMACSHA256(id, data)
	if err != nil {
		return false, err
	}
	return subtle.ConstantTimeCompare(want, mac) == 1, nil
}

// PBKDF2 derives keyLen bytes from passphrase via PBKDF2-HMAC-SHA256,
// the host-side KDF mbedtls_se_entropy_poll's caller relies on the
// element only for entropy, not for the KDF itself.
func (s *Session) PBKDF2(passphrase, salt []byte, iterations, keyLen int) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireOpen(); err != nil {
		return nil, err
	}
	return pbkdf2.Key(passphrase, salt, iterations, keyLen, sha256.New), nil
}

// RSAOAEPEncrypt encrypts plaintext under the object's RSA public key
// using OAEP with SHA-384, matching the log-export key-wrap scheme.
func (s *Session) RSAOAEPEncrypt(id ObjectID, plaintext []byte) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireOpen(); err != nil {
		return nil, err
	}

	modulus, exponent, ok := s.km.RSAPublicKey(id)
	if !ok {
		return nil, ErrObjectNotFound
	}
	pub := &rsa.PublicKey{N: new(big.Int).SetBytes(modulus), E: exponent}
	return rsa.EncryptOAEP(sha512.New384(), rand.Reader, pub, plaintext, nil)
}

// RSAOAEPDecrypt reverses RSAOAEPEncrypt using the object's private
// key, for the (uncommon) case where this device itself holds the
// reader's key pair rather than a remote log-collection station.
func (s *Session) RSAOAEPDecrypt(id ObjectID, ciphertext []byte) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireOpen(); err != nil {
		return nil, err
	}

	priv, ok := s.km.RSAPrivateKey(id)
	if !ok {
		return nil, ErrObjectNotFound
	}
	return rsa.DecryptOAEP(sha512.New384(), rand.Reader, priv, ciphertext, nil)
}

// SHA384 returns the SHA-384 digest of data.
func (s *Session) SHA384(data []byte) [sha512.Size384]byte {
	return sha512.Sum384(data)
}

// ECDSASign signs digest (already hashed by the caller, typically with
// SHA384) under the object's device key pair, matching the P-384
// attestation keys se_session.h provisions under idDevIdKeyPair et al.
func (s *Session) ECDSASign(id ObjectID, digest []byte) (r, sig []byte, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireOpen(); err != nil {
		return nil, nil, err
	}

	priv, ok := s.km.DeviceKeyPair(id)
	if !ok {
		return nil, nil, ErrObjectNotFound
	}
	rr, ss, err := ecdsa.Sign(rand.Reader, priv, digest)
	if err != nil {
		return nil, nil, fmt.Errorf("secure element ecdsa sign: %w", err)
	}
	return rr.Bytes(), ss.Bytes(), nil
}

// ECDSAVerify verifies an (r, s) signature over digest against the
// object's public key.
func (s *Session) ECDSAVerify(id ObjectID, digest, r, sigS []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireOpen(); err != nil {
		return err
	}

	priv, ok := s.km.DeviceKeyPair(id)
	if !ok {
		return ErrObjectNotFound
	}
	rr := new(big.Int).SetBytes(r)
	ss := new(big.Int).SetBytes(sigS)
	if !ecdsa.Verify(&priv.PublicKey, digest, rr, ss) {
		return ErrVerifyFailed
	}
	return nil
}

// curve is the element's attestation curve for device identity keys,
// matching idDevIdKeyPair/idAwdtDevIdKeyPair's NIST P-384 family
// members (se_session.h documents BrainpoolP512r1 and NISTP-256 for
// different objects; P-384 is the curve spec §4.5 names for log
// signing, so it is what this package standardizes the device key
// pair helper on).
var curve = elliptic.P384()

// Curve exposes the attestation curve for callers generating or
// importing KeyMaterial device key pairs.
func Curve() elliptic.Curve { return curve }
