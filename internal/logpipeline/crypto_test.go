package logpipeline

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha512"
	"crypto/x509"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testKeyProvider is a software-only KeyProvider for test purposes,
// standing in for the secure-element-backed implementation: real
// RSA-OAEP for key wrapping and a real ECDSA-P384 signature, so a
// round trip through EncryptRecord exercises the actual primitives.
type testKeyProvider struct {
	rsaPriv *rsa.PrivateKey
	ecPriv  *ecdsa.PrivateKey
}

func newTestKeyProvider(t *testing.T) *testKeyProvider {
	t.Helper()
	rsaPriv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	ecPriv, err := ecdsa.GenerateKey(elliptic.P384(), rand.Reader)
	require.NoError(t, err)
	return &testKeyProvider{rsaPriv: rsaPriv, ecPriv: ecPriv}
}

func (k *testKeyProvider) RandomIVAndKey() (iv [ivSize]byte, key [aesKeySize]byte, err error) {
	if _, err = rand.Read(iv[:]); err != nil {
		return
	}
	_, err = rand.Read(key[:])
	return
}

func (k *testKeyProvider) EncryptKeyIV(keyIV []byte) ([]byte, error) {
	return rsa.EncryptOAEP(sha512.New384(), rand.Reader, &k.rsaPriv.PublicKey, keyIV, nil)
}

func (k *testKeyProvider) Sign(digest []byte) ([]byte, error) {
	return ecdsa.SignASN1(rand.Reader, k.ecPriv, digest)
}

func (k *testKeyProvider) decryptKeyIV(t *testing.T, enc []byte) []byte {
	t.Helper()
	plain, err := rsa.DecryptOAEP(sha512.New384(), rand.Reader, k.rsaPriv, enc, nil)
	require.NoError(t, err)
	return plain
}

func TestEncryptRecordRoundTrip(t *testing.T) {
	kp := newTestKeyProvider(t)
	rec := Record{Data: FaultWithIDData{
		Source:    SourceFaultHandling,
		Category:  CategoryFault,
		EventCode: EventOverCurrent,
		ID:        2,
	}}

	enc, err := EncryptRecord(rec, kp)
	require.NoError(t, err)
	assert.Equal(t, uint32(len(enc.RecordEnc)), enc.Length)

	keyIV := kp.decryptKeyIV(t, enc.KeyIVEnc)
	require.Len(t, keyIV, ivSize+aesKeySize)
	iv := keyIV[:ivSize]
	key := keyIV[ivSize:]

	block, err := aes.NewCipher(key)
	require.NoError(t, err)
	plain := make([]byte, len(enc.RecordEnc))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plain, enc.RecordEnc)

	assert.Equal(t, byte(RecordFaultWithID), plain[22])

	digestInput := append(append([]byte{}, enc.KeyIVEnc...), enc.RecordEnc...)
	digest := sha512.Sum384(digestInput)
	pub, err := x509.MarshalPKIXPublicKey(&kp.ecPriv.PublicKey)
	require.NoError(t, err)
	require.NotEmpty(t, pub)
	assert.True(t, ecdsa.VerifyASN1(&kp.ecPriv.PublicKey, digest[:], enc.Signature))
}

func TestEncryptRecordPadsToBlockSize(t *testing.T) {
	kp := newTestKeyProvider(t)
	rec := Record{Data: SystemData{Source: SourceLoggingService, EventCode: EventNoFault}}

	enc, err := EncryptRecord(rec, kp)
	require.NoError(t, err)
	assert.Equal(t, 0, len(enc.RecordEnc)%aes.BlockSize)
}
