package secureelement

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
)

type fakeKeyMaterial struct {
	uid        [SEUIDLength]byte
	symmetric  map[ObjectID][]byte
	deviceKeys map[ObjectID]*ecdsa.PrivateKey
	rsaKeys    map[ObjectID]*rsa.PrivateKey
}

func newFakeKeyMaterial() *fakeKeyMaterial {
	km := &fakeKeyMaterial{
		symmetric:  make(map[ObjectID][]byte),
		deviceKeys: make(map[ObjectID]*ecdsa.PrivateKey),
		rsaKeys:    make(map[ObjectID]*rsa.PrivateKey),
	}
	for i := range km.uid {
		km.uid[i] = byte(0xA0 + i)
	}

	configKey := make([]byte, 32)
	for i := range configKey {
		configKey[i] = byte(i)
	}
	km.symmetric[ObjConfigEnc] = configKey

	devKey, err := ecdsa.GenerateKey(elliptic.P384(), rand.Reader)
	if err != nil {
		panic(err)
	}
	km.deviceKeys[ObjDevIDKeyPair] = devKey

	rsaKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		panic(err)
	}
	km.rsaKeys[ObjLogReaderIDPubKey] = rsaKey

	return km
}

func (k *fakeKeyMaterial) SCP03Keys() (enc, mac, dek [ScpKeyLength]byte) {
	return
}

func (k *fakeKeyMaterial) UID() [SEUIDLength]byte { return k.uid }

func (k *fakeKeyMaterial) SymmetricKey(id ObjectID) ([]byte, bool) {
	v, ok := k.symmetric[id]
	return v, ok
}

func (k *fakeKeyMaterial) DeviceKeyPair(id ObjectID) (*ecdsa.PrivateKey, bool) {
	v, ok := k.deviceKeys[id]
	return v, ok
}

func (k *fakeKeyMaterial) RSAPublicKey(id ObjectID) ([]byte, int, bool) {
	v, ok := k.rsaKeys[id]
	if !ok {
		return nil, 0, false
	}
	return v.PublicKey.N.Bytes(), v.PublicKey.E, true
}

func (k *fakeKeyMaterial) RSAPrivateKey(id ObjectID) (*rsa.PrivateKey, bool) {
	v, ok := k.rsaKeys[id]
	return v, ok
}
