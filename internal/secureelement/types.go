// Package secureelement models the SE051 secure-element session the
// QMC2G core authenticates through for every cryptographic operation
// that must not touch host memory in the clear: random generation,
// the configuration-at-rest key, the log-export sealing keys, and the
// device identity keypair used to sign attestation records.
//
// On hardware, the tunnel to the element is opened once via an SCP03
// handshake derived from PUF-reconstructed static keys and serialized
// behind a single mutex for the lifetime of the process. This package
// reproduces that session shape and serialization in software, with
// the actual key material supplied by an injected KeyMaterial
// collaborator rather than a physical chip.
package secureelement

import (
	"crypto/ecdsa"
	"crypto/rsa"
)

// ObjectID identifies a key or file stored under the element, mirroring
// the qmc_se_key_ids enumeration.
type ObjectID uint32

const (
	ObjFirmwareMinRevision    ObjectID = 0x00000001
	ObjManifestMinRevision    ObjectID = 0x00000002
	ObjOemCaCert              ObjectID = 0x00000003
	ObjOemCaPubKey            ObjectID = 0x00000004
	ObjCustomerCaCert         ObjectID = 0x00000005
	ObjCustomerCaPubKey       ObjectID = 0x00000006
	ObjLogReaderIDCert        ObjectID = 0x00000007
	ObjLogReaderIDPubKey      ObjectID = 0x00000008
	ObjFwUpdateIssuerIDCert   ObjectID = 0x00000009
	ObjFwUpdateIssuerIDPubKey ObjectID = 0x0000000A
	ObjAwdtSignerIDCert       ObjectID = 0x0000000B
	ObjAwdtSignerIDPubKey     ObjectID = 0x0000000C
	ObjFwUpdateCreatorIDCert  ObjectID = 0x0000000D
	ObjFwUpdateCreatorIDPubKey ObjectID = 0x0000000E
	ObjCloud1ServerCaCert     ObjectID = 0x0000000F
	ObjCloud1ServerCaPubKey   ObjectID = 0x00000010
	ObjCloud2ServerCaCert     ObjectID = 0x00000011
	ObjCloud2ServerCaPubKey   ObjectID = 0x00000012
	ObjDevIDCert              ObjectID = 0x00000013
	ObjDevIDKeyPair           ObjectID = 0x00000014
	ObjAwdtDevIDCert          ObjectID = 0x00000015
	ObjAwdtDevIDKeyPair       ObjectID = 0x00000016
	ObjCloud1DevCert          ObjectID = 0x00000017
	ObjCloud1DevKeyPair       ObjectID = 0x00000018
	ObjCloud2DevCert          ObjectID = 0x00000019
	ObjCloud2DevKeyPair       ObjectID = 0x0000001A
	ObjCertRevocationList     ObjectID = 0x0000001B
	ObjSblAuthObject          ObjectID = 0x0000001C
	ObjSblAuthObjectFirstRun  ObjectID = 0x0000001D
	ObjAppAuthObject          ObjectID = 0x0000001E
	ObjAppAuthObjectFirstRun  ObjectID = 0x0000001F
	ObjConfigEnc              ObjectID = 0x00000020
	ObjMetaDataEnc            ObjectID = 0x00000021
	ObjAwdtServerIDCert       ObjectID = 0x00000022
	ObjAwdtServerIDPubKey     ObjectID = 0x00000023
	ObjWebServerIDCert        ObjectID = 0x00000024
	ObjWebServerIDKeyPair     ObjectID = 0x00000025
	ObjDeviceIDFull           ObjectID = 0x00000026
	ObjDeviceIDShort          ObjectID = 0x00000027
	ObjDefaultUser            ObjectID = 0x00000028
)

// SEUIDLength is the byte length of the element's unique identifier,
// ported from se_session.c's SE_UID_MAX_LEN.
const SEUIDLength = 18

// ScpKeyLength is the width of each SCP03 static key (ENC/MAC/DEK),
// ported from se_session.c's SCP_KEY_LENGTH.
const ScpKeyLength = 16

// KeyMaterial supplies everything that would, on real hardware, be
// reconstructed from the element's PUF and never leave it: the SCP03
// triplet used to open the authenticated tunnel, the element's unique
// ID, and the symmetric/asymmetric objects addressed by ObjectID.
// Production wiring backs this with the board's PUF driver; tests back
// it with fixed bytes.
type KeyMaterial interface {
	SCP03Keys() (enc, mac, dek [ScpKeyLength]byte)
	UID() [SEUIDLength]byte
	SymmetricKey(id ObjectID) ([]byte, bool)
	DeviceKeyPair(id ObjectID) (*ecdsa.PrivateKey, bool)
	RSAPublicKey(id ObjectID) (modulus []byte, exponent int, ok bool)
	// RSAPrivateKey is only needed by components that decrypt an
	// RSA-OAEP wrap on-device (e.g. a local log reader); the normal
	// log-export path only ever calls RSAPublicKey to encrypt for an
	// off-device holder of the matching private key.
	RSAPrivateKey(id ObjectID) (*rsa.PrivateKey, bool)
}
