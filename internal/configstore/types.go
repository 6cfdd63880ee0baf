// Package configstore implements the keyed configuration cell store: a
// fixed set of named slots (network parameters, cloud connection
// settings, the message-of-the-day, and the user account table) held in
// a RAM shadow and committed to durable, encrypted-at-rest storage on
// demand.
package configstore

import "strings"

// MaxValueLen bounds every configuration cell's value, ported from
// CONFIG_MAX_VALUE_LEN. The defining header only uses the symbol, never
// a literal; 256 is a documented judgment call sized to comfortably hold
// a UserConfig record (see below) and a handful of password history
// hashes.
const MaxValueLen = 256

// Key identifies a configuration cell, ported field-for-field from
// api_configuration.h's config_id_t.
type Key uint16

const (
	KeyNone Key = 0x00

	KeyCloud1Parameters    Key = 0x01
	KeyCloud2Parameters    Key = 0x02
	KeyIP                  Key = 0x03
	KeyIPMask              Key = 0x04
	KeyIPGateway           Key = 0x05
	KeyIPDNS               Key = 0x06
	KeyMACAddress          Key = 0x07
	KeyVLANID              Key = 0x08
	KeyTSNRxStreamMAC      Key = 0x09
	KeyTSNTxStreamMAC      Key = 0x0A
	KeyCloudAzureHubName   Key = 0x0B
	KeyCloudGenericHost    Key = 0x0D
	KeyCloudGenericUser    Key = 0x0E
	KeyCloudGenericPass    Key = 0x0F
	KeyCloudGenericDevice  Key = 0x10
	KeyCloudGenericPort    Key = 0x11

	KeyMOTD Key = 0x70

	KeyUserFirst Key = 0x80
	KeyUserLast  Key = 0x89

	KeyUserHashesFirst Key = 0x90
	KeyUserHashesLast  Key = 0x99
)

// keyNames maps every known key to the string name config_key_from_string
// recognizes, ported from the webservice JSON settings API's key table.
var keyNames = map[string]Key{
	"cloud1_parameters":      KeyCloud1Parameters,
	"cloud2_parameters":      KeyCloud2Parameters,
	"ip":                     KeyIP,
	"ip_mask":                KeyIPMask,
	"ip_gw":                  KeyIPGateway,
	"ip_dns":                 KeyIPDNS,
	"mac_address":            KeyMACAddress,
	"vlan_id":                KeyVLANID,
	"tsn_rx_stream_mac_addr": KeyTSNRxStreamMAC,
	"tsn_tx_stream_mac_addr": KeyTSNTxStreamMAC,
	"cloud_azure_hub_name":   KeyCloudAzureHubName,
	"cloud_generic_host":     KeyCloudGenericHost,
	"cloud_generic_user":     KeyCloudGenericUser,
	"cloud_generic_password": KeyCloudGenericPass,
	"cloud_generic_device":   KeyCloudGenericDevice,
	"cloud_generic_port":     KeyCloudGenericPort,
	"motd":                   KeyMOTD,
}

func init() {
	for i := 0; i < 10; i++ {
		keyNames[userKeyName(KeyUserFirst+Key(i))] = KeyUserFirst + Key(i)
		keyNames[userKeyName(KeyUserHashesFirst+Key(i))] = KeyUserHashesFirst + Key(i)
	}
}

func userKeyName(k Key) string {
	switch {
	case k >= KeyUserFirst && k <= KeyUserLast:
		return "user" + string(rune('1'+int(k-KeyUserFirst)))
	case k >= KeyUserHashesFirst && k <= KeyUserHashesLast:
		return "user_hashes" + string(rune('1'+int(k-KeyUserHashesFirst)))
	default:
		return ""
	}
}

// KeyFromString resolves name to its Key, or KeyNone if name is not a
// recognized configuration cell, mirroring CONFIG_GetIdfromKey.
func KeyFromString(name string) Key {
	if k, ok := keyNames[strings.ToLower(name)]; ok {
		return k
	}
	return KeyNone
}

// String is the inverse of KeyFromString, used by the settings listing
// endpoint to name each cell it returns.
func (k Key) String() string {
	if k.IsUser() || k.IsUserHashes() {
		return userKeyName(k)
	}
	for name, candidate := range keyNames {
		if candidate == k {
			return name
		}
	}
	return ""
}

// Valid reports whether k names a real configuration cell.
func (k Key) Valid() bool {
	switch {
	case k == KeyNone:
		return false
	case k >= KeyCloud1Parameters && k <= KeyCloudGenericPort:
		return true
	case k == KeyMOTD:
		return true
	case k >= KeyUserFirst && k <= KeyUserLast:
		return true
	case k >= KeyUserHashesFirst && k <= KeyUserHashesLast:
		return true
	default:
		return false
	}
}

// IsUser reports whether k is one of the ten User* account record cells.
func (k Key) IsUser() bool { return k >= KeyUserFirst && k <= KeyUserLast }

// IsUserHashes reports whether k is one of the ten UserHashes* password
// history cells.
func (k Key) IsUserHashes() bool { return k >= KeyUserHashesFirst && k <= KeyUserHashesLast }

// Field lengths for UserConfig, ported from api_usermanagement.h's
// USRMGMT_USER_NAME_MAX_LENGTH/USRMGMT_SALT_LENGTH/USRMGMT_USER_SECRET_LENGTH.
// None of the three had a retrievable literal definition (they live in a
// board-specific constants header outside the retrieval pack); the values
// below are a documented judgment call: 32-byte name, 16-byte salt, and a
// 32-byte secret sized to a PBKDF2-HMAC-SHA256 digest.
const (
	UserNameMaxLength = 32
	SaltLength        = 16
	UserSecretLength  = 32

	// HistoryHashCount mirrors api_usermanagement.c's
	// HISTORY_HASH_COUNT = CONFIG_MAX_VALUE_LEN / USRMGMT_USER_SECRET_LENGTH.
	HistoryHashCount = MaxValueLen / UserSecretLength
)

// Role identifies the privilege level, or authentication source, of a
// user account or session, ported from api_usermanagement.h's
// usrmgmt_role_t including its unauthenticated local-event roles.
type Role uint16

const (
	// RoleNone marks an unauthenticated or failed session; never stored.
	RoleNone Role = 0x0000
	// RoleEmpty marks a free User* slot.
	RoleEmpty Role = 0x0001
	RoleMaintenance Role = 0x555A
	RoleOperator    Role = 0x5A55
	// RoleLocalSD tags log entries for mechanically (not cryptographically)
	// authenticated SD card activity.
	RoleLocalSD Role = 0xAAA5
	// RoleLocalButton tags log entries for the front-panel buttons.
	RoleLocalButton Role = 0xAA5A
	// RoleLocalEmergency tags log entries for the emergency stop button.
	RoleLocalEmergency Role = 0xA5AA
)

// UserConfig is the record held in a User* configuration cell.
type UserConfig struct {
	Name             [UserNameMaxLength]byte
	Role             Role
	LockoutTimestamp uint64
	Iterations       uint32
	Salt             [SaltLength]byte
	Secret           [UserSecretLength]byte
	ValidityTimestamp uint64
}

// Occupied reports whether the slot holds a registered user, mirroring
// the invariant that role > RoleEmpty iff the slot is in use.
func (u UserConfig) Occupied() bool { return u.Role != RoleEmpty && u.Role != RoleNone }
