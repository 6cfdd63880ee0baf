package configstore

import (
	"fmt"
	"strconv"
	"strings"
)

// defaults holds the value applied by GetStr/GetBin when a cell has never
// been set, mirroring the documented fallback every CONFIG_Get* entry
// point applies. Every entry is a judgment call in the absence of a
// retrievable defaults table; address cells default to "0.0.0.0", the
// VLAN ID to "0", and MOTD to an empty banner.
var defaults = map[Key]string{
	KeyIP:       "0.0.0.0",
	KeyIPMask:   "0.0.0.0",
	KeyIPGateway: "0.0.0.0",
	KeyIPDNS:    "0.0.0.0",
	KeyVLANID:   "0",
	KeyMOTD:     "",
}

// GetStr returns k's value as a string, applying the cell's default when
// unset, mirroring CONFIG_GetStrValueById.
func (s *Store) GetStr(k Key) (string, error) {
	raw, ok, err := s.GetBin(k)
	if err != nil {
		return "", err
	}
	if !ok {
		return defaults[k], nil
	}
	return string(raw), nil
}

// SetStr stores value as k's raw bytes, mirroring CONFIG_SetStrValueById.
func (s *Store) SetStr(k Key, value string) error {
	return s.SetBin(k, []byte(value))
}

// GetStrByName resolves name to a Key and delegates to GetStr, mirroring
// CONFIG_GetStrValue.
func (s *Store) GetStrByName(name string) (string, error) {
	k := KeyFromString(name)
	if k == KeyNone {
		return "", fmt.Errorf("key %q: %w", name, ErrUnknownKey)
	}
	return s.GetStr(k)
}

// SetStrByName resolves name to a Key and delegates to SetStr, mirroring
// CONFIG_SetStrValue.
func (s *Store) SetStrByName(name string, value string) error {
	k := KeyFromString(name)
	if k == KeyNone {
		return fmt.Errorf("key %q: %w", name, ErrUnknownKey)
	}
	return s.SetStr(k, value)
}

// GetIntFromValue parses an integer out of a configuration value string,
// mirroring CONFIG_GetIntegerFromValue.
func GetIntFromValue(value string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("parse integer value %q: %w", value, ErrParseFailed)
	}
	return n, nil
}

// SetIntAsValue renders integer as the string a configuration value cell
// should hold, mirroring CONFIG_SetIntegerAsValue.
func SetIntAsValue(integer int) string {
	return strconv.Itoa(integer)
}

// boolTrueValues/boolFalseValues enumerate the tokens
// CONFIG_GetBooleanFromValue documents as recognized, compared
// case-insensitively.
var (
	boolTrueValues  = map[string]bool{"true": true, "yes": true, "on": true, "1": true}
	boolFalseValues = map[string]bool{"false": true, "no": true, "off": true, "0": true}
)

// GetBoolFromValue parses a boolean out of a configuration value string,
// recognizing true/false, yes/no, on/off, and 1/0 case-insensitively,
// mirroring CONFIG_GetBooleanFromValue.
func GetBoolFromValue(value string) (bool, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	if boolTrueValues[v] {
		return true, nil
	}
	if boolFalseValues[v] {
		return false, nil
	}
	return false, fmt.Errorf("parse boolean value %q: %w", value, ErrParseFailed)
}

// SetBoolAsValue renders boolean as the string a configuration value cell
// should hold, mirroring CONFIG_SetBooleanAsValue.
func SetBoolAsValue(boolean bool) string {
	if boolean {
		return "true"
	}
	return "false"
}
