package cliapp

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/nxp-qmc/qmc2g-core/internal/configstore"
	"github.com/nxp-qmc/qmc2g-core/internal/logger"
)

// configSeal builds the configstore.SealProvider for cfg. A configured
// seal_key_hex is decoded and used directly; an empty one falls back to a
// fresh random key logged once at startup, suitable for development but
// not for a device that must survive a restart with its stored
// configuration intact. Production images are expected to derive this key
// from internal/secureelement instead (see DESIGN.md's Open Question
// decision on why that wiring was deferred).
func configSeal(cfg ConfigStoreConfig) (configstore.SealProvider, error) {
	if cfg.SealKeyHex == "" {
		var key [32]byte
		if _, err := rand.Read(key[:]); err != nil {
			return nil, fmt.Errorf("generating ephemeral seal key: %w", err)
		}
		logger.Warn("no config_store.seal_key_hex set, generated an ephemeral seal key; "+
			"the config store will not be readable across restarts",
			logger.Component("cliapp"))
		return configstore.NewAESGCMSeal(key), nil
	}

	raw, err := hex.DecodeString(cfg.SealKeyHex)
	if err != nil {
		return nil, fmt.Errorf("decoding seal_key_hex: %w", err)
	}
	if len(raw) != 32 {
		return nil, fmt.Errorf("seal_key_hex must decode to 32 bytes, got %d", len(raw))
	}
	var key [32]byte
	copy(key[:], raw)
	return configstore.NewAESGCMSeal(key), nil
}
