package cliapp

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigApplyDefaultsFillsZeroValues(t *testing.T) {
	cfg := Config{DeviceID: "qmc2g-001"}
	cfg.applyDefaults()

	assert.Equal(t, "INFO", cfg.Logger.Level)
	assert.Equal(t, "json", cfg.Logger.Format)
	assert.Equal(t, "stdout", cfg.Logger.Output)
	assert.NotEmpty(t, cfg.ConfigStore.Dir)
	assert.NotEmpty(t, cfg.LogPipeline.FlashDir)
	assert.Equal(t, 32, cfg.CommandQueueLen)
	assert.Equal(t, uint64(1<<20), cfg.LogPipeline.AreaLength)
	assert.Equal(t, 16, cfg.Fault.QueueLen)
}

func TestConfigApplyDefaultsPreservesExplicitValues(t *testing.T) {
	cfg := Config{
		DeviceID:        "qmc2g-001",
		CommandQueueLen: 8,
	}
	cfg.ConfigStore.Dir = "/custom/store"
	cfg.applyDefaults()

	assert.Equal(t, "/custom/store", cfg.ConfigStore.Dir)
	assert.Equal(t, 8, cfg.CommandQueueLen)
}

func TestLoadConfigRejectsMissingDeviceID(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("fw_version: \"1.0\"\n"), 0o600))

	_, err := loadConfig(path)
	assert.Error(t, err)
}

func TestLoadConfigParsesAndAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("device_id: qmc2g-001\n"), 0o600))

	cfg, err := loadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "qmc2g-001", cfg.DeviceID)
	assert.Equal(t, "INFO", cfg.Logger.Level)
}

func TestWriteSampleConfigRefusesToOverwriteWithoutForce(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, writeSampleConfig(path, false))

	err := writeSampleConfig(path, false)
	assert.Error(t, err)

	require.NoError(t, writeSampleConfig(path, true))
}
