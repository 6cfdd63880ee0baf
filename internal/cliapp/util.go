package cliapp

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/nxp-qmc/qmc2g-core/internal/logger"
)

// defaultStateDirRoot returns $XDG_STATE_HOME/qmcd, or
// $HOME/.local/state/qmcd if unset.
func defaultStateDirRoot() string {
	stateDir := os.Getenv("XDG_STATE_HOME")
	if stateDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join("/tmp", "qmcd")
		}
		stateDir = filepath.Join(homeDir, ".local", "state")
	}
	return filepath.Join(stateDir, "qmcd")
}

// defaultStateDir returns a component subdirectory under the default
// state root, e.g. defaultStateDir("configstore").
func defaultStateDir(component string) string {
	return filepath.Join(defaultStateDirRoot(), component)
}

// defaultConfigPath returns $XDG_CONFIG_HOME/qmcd/config.yaml, or
// $HOME/.config/qmcd/config.yaml if unset.
func defaultConfigPath() string {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join("/tmp", "qmcd", "config.yaml")
		}
		configDir = filepath.Join(homeDir, ".config")
	}
	return filepath.Join(configDir, "qmcd", "config.yaml")
}

func defaultPidFile() string {
	return filepath.Join(defaultStateDirRoot(), "qmcd.pid")
}

func defaultLogFile() string {
	return filepath.Join(defaultStateDirRoot(), "qmcd.log")
}

// initLogger initializes the package-level structured logger from cfg.
func initLogger(cfg logger.Config) error {
	if err := logger.Init(cfg); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}
