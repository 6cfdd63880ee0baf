package cliapp

import (
	"fmt"

	"github.com/spf13/cobra"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a sample configuration file",
	Long: `Write a sample qmcd configuration file.

By default the file is created at $XDG_CONFIG_HOME/qmcd/config.yaml. Use
--config to choose a different path.

Examples:
  qmcd init
  qmcd init --config /etc/qmcd/config.yaml
  qmcd init --force`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing config file")
}

func runInit(cmd *cobra.Command, args []string) error {
	path := configFileOrDefault()
	if err := writeSampleConfig(path, initForce); err != nil {
		return fmt.Errorf("failed to initialize config: %w", err)
	}

	cmd.Printf("Configuration file created at: %s\n", path)
	cmd.Println("\nNext steps:")
	cmd.Println("  1. Edit the configuration file for your device ID, storage paths, and cloud credentials")
	cmd.Printf("  2. Start the daemon: qmcd start --config %s\n", path)
	cmd.Println("\nSecurity note:")
	cmd.Println("  config_store.seal_key_hex is empty by default, so each restart reseals the")
	cmd.Println("  configuration store with a fresh random key (development only). Set a fixed")
	cmd.Println("  64-hexchar key for a device that must retain its configuration across restarts:")
	cmd.Println("    openssl rand -hex 32")

	return nil
}
