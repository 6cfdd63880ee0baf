// Package cliapp implements the qmcd command-line interface: wiring the
// core Quad Motor Controller packages (internal/motorbus, internal/fault,
// internal/board, internal/logpipeline, internal/lifecycle,
// internal/usermgmt, internal/configstore) into the REST and MQTT outer
// surfaces and running them as a daemon.
package cliapp

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	// Version information injected at build time via -ldflags.
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"

	cfgFile string
)

var rootCmd = &cobra.Command{
	Use:   "qmcd",
	Short: "QMC2G quad motor controller daemon",
	Long: `qmcd is the Quad Motor Controller (QMC2G) device daemon. It wires the
motor bus, fault handler, board service, log pipeline, lifecycle state
machine, and user manager into the REST and MQTT surfaces the rest of the
system (a local operator, a fleet management cloud) talks to.

Use "qmcd [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. Called once from main.main.
func Execute() error {
	return rootCmd.Execute()
}

// GetRootCmd returns the root command, for testing.
func GetRootCmd() *cobra.Command {
	return rootCmd
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $XDG_CONFIG_HOME/qmcd/config.yaml)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(startCmd)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("qmcd %s (commit %s, built %s)\n", Version, Commit, Date)
	},
}

// GetConfigFile returns the --config flag value, empty if unset.
func GetConfigFile() string {
	return cfgFile
}

// configFileOrDefault resolves --config against the XDG default path.
func configFileOrDefault() string {
	if cfgFile != "" {
		return cfgFile
	}
	return defaultConfigPath()
}

// PrintErr prints an error to stderr.
func PrintErr(format string, args ...any) {
	rootCmd.PrintErrf(format+"\n", args...)
}

// Exit prints an error and exits with code 1.
func Exit(format string, args ...any) {
	PrintErr(format, args...)
	os.Exit(1)
}
