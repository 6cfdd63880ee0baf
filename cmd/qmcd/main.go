// Command qmcd runs the QMC2G quad motor controller daemon.
package main

import (
	"os"

	"github.com/nxp-qmc/qmc2g-core/internal/cliapp"
)

// Build-time variables injected via ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	cliapp.Version = version
	cliapp.Commit = commit
	cliapp.Date = date

	if err := cliapp.Execute(); err != nil {
		cliapp.PrintErr("error: %v", err)
		os.Exit(1)
	}
}
