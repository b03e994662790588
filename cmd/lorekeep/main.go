// Package main is the entry point for the Lorekeep CLI.
package main

import (
	"fmt"
	"os"

	"github.com/lorekeep/lorekeep/internal/logging"
	"github.com/lorekeep/lorekeep/pkg/errutil"
)

// Build metadata, injected by the linker.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	cmd := NewRootCmd()
	cmd.Version = fmt.Sprintf("%s (commit %s, built %s)", version, commit, date)
	// Failures are logged below with their code and kind instead of
	// cobra's plain "Error:" line.
	cmd.SilenceErrors = true

	if err := cmd.Execute(); err != nil {
		logger := logging.Setup("lorekeep", version, "text", os.Stderr)
		errutil.LogError(logger, "command failed", err)
		os.Exit(1)
	}
}
