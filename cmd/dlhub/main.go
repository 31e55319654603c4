// Command dlhub is the CLI delivery surface: it wires the core
// registries (extract/download/fix/action) and the task queue into a
// one-shot or interactive command. Grounded on
// cmd/fsb/{root,run}.go's cobra root + Load(log, cmd) startup sequence.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/allypost/dlhub/internal/config"
	"github.com/allypost/dlhub/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:   "dlhub",
	Short: "Extracts, downloads, fixes, and post-processes media from a URL.",
}

func main() {
	config.SetFlagsFromConfig(rootCmd)

	rootCmd.AddCommand(extractCmd, downloadCmd, fixCmd, actionCmd, doCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// bootstrapLogging runs the teacher's two-phase init: a permissive
// bootstrap logger before config is loaded, then a reconfigured one once
// the real level/format are known.
func bootstrapLogging(cmd *cobra.Command) (*logging.Options, error) {
	log := logging.Bootstrap()
	if err := config.Load(log, cmd); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return &logging.Options{
		Level:    config.ValueOf.LogLevel,
		JSON:     config.ValueOf.LogJSON,
		FilePath: config.ValueOf.LogFile,
	}, nil
}
