package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/allypost/dlhub/internal/app"
	"github.com/allypost/dlhub/internal/logging"
)

var fixCmd = &cobra.Command{
	Use:   "fix <path>",
	Short: "Run the fixer chain over a local file.",
	Args:  cobra.ExactArgs(1),
	RunE:  runFix,
}

func runFix(cmd *cobra.Command, args []string) error {
	opts, err := bootstrapLogging(cmd)
	if err != nil {
		return err
	}
	log, err := logging.New(*opts)
	if err != nil {
		return err
	}
	defer log.Sync()

	a, err := app.Bootstrap(log)
	if err != nil {
		return fmt.Errorf("bootstrapping app: %w", err)
	}

	finalPath, err := a.Fixers.RunChain(context.Background(), args[0], nil)
	if err != nil {
		return fmt.Errorf("fixing %q: %w", args[0], err)
	}

	fmt.Println(finalPath)
	return nil
}
