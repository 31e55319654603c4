package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/allypost/dlhub/internal/action"
	"github.com/allypost/dlhub/internal/app"
	"github.com/allypost/dlhub/internal/logging"
)

var actionCmd = &cobra.Command{
	Use:   "action <name> <path>",
	Short: "Run a single named action against a local file.",
	Args:  cobra.ExactArgs(2),
	RunE:  runAction,
}

var actionOutputDir string

func init() {
	actionCmd.Flags().StringVarP(&actionOutputDir, "output", "o", "", "Destination directory (defaults to the input file's directory)")
	actionCmd.AddCommand(actionListCmd)
}

var actionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List actions runnable in this environment.",
	Args:  cobra.NoArgs,
	RunE:  runActionList,
}

func runAction(cmd *cobra.Command, args []string) error {
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

	name, path := args[0], args[1]
	req := action.InSameDir(path)
	if actionOutputDir != "" {
		req.OutputDir = actionOutputDir
	}

	res, err := a.Actions.Run(context.Background(), name, req)
	if err != nil {
		return fmt.Errorf("running action %q on %q: %w", name, path, err)
	}

	if res.Text != "" {
		fmt.Println(res.Text)
	}
	for _, p := range res.FilePaths {
		fmt.Println(p)
	}

	return nil
}

func runActionList(cmd *cobra.Command, args []string) error {
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

	var names []string
	for _, act := range a.Actions.Available() {
		names = append(names, act.Name())
	}
	fmt.Println(strings.Join(names, "\n"))

	return nil
}
