package main

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/allypost/dlhub/internal/app"
	"github.com/allypost/dlhub/internal/logging"
)

var doCmd = &cobra.Command{
	Use:   "do [url]",
	Short: "Extract, download, and fix every resulting file in one pass.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runDo,
}

var doOutputDir string

func init() {
	doCmd.Flags().StringVarP(&doOutputDir, "output", "o", ".", "Destination directory")
}

func runDo(cmd *cobra.Command, args []string) error {
	opts, err := bootstrapLogging(cmd)
	if err != nil {
		return err
	}
	log, err := logging.New(*opts)
	if err != nil {
		return err
	}
	defer log.Sync()

	url, err := resolveURLArg(args)
	if err != nil {
		return err
	}

	a, err := app.Bootstrap(log)
	if err != nil {
		return fmt.Errorf("bootstrapping app: %w", err)
	}

	ctx := context.Background()

	info, err := a.Extractors.ExtractInfo(ctx, extractRequest(url))
	if err != nil {
		return fmt.Errorf("extracting %q: %w", url, err)
	}

	for _, res := range downloadAll(ctx, a, info, doOutputDir) {
		finalPath, err := a.Fixers.RunChain(ctx, res.FilePath, nil)
		if err != nil {
			fmt.Fprintf(os.Stderr, "fixing %s failed: %v\n", res.FilePath, err)
			finalPath = res.FilePath
		}

		fmt.Println(finalPath)
	}

	return nil
}

// resolveURLArg returns args[0] if given; otherwise, when stdin is a
// terminal, prompts interactively via huh.
func resolveURLArg(args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}

	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return "", fmt.Errorf("no URL given and stdin is not a terminal")
	}

	var url string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("URL to process").
				Value(&url).
				Validate(func(s string) error {
					if s == "" {
						return fmt.Errorf("a URL is required")
					}
					return nil
				}),
		),
	)
	if err := form.Run(); err != nil {
		return "", fmt.Errorf("reading URL: %w", err)
	}

	return url, nil
}
