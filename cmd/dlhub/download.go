package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/allypost/dlhub/internal/app"
	"github.com/allypost/dlhub/internal/logging"
)

var downloadCmd = &cobra.Command{
	Use:   "download <url>",
	Short: "Extract a URL and download every resulting media file.",
	Args:  cobra.ExactArgs(1),
	RunE:  runDownload,
}

var downloadOutputDir string

func init() {
	downloadCmd.Flags().StringVarP(&downloadOutputDir, "output", "o", ".", "Destination directory")
}

func runDownload(cmd *cobra.Command, args []string) error {
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

	ctx := context.Background()
	url := args[0]

	info, err := a.Extractors.ExtractInfo(ctx, extractRequest(url))
	if err != nil {
		return fmt.Errorf("extracting %q: %w", url, err)
	}

	for _, res := range downloadAll(ctx, a, info, downloadOutputDir) {
		fmt.Println(res.FilePath)
	}

	return nil
}
