package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/allypost/dlhub/internal/app"
	"github.com/allypost/dlhub/internal/config"
	"github.com/allypost/dlhub/internal/extract"
	"github.com/allypost/dlhub/internal/logging"
)

var extractCmd = &cobra.Command{
	Use:   "extract <url>",
	Short: "Resolve a URL to its downloadable media URLs.",
	Args:  cobra.ExactArgs(1),
	RunE:  runExtract,
}

func runExtract(cmd *cobra.Command, args []string) error {
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

	url := args[0]
	if cached, ok := a.Cache.Get(url); ok {
		return printJSON(cached)
	}

	info, err := a.Extractors.ExtractInfo(context.Background(), extract.Request{URL: url})
	if err != nil {
		return fmt.Errorf("extracting %q: %w", url, err)
	}

	if err := a.Cache.Set(url, info, config.ValueOf.ExtractCacheTTLSeconds); err != nil {
		log.Sugar().Warnw("failed to cache extraction", "url", url, "error", err)
	}

	return printJSON(info)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
