package main

import (
	"context"
	"fmt"
	"os"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/allypost/dlhub/internal/app"
	"github.com/allypost/dlhub/internal/config"
	"github.com/allypost/dlhub/internal/download"
	"github.com/allypost/dlhub/internal/extract"
)

// downloadAll hands every URL an extraction produced to the downloader
// registry concurrently, bounded by config.ValueOf.MaxConcurrentDownloads.
// Failures are reported but don't stop sibling downloads.
func downloadAll(ctx context.Context, a *app.App, info extract.Info, outputDir string) []download.Result {
	limit := config.ValueOf.MaxConcurrentDownloads
	if limit <= 0 {
		limit = 1
	}

	var (
		mu      sync.Mutex
		results []download.Result
		g, gctx = errgroup.WithContext(ctx)
	)
	g.SetLimit(limit)

	for _, u := range info.URLs {
		u := u
		g.Go(func() error {
			res, err := a.Downloads.Download(gctx, download.Request{
				URL:                 u.URL,
				Headers:             u.Headers,
				PreferredDownloader: u.PreferredDownloader,
				OutputDir:           outputDir,
				TimeoutSeconds:      u.Timeout,
			})
			if err != nil {
				fmt.Fprintf(os.Stderr, "download failed for %s: %v\n", u.URL, err)
				return nil
			}

			mu.Lock()
			results = append(results, res)
			mu.Unlock()
			return nil
		})
	}

	_ = g.Wait()
	return results
}
