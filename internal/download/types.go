// Package download implements the downloader registry: a closed set of
// handlers selected either by the extractor's preferred_downloader hint
// or by first-match scan, each turning a Request into a file on disk.
package download

import (
	"context"
)

// Request mirrors extract.Url plus the caller's target directory; it is
// the input a delivery surface builds from an extracted URL.
type Request struct {
	URL                 string
	Headers             map[string]string
	PreferredDownloader string
	Options             map[string]any
	OutputDir           string
	// TimeoutSeconds, when non-zero, bounds the whole download.
	TimeoutSeconds int
}

// Result is what a successful download produces.
type Result struct {
	FilePath string
	// Downloader names which handler actually ran, useful when
	// PreferredDownloader fell through (e.g. yt-dlp -> generic).
	Downloader string
}

// Downloader is implemented by every registry member.
type Downloader interface {
	Name() string
	Description() string
	// CanRun reports whether the handler's external dependencies
	// (binaries on PATH, etc.) are present.
	CanRun() bool
	CanDownload(ctx context.Context, req Request) bool
	Download(ctx context.Context, req Request) (Result, error)
}
