// Package music implements the Music downloader: a small ordered chain
// of streaming-provider sub-handlers, the first of which claims the URL.
// Grounded on downloaders/handlers/music/mod.rs.
package music

import (
	"context"
	"fmt"

	"github.com/allypost/dlhub/internal/corerr"
	"github.com/allypost/dlhub/internal/download"
)

// Provider is one streaming-service sub-handler.
type Provider interface {
	Supports(rawURL string) bool
	Download(ctx context.Context, req download.Request) (download.Result, error)
}

// Downloader dispatches to the first provider whose Supports agrees.
type Downloader struct {
	Providers []Provider
}

func (Downloader) Name() string        { return "music" }
func (Downloader) Description() string { return "Downloads tracks from streaming-service providers." }
func (Downloader) CanRun() bool        { return true }

func (d Downloader) CanDownload(_ context.Context, req download.Request) bool {
	for _, p := range d.Providers {
		if p.Supports(req.URL) {
			return true
		}
	}
	return false
}

func (d Downloader) Download(ctx context.Context, req download.Request) (download.Result, error) {
	for _, p := range d.Providers {
		if p.Supports(req.URL) {
			return p.Download(ctx, req)
		}
	}
	return download.Result{}, corerr.Wrap(corerr.ErrNotApplicable, fmt.Errorf("music: no provider supports %q", req.URL))
}
