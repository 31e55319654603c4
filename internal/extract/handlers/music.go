package handlers

import (
	"context"
	"strings"

	"github.com/allypost/dlhub/internal/extract"
)

var musicHosts = []string{"spotify", "qobuz", "tidal", "apple", "deezer"}

// Music matches any URL whose host contains one of the known streaming
// providers and defers to the music downloader's provider chain.
// Grounded on handlers/music.rs.
type Music struct{}

func (Music) Name() string        { return "music" }
func (Music) Description() string { return "Passes streaming-service links to the music downloader." }

func (Music) CanHandle(_ context.Context, req extract.Request) bool {
	host, ok := hostOf(req.URL)
	if !ok {
		return false
	}
	for _, h := range musicHosts {
		if strings.Contains(host, h) {
			return true
		}
	}
	return false
}

func (Music) ExtractInfo(_ context.Context, req extract.Request) (extract.Info, error) {
	return extract.Info{
		Request: req,
		URLs: []extract.Url{
			{URL: req.URL, PreferredDownloader: "music"},
		},
	}, nil
}
