package handlers

import (
	"context"

	"github.com/allypost/dlhub/internal/extract"
)

// Reddit matches direct i.redd.it media links and hands them to yt-dlp's
// generic MP4/MP3 selection logic. Grounded on handlers/reddit.rs.
type Reddit struct{}

func (Reddit) Name() string        { return "reddit" }
func (Reddit) Description() string { return "Passes i.redd.it media through yt-dlp." }

func (Reddit) CanHandle(_ context.Context, req extract.Request) bool {
	host, ok := hostOf(req.URL)
	return ok && host == "i.redd.it"
}

func (Reddit) ExtractInfo(_ context.Context, req extract.Request) (extract.Info, error) {
	return extract.Info{
		Request: req,
		URLs: []extract.Url{
			{URL: req.URL, PreferredDownloader: "yt-dlp"},
		},
	}, nil
}
