package handlers

import (
	"context"
	"regexp"

	"github.com/allypost/dlhub/internal/extract"
)

var tumblrHostRegex = regexp.MustCompile(`(?i)\.tumblr\.com$`)

// Tumblr matches any *.tumblr.com URL and delegates to Twitter's
// screenshot pathway, since Tumblr posts have no stable public media API
// worth scraping. Grounded on handlers/tumblr.rs.
type Tumblr struct {
	Twitter Twitter
}

func (Tumblr) Name() string        { return "tumblr" }
func (Tumblr) Description() string { return "Renders a Tumblr post via the screenshot service." }

func (Tumblr) CanHandle(_ context.Context, req extract.Request) bool {
	host, ok := hostOf(req.URL)
	return ok && tumblrHostRegex.MatchString(host)
}

func (t Tumblr) ExtractInfo(_ context.Context, req extract.Request) (extract.Info, error) {
	return extract.Info{
		Request: req,
		URLs:    []extract.Url{t.Twitter.screenshotURL(req.URL)},
	}, nil
}
