package music

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"

	"github.com/allypost/dlhub/internal/corerr"
	"github.com/allypost/dlhub/internal/download"
	"github.com/allypost/dlhub/internal/httpclient"
)

var spotifyTrackRegex = regexp.MustCompile(`/track/([A-Za-z0-9]+)`)

// Spotifydown handles spotify.com track links via the spotifydown API,
// then hands the resolved direct link to the Generic downloader.
// Grounded on downloaders/handlers/music/spotifydown.rs.
type Spotifydown struct {
	HTTP    *httpclient.Client
	Generic download.Downloader
}

func (Spotifydown) Supports(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return u.Hostname() == "open.spotify.com" || u.Hostname() == "spotify.com"
}

type spotifydownResponse struct {
	Link    string `json:"link"`
	Message string `json:"message"`
}

func (s Spotifydown) Download(ctx context.Context, req download.Request) (download.Result, error) {
	u, err := url.Parse(req.URL)
	if err != nil {
		return download.Result{}, corerr.Wrap(corerr.ErrPermanent, fmt.Errorf("spotifydown: parsing %q: %w", req.URL, err))
	}
	m := spotifyTrackRegex.FindStringSubmatch(u.Path)
	if m == nil {
		return download.Result{}, corerr.Wrap(corerr.ErrNotApplicable, fmt.Errorf("spotifydown: %q is not a track link", req.URL))
	}
	trackID := m[1]

	apiURL := fmt.Sprintf("https://api.spotifydown.com/download/%s", trackID)
	headers := map[string]string{
		"Origin":  "https://spotifydown.com",
		"Referer": "https://spotifydown.com/",
	}

	body, _, err := s.HTTP.ReadAll(ctx, httpclient.Request{URL: apiURL, Headers: headers})
	if err != nil {
		return download.Result{}, corerr.Wrap(corerr.ErrTransient, fmt.Errorf("spotifydown: requesting %s: %w", apiURL, err))
	}

	var out spotifydownResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return download.Result{}, corerr.Wrap(corerr.ErrPermanent, fmt.Errorf("spotifydown: decoding response: %w", err))
	}

	if out.Link == "" {
		return download.Result{}, corerr.Wrap(corerr.ErrTransient, fmt.Errorf("spotifydown: %s", out.Message))
	}

	downloadReq := req
	downloadReq.URL = out.Link
	return s.Generic.Download(ctx, downloadReq)
}
