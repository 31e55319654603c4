package activitypub

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/allypost/dlhub/internal/corerr"
	"github.com/allypost/dlhub/internal/extract"
	"github.com/allypost/dlhub/internal/httpclient"
)

type mastodonStatus struct {
	URL             string `json:"url"`
	URI             string `json:"uri"`
	MediaAttachments []struct {
		URL        string `json:"url"`
		RemoteURL  string `json:"remote_url"`
		PreviewURL string `json:"preview_url"`
	} `json:"media_attachments"`
	Reblog *mastodonStatus `json:"reblog"`
}

// Mastodon resolves a status via the public REST API. A boosted
// ("reblogged") status is replaced by the status it boosts. When the
// canonical url of that status points at a different host than was
// requested, it is returned as a Delegated resolution so the outer loop
// re-discovers nodeinfo for that host; the uri field is not consulted.
// Grounded on handlers/activity_pub/mastodon.rs.
type Mastodon struct {
	HTTP *httpclient.Client
}

func (Mastodon) Software() string { return "mastodon" }

func (m Mastodon) Resolve(ctx context.Context, postURL string) (Resolution, error) {
	u, err := url.Parse(postURL)
	if err != nil {
		return Resolution{}, corerr.Wrap(corerr.ErrPermanent, fmt.Errorf("mastodon: parsing %q: %w", postURL, err))
	}

	id := path.Base(strings.TrimSuffix(u.Path, "/"))
	apiURL := fmt.Sprintf("%s://%s/api/v1/statuses/%s", u.Scheme, u.Host, id)

	var status mastodonStatus
	if _, err := m.HTTP.DoJSON(ctx, httpclient.Request{URL: apiURL}, &status); err != nil {
		return Resolution{}, corerr.Wrap(corerr.ErrTransient, fmt.Errorf("mastodon: fetching status %s: %w", apiURL, err))
	}

	if status.Reblog != nil {
		if canonical := status.Reblog.URL; canonical != "" && HostOf(canonical) != u.Hostname() {
			return Resolution{Delegated: canonical}, nil
		}
		status = *status.Reblog
	}

	if canonical := status.URL; canonical != "" && HostOf(canonical) != u.Hostname() {
		return Resolution{Delegated: canonical}, nil
	}

	var urls []extract.Url
	for _, att := range status.MediaAttachments {
		media := att.URL
		if media == "" {
			media = att.RemoteURL
		}
		if media == "" {
			continue
		}
		urls = append(urls, extract.Url{URL: media})
	}

	if len(urls) == 0 {
		return Resolution{}, corerr.Wrap(corerr.ErrNotApplicable, fmt.Errorf("mastodon: status %s has no media attachments", apiURL))
	}

	return Resolution{Handled: urls}, nil
}
