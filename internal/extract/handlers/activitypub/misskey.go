package activitypub

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/allypost/dlhub/internal/corerr"
	"github.com/allypost/dlhub/internal/extract"
	"github.com/allypost/dlhub/internal/httpclient"
)

type misskeyNote struct {
	URL    string `json:"url"`
	URI    string `json:"uri"`
	Files  []struct {
		URL  string `json:"url"`
		Type string `json:"type"`
	} `json:"files"`
	Renote *misskeyNote `json:"renote"`
}

// Misskey resolves a note via the api/notes/show RPC, used by both
// Misskey and its forks (Sharkey, Firefish) which share the endpoint
// shape. A renote is replaced by the note it renotes; when the canonical
// url of that note is on a different host, it is returned as Delegated
// (the uri field is not consulted). Grounded on handlers/activity_pub/misskey.rs.
type Misskey struct {
	HTTP     *httpclient.Client
	software string
}

func NewMisskey(http *httpclient.Client) Misskey  { return Misskey{HTTP: http, software: "misskey"} }
func NewSharkey(http *httpclient.Client) Misskey  { return Misskey{HTTP: http, software: "sharkey"} }
func NewFirefish(http *httpclient.Client) Misskey { return Misskey{HTTP: http, software: "firefish"} }

func (m Misskey) Software() string { return m.software }

func (m Misskey) Resolve(ctx context.Context, postURL string) (Resolution, error) {
	u, err := url.Parse(postURL)
	if err != nil {
		return Resolution{}, corerr.Wrap(corerr.ErrPermanent, fmt.Errorf("misskey: parsing %q: %w", postURL, err))
	}

	id := path.Base(strings.TrimSuffix(u.Path, "/"))
	apiURL := fmt.Sprintf("%s://%s/api/notes/show", u.Scheme, u.Host)

	resp, err := m.HTTP.PostJSON(ctx, apiURL, nil, map[string]any{"noteId": id})
	if err != nil {
		return Resolution{}, corerr.Wrap(corerr.ErrTransient, fmt.Errorf("misskey: fetching note %s: %w", id, err))
	}
	defer resp.Body.Close()

	var note misskeyNote
	if err := json.NewDecoder(resp.Body).Decode(&note); err != nil {
		return Resolution{}, corerr.Wrap(corerr.ErrPermanent, fmt.Errorf("misskey: decoding note %s: %w", id, err))
	}

	if note.Renote != nil {
		if canonical := note.Renote.URL; canonical != "" && HostOf(canonical) != u.Hostname() {
			return Resolution{Delegated: canonical}, nil
		}
		note = *note.Renote
	}

	if canonical := note.URL; canonical != "" && HostOf(canonical) != u.Hostname() {
		return Resolution{Delegated: canonical}, nil
	}

	var urls []extract.Url
	for _, f := range note.Files {
		if f.URL == "" {
			continue
		}
		urls = append(urls, extract.Url{URL: f.URL})
	}

	if len(urls) == 0 {
		return Resolution{}, corerr.Wrap(corerr.ErrNotApplicable, fmt.Errorf("misskey: note %s has no files", id))
	}

	return Resolution{Handled: urls}, nil
}
