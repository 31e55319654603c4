// Package activitypub implements the ActivityPub extractor: nodeinfo
// discovery dispatches to a per-software sub-handler (Mastodon, Misskey/
// Sharkey), each of which may resolve the post directly or delegate to
// another instance (federation). The outer loop here bounds delegation
// hops and detects cycles. Grounded on
// extractors/handlers/activity_pub/{mod,node_info,mastodon,misskey}.rs.
package activitypub

import (
	"context"
	"fmt"
	"net/url"

	"github.com/allypost/dlhub/internal/config"
	"github.com/allypost/dlhub/internal/corerr"
	"github.com/allypost/dlhub/internal/extract"
	"github.com/allypost/dlhub/internal/httpclient"
)

// Resolution is what a sub-handler returns for one post.
type Resolution struct {
	// Handled, when non-nil, is the final list of media URLs.
	Handled []extract.Url
	// Delegated, when non-empty, redirects resolution to another
	// instance/URL (the post is federated from elsewhere).
	Delegated string
}

// SubHandler resolves one post URL against a known ActivityPub software.
type SubHandler interface {
	// Software is the nodeinfo software.name this handler answers for.
	Software() string
	Resolve(ctx context.Context, postURL string) (Resolution, error)
}

// Extractor is the ActivityPub extractor itself: it discovers the
// server's software via nodeinfo, then follows delegation up to
// config.ValueOf.ActivityPubMaxHops, aborting on a cycle.
type Extractor struct {
	HTTP        *httpclient.Client
	SubHandlers []SubHandler
}

func New(http *httpclient.Client, subHandlers ...SubHandler) *Extractor {
	return &Extractor{HTTP: http, SubHandlers: subHandlers}
}

func (Extractor) Name() string { return "activitypub" }
func (Extractor) Description() string {
	return "Resolves a Mastodon/Misskey-family post via nodeinfo discovery."
}

func (e *Extractor) CanHandle(ctx context.Context, req extract.Request) bool {
	_, err := DiscoverSoftware(ctx, e.HTTP, req.URL)
	return err == nil
}

func (e *Extractor) ExtractInfo(ctx context.Context, req extract.Request) (extract.Info, error) {
	maxHops := config.ValueOf.ActivityPubMaxHops
	if maxHops <= 0 {
		maxHops = 10
	}

	visited := make(map[string]struct{}, maxHops)
	current := req.URL

	for hop := 0; hop < maxHops; hop++ {
		if _, seen := visited[current]; seen {
			return extract.Info{}, corerr.Wrap(corerr.ErrPermanent, fmt.Errorf("activitypub: delegation cycle detected at %s", current))
		}
		visited[current] = struct{}{}

		software, err := DiscoverSoftware(ctx, e.HTTP, current)
		if err != nil {
			return extract.Info{}, corerr.Wrap(corerr.ErrTransient, fmt.Errorf("activitypub: nodeinfo discovery for %s: %w", current, err))
		}

		handler := e.handlerFor(software)
		if handler == nil {
			return extract.Info{}, corerr.Wrap(corerr.ErrNotApplicable, fmt.Errorf("activitypub: unsupported software %q", software))
		}

		res, err := handler.Resolve(ctx, current)
		if err != nil {
			return extract.Info{}, err
		}

		if res.Delegated != "" {
			current = res.Delegated
			continue
		}

		return extract.Info{Request: req, URLs: res.Handled}, nil
	}

	return extract.Info{}, corerr.Wrap(corerr.ErrPermanent, fmt.Errorf("activitypub: exceeded %d delegation hops", maxHops))
}

func (e *Extractor) handlerFor(software string) SubHandler {
	for _, h := range e.SubHandlers {
		if h.Software() == software {
			return h
		}
	}
	return nil
}

// HostOf is shared with sub-handlers for canonical-URL host comparisons.
func HostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
