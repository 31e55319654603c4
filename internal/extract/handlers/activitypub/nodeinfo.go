package activitypub

import (
	"context"
	"fmt"
	"net/url"

	"github.com/allypost/dlhub/internal/httpclient"
)

type nodeInfoLinks struct {
	Links []struct {
		Rel  string `json:"rel"`
		Href string `json:"href"`
	} `json:"links"`
}

type nodeInfoDoc struct {
	Software struct {
		Name string `json:"name"`
	} `json:"software"`
}

// DiscoverSoftware fetches /.well-known/nodeinfo for postURL's host,
// follows the highest-version nodeinfo link, and returns software.name
// (e.g. "mastodon", "misskey", "sharkey"). Grounded on node_info.rs.
func DiscoverSoftware(ctx context.Context, http *httpclient.Client, postURL string) (string, error) {
	u, err := url.Parse(postURL)
	if err != nil {
		return "", fmt.Errorf("activitypub: parsing %q: %w", postURL, err)
	}

	wellKnown := fmt.Sprintf("%s://%s/.well-known/nodeinfo", u.Scheme, u.Host)

	var links nodeInfoLinks
	if _, err := http.DoJSON(ctx, httpclient.Request{URL: wellKnown}, &links); err != nil {
		return "", fmt.Errorf("activitypub: fetching nodeinfo discovery doc: %w", err)
	}

	href := latestNodeInfoLink(links)
	if href == "" {
		return "", fmt.Errorf("activitypub: no nodeinfo link at %s", wellKnown)
	}

	var doc nodeInfoDoc
	if _, err := http.DoJSON(ctx, httpclient.Request{URL: href}, &doc); err != nil {
		return "", fmt.Errorf("activitypub: fetching nodeinfo document: %w", err)
	}

	if doc.Software.Name == "" {
		return "", fmt.Errorf("activitypub: nodeinfo document missing software.name")
	}
	return doc.Software.Name, nil
}

// latestNodeInfoLink prefers the highest nodeinfo schema version
// (2.1 over 2.0 over 1.x), matching the order instances typically list.
func latestNodeInfoLink(links nodeInfoLinks) string {
	preferredRels := []string{
		"http://nodeinfo.diaspora.software/ns/schema/2.1",
		"http://nodeinfo.diaspora.software/ns/schema/2.0",
		"http://nodeinfo.diaspora.software/ns/schema/1.1",
		"http://nodeinfo.diaspora.software/ns/schema/1.0",
	}
	for _, rel := range preferredRels {
		for _, l := range links.Links {
			if l.Rel == rel {
				return l.Href
			}
		}
	}
	if len(links.Links) > 0 {
		return links.Links[0].Href
	}
	return ""
}
