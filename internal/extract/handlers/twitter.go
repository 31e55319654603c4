package handlers

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/allypost/dlhub/internal/config"
	"github.com/allypost/dlhub/internal/corerr"
	"github.com/allypost/dlhub/internal/extract"
	"github.com/allypost/dlhub/internal/httpclient"
)

var twitterStatusRegex = regexp.MustCompile(`(?i)^(www\.|mobile\.)?(twitter|x)\.com$`)
var twitterStatusPathRegex = regexp.MustCompile(`(?i)^/[^/]+/status/(\d+)`)

const twitterGuestBearer = "AAAAAAAAAAAAAAAAAAAAANRILgAAAAAAnNwIzUejRCOuH5E6I8xnZz4puTs=1AF7D4wFMZw8j8mXHkL7PEa5Py42Q6u9Ec2hZH"
const twitterGraphQLFeatures = `{"responsive_web_graphql_timeline_navigation_enabled":true,"creator_subscriptions_tweet_preview_api_enabled":true}`
const twitterFieldToggles = `{"withArticleRichContentState":false}`

// Package vars, not consts, so tests can redirect them at an httptest
// server instead of hitting the live Twitter API.
var (
	twitterGuestActivateURL = "https://api.twitter.com/1.1/guest/activate.json"
	twitterGraphQLURL       = "https://twitter.com/i/api/graphql/0hWvDhmW8YQ-S_ib3azIrw/TweetResultByRestId"
)

// Twitter handles twitter.com/x.com tweet status URLs (and, via Tumblr's
// delegation, emits the same screenshot-service fallback for any post
// URL that doesn't resolve to a media-bearing tweet). Grounded on
// handlers/twitter.rs.
type Twitter struct {
	HTTP *httpclient.Client
}

func (Twitter) Name() string { return "twitter" }
func (Twitter) Description() string {
	return "Extracts media from a Twitter/X status, or falls back to a rendered screenshot."
}

func (Twitter) CanHandle(_ context.Context, req extract.Request) bool {
	host, ok := hostOf(req.URL)
	return ok && twitterStatusRegex.MatchString(host)
}

func (e Twitter) ExtractInfo(ctx context.Context, req extract.Request) (extract.Info, error) {
	tweetID := extractTweetID(req.URL)
	if tweetID == "" {
		return extract.Info{Request: req, URLs: []extract.Url{e.screenshotURL(req.URL)}}, nil
	}

	guestToken, cookie, err := e.activateGuestToken(ctx)
	if err != nil {
		return extract.Info{}, err
	}

	media, err := e.tweetMedia(ctx, tweetID, guestToken, cookie)
	if err != nil {
		return extract.Info{}, err
	}

	media = append(media, e.screenshotURL(req.URL))

	return extract.Info{Request: req, URLs: media}, nil
}

func extractTweetID(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	m := twitterStatusPathRegex.FindStringSubmatch(u.Path)
	if m == nil {
		return ""
	}
	return m[1]
}

func (e Twitter) screenshotURL(postURL string) extract.Url {
	base := config.ValueOf.TwitterScreenshotBaseURL
	return extract.Url{
		URL:                 base + "/" + url.PathEscape(postURL),
		PreferredDownloader: "generic",
		Timeout:             60,
	}
}

type twitterGuestActivateResponse struct {
	GuestToken string `json:"guest_token"`
}

// activateGuestToken obtains a guest token and the Set-Cookie the
// activation response carries; the original's GuestAuth{guest_token,
// cookie} pair is forwarded together on every subsequent request, since
// Twitter's API frequently 403s a guest-token request with no cookie.
func (e Twitter) activateGuestToken(ctx context.Context) (string, string, error) {
	var out twitterGuestActivateResponse
	resp, err := e.HTTP.DoJSON(ctx, httpclient.Request{
		Method:  "POST",
		URL:     twitterGuestActivateURL,
		Headers: map[string]string{"Authorization": "Bearer " + twitterGuestBearer},
	}, &out)
	if err != nil {
		return "", "", corerr.Wrap(corerr.ErrTransient, fmt.Errorf("twitter: activating guest token: %w", err))
	}
	return out.GuestToken, cookieHeaderFrom(resp.Header.Values("Set-Cookie")), nil
}

// cookieHeaderFrom turns a response's Set-Cookie values into a single
// Cookie header value, keeping only each cookie's name=value pair.
func cookieHeaderFrom(setCookies []string) string {
	parts := make([]string, 0, len(setCookies))
	for _, sc := range setCookies {
		nameValue, _, _ := strings.Cut(sc, ";")
		parts = append(parts, strings.TrimSpace(nameValue))
	}
	return strings.Join(parts, "; ")
}

func (e Twitter) tweetMedia(ctx context.Context, tweetID, guestToken, cookie string) ([]extract.Url, error) {
	variables := fmt.Sprintf(`{"tweetId":"%s","withCommunity":false,"includePromotedContent":false,"withVoice":false}`, tweetID)

	q := url.Values{}
	q.Set("variables", variables)
	q.Set("features", twitterGraphQLFeatures)
	q.Set("fieldToggles", twitterFieldToggles)

	reqURL := twitterGraphQLURL + "?" + q.Encode()

	headers := map[string]string{
		"Authorization": "Bearer " + twitterGuestBearer,
		"x-guest-token": guestToken,
		"Content-Type":  "application/json",
	}
	if cookie != "" {
		headers["Cookie"] = cookie
	}

	var out twitterTweetResultResponse
	_, err := e.HTTP.DoJSON(ctx, httpclient.Request{
		URL:     reqURL,
		Headers: headers,
	}, &out)
	if err != nil {
		return nil, corerr.Wrap(corerr.ErrTransient, fmt.Errorf("twitter: GraphQL TweetResultByRestId: %w", err))
	}

	media := out.Data.TweetResult.Result.Legacy.ExtendedEntities.Media
	urls := make([]extract.Url, 0, len(media))
	for _, m := range media {
		switch m.Type {
		case "photo":
			if m.MediaURLHTTPS != "" {
				urls = append(urls, extract.Url{URL: m.MediaURLHTTPS})
			}
		case "video", "animated_gif":
			if best := bestVariant(m.VideoInfo.Variants); best != "" {
				urls = append(urls, extract.Url{URL: best})
			}
		}
	}
	return urls, nil
}

func bestVariant(variants []twitterVideoVariant) string {
	var bestURL string
	var bestBitrate int
	for _, v := range variants {
		if v.ContentType != "video/mp4" {
			continue
		}
		if v.Bitrate >= bestBitrate {
			bestBitrate = v.Bitrate
			bestURL = v.URL
		}
	}
	return bestURL
}

type twitterTweetResultResponse struct {
	Data struct {
		TweetResult struct {
			Result struct {
				Legacy struct {
					ExtendedEntities struct {
						Media []twitterMedia `json:"media"`
					} `json:"extended_entities"`
				} `json:"legacy"`
			} `json:"result"`
		} `json:"tweetResult"`
	} `json:"data"`
}

type twitterMedia struct {
	Type          string `json:"type"`
	MediaURLHTTPS string `json:"media_url_https"`
	VideoInfo     struct {
		Variants []twitterVideoVariant `json:"variants"`
	} `json:"video_info"`
}

type twitterVideoVariant struct {
	Bitrate     int    `json:"bitrate"`
	ContentType string `json:"content_type"`
	URL         string `json:"url"`
}
