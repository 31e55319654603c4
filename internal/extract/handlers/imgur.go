package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/allypost/dlhub/internal/corerr"
	"github.com/allypost/dlhub/internal/extract"
	"github.com/allypost/dlhub/internal/httpclient"
)

var (
	imgurHostRegex     = regexp.MustCompile(`(?i)^(www\.)?imgur\.com$`)
	imgurDirectRegex   = regexp.MustCompile(`(?i)^i\.imgur\.com$`)
	imgurPostDataRegex = regexp.MustCompile(`window\.postDataJSON\s*=\s*(".*?")\s*;?\s*</script>`)
)

// Imgur handles imgur.com post pages and i.imgur.com direct media links.
// Grounded on handlers/imgur.rs.
type Imgur struct {
	HTTP *httpclient.Client
}

func (Imgur) Name() string { return "imgur" }
func (Imgur) Description() string {
	return "Extracts media URLs from an Imgur post or passes through a direct i.imgur.com link."
}

func (e Imgur) CanHandle(_ context.Context, req extract.Request) bool {
	host, ok := hostOf(req.URL)
	if !ok {
		return false
	}
	return imgurHostRegex.MatchString(host) || imgurDirectRegex.MatchString(host)
}

func (e Imgur) ExtractInfo(ctx context.Context, req extract.Request) (extract.Info, error) {
	host, _ := hostOf(req.URL)
	if imgurDirectRegex.MatchString(host) {
		return extract.Info{
			Request: req,
			URLs:    []extract.Url{{URL: req.URL}},
		}, nil
	}

	body, _, err := e.HTTP.ReadAll(ctx, httpclient.Request{URL: req.URL, Headers: req.Headers})
	if err != nil {
		return extract.Info{}, corerr.Wrap(corerr.ErrTransient, fmt.Errorf("imgur: fetching post: %w", err))
	}

	media, err := parseImgurPostData(string(body))
	if err != nil {
		return extract.Info{}, corerr.Wrap(corerr.ErrPermanent, fmt.Errorf("imgur: %w", err))
	}

	urls := make([]extract.Url, 0, len(media))
	for _, m := range media {
		urls = append(urls, extract.Url{URL: m.URL})
	}

	return extract.Info{Request: req, URLs: urls}, nil
}

type imgurMediaItem struct {
	URL string `json:"url"`
}

type imgurPostData struct {
	Media []imgurMediaItem `json:"media"`
}

// parseImgurPostData locates window.postDataJSON="..." in the page HTML
// and decodes the doubly-encoded JSON it carries. Imgur sometimes
// escapes single quotes incorrectly inside that string, which breaks the
// outer decode; unescaping \' to ' before that first decode rescues it,
// falling back to the raw capture if unescaping wasn't actually needed.
func parseImgurPostData(html string) ([]imgurMediaItem, error) {
	m := imgurPostDataRegex.FindStringSubmatch(html)
	if m == nil {
		return nil, fmt.Errorf("window.postDataJSON not found in page")
	}

	var inner string
	unescaped := strings.ReplaceAll(m[1], `\'`, `'`)
	if err := json.Unmarshal([]byte(unescaped), &inner); err != nil {
		if err := json.Unmarshal([]byte(m[1]), &inner); err != nil {
			return nil, fmt.Errorf("decoding outer JSON string: %w", err)
		}
	}

	var data imgurPostData
	if err := json.Unmarshal([]byte(inner), &data); err != nil {
		return nil, fmt.Errorf("decoding postDataJSON payload: %w", err)
	}
	return data.Media, nil
}
