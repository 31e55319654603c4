package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/allypost/dlhub/internal/corerr"
	"github.com/allypost/dlhub/internal/extract"
	"github.com/allypost/dlhub/internal/httpclient"
)

var (
	tiktokHostRegex     = regexp.MustCompile(`(?i)(^|\.)tiktok\.com$`)
	tiktokRehydrationRe = regexp.MustCompile(`(?s)<script[^>]*id="__UNIVERSAL_DATA_FOR_REHYDRATION__"[^>]*>(.*?)</script>`)
	tiktokDesktopUA     = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"
)

// TikTok matches tiktok.com/@... pages (e.g. /@user/video/<id>), captures the
// tt_chain_token cookie and navigates the rehydration payload for the
// direct playAddr. Grounded on handlers/tiktok.rs.
type TikTok struct {
	HTTP *httpclient.Client
}

func (TikTok) Name() string        { return "tiktok" }
func (TikTok) Description() string { return "Extracts the direct video URL from a TikTok post." }

func (TikTok) CanHandle(_ context.Context, req extract.Request) bool {
	host, ok := hostOf(req.URL)
	if !ok || !tiktokHostRegex.MatchString(host) {
		return false
	}
	u, err := url.Parse(req.URL)
	return err == nil && strings.HasPrefix(u.Path, "/@")
}

func (e TikTok) ExtractInfo(ctx context.Context, req extract.Request) (extract.Info, error) {
	resp, err := e.HTTP.Do(ctx, httpclient.Request{
		URL:     req.URL,
		Headers: mergeHeaders(req.Headers, map[string]string{"User-Agent": tiktokDesktopUA}),
	})
	if err != nil {
		return extract.Info{}, corerr.Wrap(corerr.ErrTransient, fmt.Errorf("tiktok: fetching page: %w", err))
	}
	defer resp.Body.Close()

	var chainToken string
	for _, c := range resp.Cookies() {
		if c.Name == "tt_chain_token" {
			chainToken = c.Value
			break
		}
	}

	body, err := readAndCheck(resp)
	if err != nil {
		return extract.Info{}, corerr.Wrap(corerr.ErrTransient, fmt.Errorf("tiktok: reading page: %w", err))
	}

	m := tiktokRehydrationRe.FindSubmatch(body)
	if m == nil {
		return extract.Info{}, corerr.Wrap(corerr.ErrPermanent, fmt.Errorf("tiktok: rehydration script not found"))
	}

	var payload tiktokRehydrationPayload
	if err := json.Unmarshal(m[1], &payload); err != nil {
		return extract.Info{}, corerr.Wrap(corerr.ErrPermanent, fmt.Errorf("tiktok: decoding rehydration JSON: %w", err))
	}

	playAddr := payload.DefaultScope.WebappVideoDetail.ItemInfo.ItemStruct.Video.PlayAddr
	if playAddr == "" {
		return extract.Info{}, corerr.Wrap(corerr.ErrPermanent, fmt.Errorf("tiktok: playAddr not found"))
	}

	headers := map[string]string{
		"Referer":    req.URL,
		"User-Agent": tiktokDesktopUA,
	}
	if chainToken != "" {
		headers["Cookie"] = "tt_chain_token=" + chainToken
	}

	return extract.Info{
		Request: req,
		URLs: []extract.Url{
			{URL: playAddr, Headers: headers},
		},
	}, nil
}

type tiktokRehydrationPayload struct {
	DefaultScope struct {
		WebappVideoDetail struct {
			ItemInfo struct {
				ItemStruct struct {
					Video struct {
						PlayAddr string `json:"playAddr"`
					} `json:"video"`
				} `json:"itemStruct"`
			} `json:"itemInfo"`
		} `json:"webapp.video-detail"`
	} `json:"__DEFAULT_SCOPE__"`
}
