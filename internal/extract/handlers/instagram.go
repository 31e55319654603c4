package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"

	"github.com/allypost/dlhub/internal/corerr"
	"github.com/allypost/dlhub/internal/extract"
	"github.com/allypost/dlhub/internal/httpclient"
)

var instagramPostRegex = regexp.MustCompile(`(?i)^/(p|reel)/([A-Za-z0-9_-]+)`)

const instagramDocID = "8845758582119845"

// Instagram matches /(p|reel)/<post_id> and issues a fixed GraphQL POST to
// walk the XDTGraphVideo | XDTGraphImage | XDTGraphSidecar tagged union,
// flattening sidecar children recursively. Grounded on handlers/instagram.rs.
type Instagram struct {
	HTTP *httpclient.Client
}

func (Instagram) Name() string        { return "instagram" }
func (Instagram) Description() string { return "Extracts media from an Instagram post or reel." }

func (Instagram) CanHandle(_ context.Context, req extract.Request) bool {
	host, ok := hostOf(req.URL)
	if !ok || host != "instagram.com" && host != "www.instagram.com" {
		return false
	}
	u, err := url.Parse(req.URL)
	if err != nil {
		return false
	}
	return instagramPostRegex.MatchString(u.Path)
}

func (e Instagram) ExtractInfo(ctx context.Context, req extract.Request) (extract.Info, error) {
	u, _ := url.Parse(req.URL)
	m := instagramPostRegex.FindStringSubmatch(u.Path)
	shortcode := m[2]

	variables := fmt.Sprintf(`{"shortcode":"%s","fetch_comment_count":0,"fetch_related_profile_media_count":0,"parent_comment_count":0,"child_comment_count":0,"fetch_like_count":0,"fetch_tagged_user_count":null,"fetch_preview_comment_count":0,"has_threaded_comments":false,"hoisted_comment_id":null,"hoisted_reply_id":null}`, shortcode)

	form := url.Values{}
	form.Set("variables", variables)
	form.Set("doc_id", instagramDocID)
	form.Set("server_timestamps", "true")

	resp, err := e.HTTP.PostForm(ctx, "https://www.instagram.com/graphql/query", nil, form)
	if err != nil {
		return extract.Info{}, corerr.Wrap(corerr.ErrTransient, fmt.Errorf("instagram: GraphQL request: %w", err))
	}
	defer resp.Body.Close()

	body, err := readAndCheck(resp)
	if err != nil {
		return extract.Info{}, corerr.Wrap(corerr.ErrTransient, fmt.Errorf("instagram: GraphQL response: %w", err))
	}

	var out instagramGraphQLResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return extract.Info{}, corerr.Wrap(corerr.ErrPermanent, fmt.Errorf("instagram: decoding GraphQL response: %w", err))
	}

	if out.Data.Media == nil {
		return extract.Info{}, corerr.Wrap(corerr.ErrPermanent, fmt.Errorf("instagram: post not found or private"))
	}

	urls := flattenInstagramMedia(*out.Data.Media)
	return extract.Info{Request: req, URLs: urls}, nil
}

type instagramGraphQLResponse struct {
	Data struct {
		Media *instagramMediaNode `json:"xdt_shortcode_media"`
	} `json:"data"`
}

// instagramMediaNode models the XDTGraphVideo | XDTGraphImage |
// XDTGraphSidecar tagged union via its Typename discriminator.
type instagramMediaNode struct {
	Typename    string `json:"__typename"`
	VideoURL    string `json:"video_url"`
	DisplayURL  string `json:"display_url"`
	EdgeSidecar struct {
		Edges []struct {
			Node instagramMediaNode `json:"node"`
		} `json:"edges"`
	} `json:"edge_sidecar_to_children"`
}

func flattenInstagramMedia(node instagramMediaNode) []extract.Url {
	switch node.Typename {
	case "XDTGraphVideo":
		if node.VideoURL != "" {
			return []extract.Url{{URL: node.VideoURL}}
		}
		return nil
	case "XDTGraphImage":
		if node.DisplayURL != "" {
			return []extract.Url{{URL: node.DisplayURL}}
		}
		return nil
	case "XDTGraphSidecar":
		var urls []extract.Url
		for _, edge := range node.EdgeSidecar.Edges {
			urls = append(urls, flattenInstagramMedia(edge.Node)...)
		}
		return urls
	default:
		return nil
	}
}
