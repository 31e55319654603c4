package handlers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/allypost/dlhub/internal/extract"
)

// withTwitterEndpoints redirects the guest-activation and GraphQL URLs at
// srv for the duration of the test, restoring the live endpoints after.
func withTwitterEndpoints(t *testing.T, srv *httptest.Server) {
	t.Helper()
	origActivate, origGraphQL := twitterGuestActivateURL, twitterGraphQLURL
	twitterGuestActivateURL = srv.URL + "/guest/activate.json"
	twitterGraphQLURL = srv.URL + "/graphql/TweetResultByRestId"
	t.Cleanup(func() {
		twitterGuestActivateURL, twitterGraphQLURL = origActivate, origGraphQL
	})
}

func TestTwitterExtractInfoAppendsScreenshotAlongsideMedia(t *testing.T) {
	var gotCookie string
	mux := http.NewServeMux()
	mux.HandleFunc("/guest/activate.json", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "guest_id", Value: "abc123"})
		fmt.Fprint(w, `{"guest_token":"tok-1"}`)
	})
	mux.HandleFunc("/graphql/TweetResultByRestId", func(w http.ResponseWriter, r *http.Request) {
		gotCookie = r.Header.Get("Cookie")
		fmt.Fprint(w, `{"data":{"tweetResult":{"result":{"legacy":{"extended_entities":{"media":[
			{"type":"photo","media_url_https":"https://pbs.twimg.com/media/abc.jpg"}
		]}}}}}}`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	withTwitterEndpoints(t, srv)

	e := Twitter{HTTP: newTestHTTPClient()}
	info, err := e.ExtractInfo(context.Background(), extract.Request{URL: "https://twitter.com/user/status/123456"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotCookie != "guest_id=abc123" {
		t.Errorf("GraphQL request Cookie header = %q, want forwarded guest_id", gotCookie)
	}

	if len(info.URLs) != 2 {
		t.Fatalf("URLs = %+v, want real media plus a trailing screenshot URL", info.URLs)
	}
	if info.URLs[0].URL != "https://pbs.twimg.com/media/abc.jpg" {
		t.Errorf("URLs[0] = %+v, want the real tweet media first", info.URLs[0])
	}
	if info.URLs[1].PreferredDownloader != "generic" {
		t.Errorf("URLs[1] = %+v, want the screenshot-service fallback", info.URLs[1])
	}
}

func TestTwitterExtractInfoFallsBackWithoutTweetID(t *testing.T) {
	e := Twitter{HTTP: newTestHTTPClient()}
	info, err := e.ExtractInfo(context.Background(), extract.Request{URL: "https://twitter.com/user"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(info.URLs) != 1 || info.URLs[0].PreferredDownloader != "generic" {
		t.Errorf("URLs = %+v, want only the screenshot fallback", info.URLs)
	}
}

func TestCookieHeaderFrom(t *testing.T) {
	got := cookieHeaderFrom([]string{
		"guest_id=abc123; Path=/; Domain=.twitter.com; Secure",
		"personalization_id=\"v1_xyz\"; Path=/",
	})
	want := `guest_id=abc123; personalization_id="v1_xyz"`
	if got != want {
		t.Errorf("cookieHeaderFrom() = %q, want %q", got, want)
	}
}

func TestCookieHeaderFromEmpty(t *testing.T) {
	if got := cookieHeaderFrom(nil); got != "" {
		t.Errorf("cookieHeaderFrom(nil) = %q, want empty", got)
	}
}

func TestExtractTweetID(t *testing.T) {
	cases := map[string]string{
		"https://twitter.com/user/status/123456": "123456",
		"https://x.com/user/status/987654?s=20":  "987654",
		"https://twitter.com/user":                "",
		"::not a url::":                           "",
	}
	for rawURL, want := range cases {
		if got := extractTweetID(rawURL); got != want {
			t.Errorf("extractTweetID(%q) = %q, want %q", rawURL, got, want)
		}
	}
}

func TestBestVariantPicksHighestBitrateMP4(t *testing.T) {
	variants := []twitterVideoVariant{
		{ContentType: "application/x-mpegURL", Bitrate: 0, URL: "https://example.com/index.m3u8"},
		{ContentType: "video/mp4", Bitrate: 256000, URL: "https://example.com/low.mp4"},
		{ContentType: "video/mp4", Bitrate: 832000, URL: "https://example.com/high.mp4"},
	}
	if got := bestVariant(variants); got != "https://example.com/high.mp4" {
		t.Errorf("bestVariant() = %q, want the highest-bitrate mp4", got)
	}
}

func TestTwitterCanHandle(t *testing.T) {
	e := Twitter{}
	cases := map[string]bool{
		"https://twitter.com/user/status/1": true,
		"https://x.com/user/status/1":       true,
		"https://mobile.twitter.com/user":   true,
		"https://example.com":               false,
	}
	for rawURL, want := range cases {
		if got := e.CanHandle(context.Background(), extract.Request{URL: rawURL}); got != want {
			t.Errorf("CanHandle(%q) = %v, want %v", rawURL, got, want)
		}
	}
}
