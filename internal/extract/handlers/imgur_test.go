package handlers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/allypost/dlhub/internal/extract"
	"github.com/allypost/dlhub/internal/httpclient"
)

func newTestHTTPClient() *httpclient.Client {
	return httpclient.New(httpclient.Options{}, zap.NewNop())
}

func TestParseImgurPostDataRescuesMisescapedSingleQuotes(t *testing.T) {
	// Imgur sometimes emits \' instead of ' inside the raw captured text,
	// which breaks the outer json.Unmarshal before the unescape ever runs
	// against it. This is a real capture shape, not a synthetic one.
	html := `<script>window.postDataJSON="{\"media\":[{\"url\":\"https://i.imgur.com/abc.jpg\"}],\"title\":\"Rick\'s post\"}";</script>`

	media, err := parseImgurPostData(html)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(media) != 1 || media[0].URL != "https://i.imgur.com/abc.jpg" {
		t.Fatalf("media = %+v", media)
	}
}

func TestParseImgurPostDataHandlesCleanlyEscapedInput(t *testing.T) {
	html := `<script>window.postDataJSON="{\"media\":[{\"url\":\"https://i.imgur.com/def.png\"}]}";</script>`

	media, err := parseImgurPostData(html)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(media) != 1 || media[0].URL != "https://i.imgur.com/def.png" {
		t.Fatalf("media = %+v", media)
	}
}

func TestParseImgurPostDataMissing(t *testing.T) {
	if _, err := parseImgurPostData("<html><body>nothing here</body></html>"); err == nil {
		t.Fatal("expected error when window.postDataJSON is absent")
	}
}

func TestImgurExtractInfoParsesPostPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<script>window.postDataJSON="{\"media\":[{\"url\":\"https://i.imgur.com/xyz.mp4\"}]}";</script>`)
	}))
	t.Cleanup(srv.Close)

	e := Imgur{HTTP: newTestHTTPClient()}
	info, err := e.ExtractInfo(context.Background(), extract.Request{URL: srv.URL + "/gallery/abc"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(info.URLs) != 1 || info.URLs[0].URL != "https://i.imgur.com/xyz.mp4" {
		t.Errorf("URLs = %+v", info.URLs)
	}
}

func TestImgurExtractInfoPassesThroughDirectLink(t *testing.T) {
	e := Imgur{HTTP: newTestHTTPClient()}
	info, err := e.ExtractInfo(context.Background(), extract.Request{URL: "https://i.imgur.com/abc.jpg"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(info.URLs) != 1 || info.URLs[0].URL != "https://i.imgur.com/abc.jpg" {
		t.Errorf("URLs = %+v", info.URLs)
	}
}

func TestImgurCanHandle(t *testing.T) {
	e := Imgur{}
	cases := map[string]bool{
		"https://imgur.com/gallery/abc": true,
		"https://www.imgur.com/a/abc":   true,
		"https://i.imgur.com/abc.jpg":   true,
		"https://example.com/imgur.com": false,
		"::not a url::":                 false,
	}
	for rawURL, want := range cases {
		if got := e.CanHandle(context.Background(), extract.Request{URL: rawURL}); got != want {
			t.Errorf("CanHandle(%q) = %v, want %v", rawURL, got, want)
		}
	}
}
