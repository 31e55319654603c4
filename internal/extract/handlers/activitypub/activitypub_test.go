package activitypub

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/allypost/dlhub/internal/config"
	"github.com/allypost/dlhub/internal/corerr"
	"github.com/allypost/dlhub/internal/extract"
	"github.com/allypost/dlhub/internal/httpclient"
)

type fakeHandler struct {
	software string
	resolve  func(postURL string) (Resolution, error)
}

func (f *fakeHandler) Software() string { return f.software }
func (f *fakeHandler) Resolve(ctx context.Context, postURL string) (Resolution, error) {
	return f.resolve(postURL)
}

func newTestClient() *httpclient.Client {
	return httpclient.New(httpclient.Options{}, zap.NewNop())
}

// nodeInfoServer serves /.well-known/nodeinfo + the 2.0 document
// reporting softwareName, so DiscoverSoftware resolves against it.
func nodeInfoServer(t *testing.T, softwareName string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/.well-known/nodeinfo", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"links":[{"rel":"http://nodeinfo.diaspora.software/ns/schema/2.0","href":"%s/nodeinfo/2.0"}]}`, "http://"+r.Host)
	})
	mux.HandleFunc("/nodeinfo/2.0", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"software":{"name":%q}}`, softwareName)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestExtractInfoResolvesDirectly(t *testing.T) {
	srv := nodeInfoServer(t, "mastodon")

	handled := []extract.Url{{URL: "https://cdn.example/media.jpg"}}
	h := &fakeHandler{software: "mastodon", resolve: func(postURL string) (Resolution, error) {
		return Resolution{Handled: handled}, nil
	}}

	e := New(newTestClient(), h)
	info, err := e.ExtractInfo(context.Background(), extract.Request{URL: srv.URL + "/@user/1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(info.URLs) != 1 || info.URLs[0].URL != "https://cdn.example/media.jpg" {
		t.Errorf("URLs = %+v", info.URLs)
	}
}

func TestExtractInfoFollowsDelegationOnce(t *testing.T) {
	origin := nodeInfoServer(t, "mastodon")
	target := nodeInfoServer(t, "mastodon")

	h := &fakeHandler{software: "mastodon", resolve: func(postURL string) (Resolution, error) {
		if postURL == origin.URL+"/@user/1" {
			return Resolution{Delegated: target.URL + "/@user/1"}, nil
		}
		return Resolution{Handled: []extract.Url{{URL: "https://cdn.example/final.jpg"}}}, nil
	}}

	e := New(newTestClient(), h)
	info, err := e.ExtractInfo(context.Background(), extract.Request{URL: origin.URL + "/@user/1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(info.URLs) != 1 || info.URLs[0].URL != "https://cdn.example/final.jpg" {
		t.Errorf("URLs = %+v", info.URLs)
	}
}

func TestExtractInfoDetectsCycle(t *testing.T) {
	a := nodeInfoServer(t, "mastodon")
	b := nodeInfoServer(t, "mastodon")

	h := &fakeHandler{software: "mastodon", resolve: func(postURL string) (Resolution, error) {
		switch postURL {
		case a.URL + "/p":
			return Resolution{Delegated: b.URL + "/p"}, nil
		case b.URL + "/p":
			return Resolution{Delegated: a.URL + "/p"}, nil
		default:
			return Resolution{}, fmt.Errorf("unexpected postURL %q", postURL)
		}
	}}

	e := New(newTestClient(), h)
	_, err := e.ExtractInfo(context.Background(), extract.Request{URL: a.URL + "/p"})
	if !corerr.Permanent(err) {
		t.Errorf("expected ErrPermanent for a delegation cycle, got %v", err)
	}
}

func TestExtractInfoExceedsMaxHops(t *testing.T) {
	origOpts := *config.ValueOf
	config.ValueOf.ActivityPubMaxHops = 2
	t.Cleanup(func() { *config.ValueOf = origOpts })

	srv := nodeInfoServer(t, "mastodon")

	hop := 0
	h := &fakeHandler{software: "mastodon", resolve: func(postURL string) (Resolution, error) {
		hop++
		return Resolution{Delegated: fmt.Sprintf("%s/p%d", srv.URL, hop)}, nil
	}}

	e := New(newTestClient(), h)
	_, err := e.ExtractInfo(context.Background(), extract.Request{URL: srv.URL + "/p0"})
	if !corerr.Permanent(err) {
		t.Errorf("expected ErrPermanent for exceeding max hops, got %v", err)
	}
}

func TestExtractInfoUnsupportedSoftware(t *testing.T) {
	srv := nodeInfoServer(t, "pleroma")
	e := New(newTestClient(), &fakeHandler{software: "mastodon"})

	_, err := e.ExtractInfo(context.Background(), extract.Request{URL: srv.URL + "/p"})
	if !corerr.NotApplicable(err) {
		t.Errorf("expected ErrNotApplicable for unhandled software, got %v", err)
	}
}

func TestHostOf(t *testing.T) {
	if got := HostOf("https://mastodon.social/@user/123"); got != "mastodon.social" {
		t.Errorf("HostOf() = %q, want %q", got, "mastodon.social")
	}
	if got := HostOf("::not a url::"); got != "" {
		t.Errorf("HostOf() = %q for unparsable input, want empty", got)
	}
}
