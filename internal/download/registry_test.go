package download

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/allypost/dlhub/internal/corerr"
)

type stubDownloader struct {
	name      string
	canRun    bool
	canDl     bool
	result    Result
	err       error
	callCount int
}

func (s *stubDownloader) Name() string        { return s.name }
func (s *stubDownloader) Description() string { return s.name }
func (s *stubDownloader) CanRun() bool        { return s.canRun }
func (s *stubDownloader) CanDownload(ctx context.Context, req Request) bool {
	return s.canDl
}
func (s *stubDownloader) Download(ctx context.Context, req Request) (Result, error) {
	s.callCount++
	return s.result, s.err
}

func TestRegistryDownloadPicksFirstMatching(t *testing.T) {
	first := &stubDownloader{name: "first", canRun: true, canDl: false}
	second := &stubDownloader{name: "second", canRun: true, canDl: true, result: Result{FilePath: "/tmp/out"}}
	third := &stubDownloader{name: "third", canRun: true, canDl: true}

	r := New(zap.NewNop(), first, second, third)

	res, err := r.Download(context.Background(), Request{URL: "https://example.com/a"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Downloader != "second" {
		t.Errorf("Downloader = %q, want %q", res.Downloader, "second")
	}
	if third.callCount != 0 {
		t.Error("third downloader should not have been tried")
	}
}

func TestRegistryDownloadHonorsPreferred(t *testing.T) {
	generic := &stubDownloader{name: "generic", canRun: true, canDl: true, result: Result{FilePath: "/tmp/generic"}}
	ytdlp := &stubDownloader{name: "ytdlp", canRun: true, canDl: true, result: Result{FilePath: "/tmp/ytdlp"}}

	r := New(zap.NewNop(), generic, ytdlp)

	res, err := r.Download(context.Background(), Request{URL: "https://example.com/a", PreferredDownloader: "ytdlp"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Downloader != "ytdlp" {
		t.Errorf("Downloader = %q, want %q", res.Downloader, "ytdlp")
	}
}

func TestRegistryDownloadFallsThroughWhenPreferredCannotHandle(t *testing.T) {
	ytdlp := &stubDownloader{name: "ytdlp", canRun: true, canDl: false}
	generic := &stubDownloader{name: "generic", canRun: true, canDl: true, result: Result{FilePath: "/tmp/generic"}}

	r := New(zap.NewNop(), ytdlp, generic)

	res, err := r.Download(context.Background(), Request{URL: "https://example.com/a", PreferredDownloader: "ytdlp"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Downloader != "generic" {
		t.Errorf("Downloader = %q, want %q", res.Downloader, "generic")
	}
}

func TestRegistryDownloadNoneApplicable(t *testing.T) {
	d := &stubDownloader{name: "d", canRun: true, canDl: false}
	r := New(zap.NewNop(), d)

	_, err := r.Download(context.Background(), Request{URL: "https://example.com/a"})
	if !corerr.NotApplicable(err) {
		t.Errorf("expected ErrNotApplicable, got %v", err)
	}
}

func TestRegistryDownloadPropagatesHandlerError(t *testing.T) {
	boom := errors.New("boom")
	d := &stubDownloader{name: "d", canRun: true, canDl: true, err: boom}
	r := New(zap.NewNop(), d)

	_, err := r.Download(context.Background(), Request{URL: "https://example.com/a"})
	if !errors.Is(err, boom) {
		t.Errorf("expected error to wrap %v, got %v", boom, err)
	}
}
