package action

import (
	"context"
	"errors"
	"testing"

	"github.com/allypost/dlhub/internal/corerr"
)

type stubAction struct {
	name      string
	canRun    bool
	canRunFor bool
	result    Result
	err       error
}

func (s *stubAction) Name() string        { return s.name }
func (s *stubAction) Description() string { return s.name }
func (s *stubAction) CanRun() bool        { return s.canRun }
func (s *stubAction) CanRunFor(ctx context.Context, req Request) bool {
	return s.canRunFor
}
func (s *stubAction) Run(ctx context.Context, req Request) (Result, error) {
	return s.result, s.err
}

func TestRegistryRunDispatchesByName(t *testing.T) {
	a := &stubAction{name: "compact", canRun: true, canRunFor: true, result: Result{FilePaths: []string{"/tmp/out.mp4"}}}
	r := New(a, &stubAction{name: "other", canRun: true, canRunFor: true})

	res, err := r.Run(context.Background(), "compact", Request{FilePath: "/tmp/in.mp4"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.FilePaths) != 1 || res.FilePaths[0] != "/tmp/out.mp4" {
		t.Errorf("FilePaths = %v", res.FilePaths)
	}
}

func TestRegistryRunUnknownName(t *testing.T) {
	r := New(&stubAction{name: "compact", canRun: true, canRunFor: true})
	_, err := r.Run(context.Background(), "does-not-exist", Request{})
	if !corerr.NotApplicable(err) {
		t.Errorf("expected ErrNotApplicable, got %v", err)
	}
}

func TestRegistryRunNotRunnable(t *testing.T) {
	r := New(&stubAction{name: "ocr", canRun: false, canRunFor: true})
	_, err := r.Run(context.Background(), "ocr", Request{})
	if !corerr.Permanent(err) {
		t.Errorf("expected ErrPermanent for unrunnable action, got %v", err)
	}
}

func TestRegistryRunNotApplicableToRequest(t *testing.T) {
	r := New(&stubAction{name: "compactmedia", canRun: true, canRunFor: false})
	_, err := r.Run(context.Background(), "compactmedia", Request{FilePath: "/tmp/in.txt"})
	if !corerr.NotApplicable(err) {
		t.Errorf("expected ErrNotApplicable, got %v", err)
	}
}

func TestRegistryRunPropagatesError(t *testing.T) {
	boom := errors.New("boom")
	r := New(&stubAction{name: "a", canRun: true, canRunFor: true, err: boom})
	_, err := r.Run(context.Background(), "a", Request{})
	if !errors.Is(err, boom) {
		t.Errorf("expected wrapped %v, got %v", boom, err)
	}
}

func TestAvailableFiltersByCanRun(t *testing.T) {
	runnable := &stubAction{name: "a", canRun: true}
	notRunnable := &stubAction{name: "b", canRun: false}
	r := New(runnable, notRunnable)

	avail := r.Available()
	if len(avail) != 1 || avail[0].Name() != "a" {
		t.Errorf("Available() = %v, want just [a]", avail)
	}
}

func TestInSameDir(t *testing.T) {
	req := InSameDir("/tmp/sub/file.txt")
	if req.FilePath != "/tmp/sub/file.txt" {
		t.Errorf("FilePath = %q", req.FilePath)
	}
	if req.OutputDir != "/tmp/sub" {
		t.Errorf("OutputDir = %q, want %q", req.OutputDir, "/tmp/sub")
	}
}

func TestOption(t *testing.T) {
	req := Request{Options: map[string]any{"engine": "tesseract", "retries": 3}}

	engine, ok := Option[string](req, "engine")
	if !ok || engine != "tesseract" {
		t.Errorf("Option[string](engine) = (%q, %v)", engine, ok)
	}

	_, ok = Option[string](req, "missing")
	if ok {
		t.Error("Option() ok = true for missing key, want false")
	}

	_, ok = Option[string](req, "retries")
	if ok {
		t.Error("Option[string]() ok = true for int value, want false")
	}
}
