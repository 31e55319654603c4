package fix

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
)

type stubFixer struct {
	name      string
	canRun    bool
	canRunFor bool
	newPath   string
	err       error
	called    int
}

func (s *stubFixer) Name() string        { return s.name }
func (s *stubFixer) Description() string { return s.name }
func (s *stubFixer) CanRun() bool        { return s.canRun }
func (s *stubFixer) CanRunFor(ctx context.Context, req Request) bool {
	return s.canRunFor
}
func (s *stubFixer) Run(ctx context.Context, req Request) (Result, error) {
	s.called++
	if s.err != nil {
		return Result{}, s.err
	}
	return Result{Path: s.newPath}, nil
}

func writeTempFile(t *testing.T, name, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("writing temp file: %v", err)
	}
	return path
}

func TestRunChainSkipsInapplicableFixers(t *testing.T) {
	path := writeTempFile(t, "input.txt", "hello")

	f1 := &stubFixer{name: "f1", canRun: true, canRunFor: false}
	f2 := &stubFixer{name: "f2", canRun: false, canRunFor: true}

	r := New(zap.NewNop(), f1, f2)
	final, err := r.RunChain(context.Background(), path, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if f1.called != 0 || f2.called != 0 {
		t.Error("neither fixer should have run")
	}

	resolved, _ := filepath.EvalSymlinks(path)
	if final != resolved {
		t.Errorf("final = %q, want unchanged %q", final, resolved)
	}
}

func TestRunChainChainsRenames(t *testing.T) {
	path := writeTempFile(t, "input.txt", "hello")
	dir := filepath.Dir(path)
	renamed := filepath.Join(dir, "renamed.txt")
	if err := os.WriteFile(renamed, []byte("hello"), 0o644); err != nil {
		t.Fatalf("creating rename target: %v", err)
	}

	f := &stubFixer{name: "rename", canRun: true, canRunFor: true, newPath: renamed}
	r := New(zap.NewNop(), f)

	final, err := r.RunChain(context.Background(), path, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if final != renamed {
		t.Errorf("final = %q, want %q", final, renamed)
	}
	if f.called != 1 {
		t.Errorf("fixer called %d times, want 1", f.called)
	}
}

func TestRunChainKeepsPreviousPathOnError(t *testing.T) {
	path := writeTempFile(t, "input.txt", "hello")

	f := &stubFixer{name: "broken", canRun: true, canRunFor: true, err: os.ErrInvalid}
	r := New(zap.NewNop(), f)

	final, err := r.RunChain(context.Background(), path, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	resolved, _ := filepath.EvalSymlinks(path)
	if final != resolved {
		t.Errorf("final = %q, want unchanged %q", final, resolved)
	}
}

func TestRunChainRejectsMissingFile(t *testing.T) {
	r := New(zap.NewNop())
	_, err := r.RunChain(context.Background(), "/nonexistent/path/does-not-exist.txt", nil)
	if err == nil {
		t.Fatal("expected error for nonexistent input, got nil")
	}
}
