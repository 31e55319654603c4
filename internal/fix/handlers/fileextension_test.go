package handlers

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/allypost/dlhub/internal/fix"
)

var pngMagic = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0}

func writePNGWithName(t *testing.T, name string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, pngMagic, 0o644); err != nil {
		t.Fatalf("writing temp file: %v", err)
	}
	return path
}

func TestFileExtensionCanRunForMismatch(t *testing.T) {
	path := writePNGWithName(t, "input.txt")

	if !(FileExtension{}).CanRunFor(context.Background(), fix.Request{Path: path}) {
		t.Fatal("expected CanRunFor to report a mismatch between .txt and sniffed png bytes")
	}
}

func TestFileExtensionCanRunForMatchIsMonotone(t *testing.T) {
	path := writePNGWithName(t, "input.png")

	if (FileExtension{}).CanRunFor(context.Background(), fix.Request{Path: path}) {
		t.Fatal("CanRunFor should be false once the extension already matches the sniffed type")
	}
}

func TestFileExtensionRunRenamesAndIsIdempotent(t *testing.T) {
	path := writePNGWithName(t, "input.txt")

	res, err := (FileExtension{}).Run(context.Background(), fix.Request{Path: path})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if filepath.Ext(res.Path) != ".png" {
		t.Fatalf("new path = %q, want .png extension", res.Path)
	}
	if _, err := os.Stat(res.Path); err != nil {
		t.Fatalf("renamed file not found: %v", err)
	}

	if (FileExtension{}).CanRunFor(context.Background(), fix.Request{Path: res.Path}) {
		t.Fatal("a second pass over the fixed file should be a no-op per CanRunFor")
	}
}
