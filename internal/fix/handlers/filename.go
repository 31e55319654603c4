package handlers

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/allypost/dlhub/internal/corerr"
	"github.com/allypost/dlhub/internal/fix"
)

// FileName strips non-ASCII characters from the file's stem, renaming
// in place; a pure-ASCII stem is a no-op. Requires an extension.
// Grounded on fixers/handlers/file_name.rs.
type FileName struct{}

func (FileName) Name() string        { return "file-name" }
func (FileName) Description() string { return "Strips non-ASCII characters from a file's stem." }
func (FileName) CanRun() bool        { return true }

func (FileName) CanRunFor(_ context.Context, req fix.Request) bool {
	return filepath.Ext(req.Path) != ""
}

func (FileName) Run(_ context.Context, req fix.Request) (fix.Result, error) {
	ext := filepath.Ext(req.Path)
	if ext == "" {
		return fix.Result{}, corerr.Wrap(corerr.ErrPermanent, fmt.Errorf("file-name: %q has no extension", req.Path))
	}

	dir := filepath.Dir(req.Path)
	stem := filepath.Base(strings.TrimSuffix(req.Path, ext))

	cleaned := stripNonASCII(stem)
	if cleaned == stem {
		return fix.Result{}, nil
	}
	if cleaned == "" {
		cleaned = "file"
	}

	newPath := filepath.Join(dir, cleaned+ext)
	if err := os.Rename(req.Path, newPath); err != nil {
		return fix.Result{}, corerr.Wrap(corerr.ErrPermanent, fmt.Errorf("file-name: renaming %q: %w", req.Path, err))
	}

	return fix.Result{Path: newPath}, nil
}

func stripNonASCII(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r <= 0x7f {
			b.WriteRune(r)
		}
	}
	return b.String()
}
