// Package handlers holds the concrete fixer implementations.
package handlers

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/allypost/dlhub/internal/corerr"
	"github.com/allypost/dlhub/internal/fix"
	"github.com/allypost/dlhub/internal/fsutil"
)

// FileExtension probes magic bytes and renames the file if the inferred
// extension differs from its current one. It never rewrites contents.
// Grounded on fixers/handlers/file_extension.rs.
type FileExtension struct{}

func (FileExtension) Name() string        { return "file-extension" }
func (FileExtension) Description() string { return "Corrects a file's extension from its magic bytes." }
func (FileExtension) CanRun() bool        { return true }

// CanRunFor reports whether the file's current extension disagrees with
// its sniffed magic bytes. Returning false once they already match keeps
// a second pass over an already-fixed file a no-op.
func (FileExtension) CanRunFor(_ context.Context, req fix.Request) bool {
	mt, err := fsutil.SniffMIME(req.Path)
	if err != nil {
		return false
	}

	inferred := strings.TrimPrefix(mt.Extension(), ".")
	if inferred == "" {
		return false
	}

	current := strings.TrimPrefix(strings.ToLower(filepath.Ext(req.Path)), ".")
	return current != inferred
}

func (FileExtension) Run(_ context.Context, req fix.Request) (fix.Result, error) {
	mt, err := fsutil.SniffMIME(req.Path)
	if err != nil {
		return fix.Result{}, corerr.Wrap(corerr.ErrPermanent, fmt.Errorf("file-extension: sniffing %q: %w", req.Path, err))
	}

	inferred := strings.TrimPrefix(mt.Extension(), ".")
	if inferred == "" {
		return fix.Result{}, corerr.Wrap(corerr.ErrPermanent, fmt.Errorf("file-extension: unable to get extension for %q", req.Path))
	}

	current := strings.TrimPrefix(strings.ToLower(filepath.Ext(req.Path)), ".")
	if current == inferred {
		return fix.Result{}, nil
	}

	stem := strings.TrimSuffix(req.Path, filepath.Ext(req.Path))
	newPath := stem + "." + inferred
	if err := os.Rename(req.Path, newPath); err != nil {
		return fix.Result{}, corerr.Wrap(corerr.ErrPermanent, fmt.Errorf("file-extension: renaming %q: %w", req.Path, err))
	}

	return fix.Result{Path: newPath}, nil
}
