package handlers

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/allypost/dlhub/internal/action"
	"github.com/allypost/dlhub/internal/corerr"
	"github.com/allypost/dlhub/internal/idutil"
)

// RenameToId renames the file to "<time-id>.<original-stem>.<ext>" in
// the request's output directory. Grounded on
// actions/handlers/file_rename_to_id.rs.
type RenameToId struct{}

func (RenameToId) Name() string        { return "rename-to-id" }
func (RenameToId) Description() string { return "Renames a file to a time-ordered id." }
func (RenameToId) CanRun() bool        { return true }

func (RenameToId) CanRunFor(_ context.Context, _ action.Request) bool { return true }

func (RenameToId) Run(_ context.Context, req action.Request) (action.Result, error) {
	ext := filepath.Ext(req.FilePath)
	if ext == "" {
		return action.Result{}, corerr.Wrap(corerr.ErrPermanent, fmt.Errorf("rename-to-id: %q has no extension", req.FilePath))
	}
	stem := strings.TrimSuffix(filepath.Base(req.FilePath), ext)
	if stem == "" {
		return action.Result{}, corerr.Wrap(corerr.ErrPermanent, fmt.Errorf("rename-to-id: %q has no file name", req.FilePath))
	}

	outputDir := req.OutputDir
	if outputDir == "" {
		outputDir = filepath.Dir(req.FilePath)
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return action.Result{}, corerr.Wrap(corerr.ErrPermanent, fmt.Errorf("rename-to-id: creating output dir: %w", err))
	}

	newPath := filepath.Join(outputDir, fmt.Sprintf("%s.%s%s", idutil.TimeID(), stem, ext))
	if err := os.Rename(req.FilePath, newPath); err != nil {
		return action.Result{}, corerr.Wrap(corerr.ErrPermanent, fmt.Errorf("rename-to-id: renaming %q: %w", req.FilePath, err))
	}

	return action.Result{FilePaths: []string{newPath}}, nil
}
