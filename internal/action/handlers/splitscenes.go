package handlers

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/allypost/dlhub/internal/action"
	"github.com/allypost/dlhub/internal/config"
	"github.com/allypost/dlhub/internal/corerr"
	"github.com/allypost/dlhub/internal/fsutil"
	"github.com/allypost/dlhub/internal/procexec"
)

// SplitScenes shells out to scenedetect to split a video into one file
// per detected scene. Grounded on actions/handlers/split_scenes.rs.
type SplitScenes struct{}

func (SplitScenes) Name() string        { return "split-scenes" }
func (SplitScenes) Description() string { return "Splits a video into one file per detected scene." }

func (SplitScenes) CanRun() bool {
	_, ok := procexec.Resolve(config.ValueOf.ScenedetectPath)
	return ok
}

func (SplitScenes) CanRunFor(_ context.Context, req action.Request) bool {
	mt, err := fsutil.SniffMIME(req.FilePath)
	return err == nil && mt != nil && strings.HasPrefix(mt.String(), "video/")
}

func (SplitScenes) Run(ctx context.Context, req action.Request) (action.Result, error) {
	bin, ok := procexec.Resolve(config.ValueOf.ScenedetectPath)
	if !ok {
		return action.Result{}, corerr.Wrap(corerr.ErrPermanent, fmt.Errorf("split-scenes: scenedetect not found"))
	}

	scratch, err := fsutil.NewTempDir("dlhub-scenes")
	if err != nil {
		return action.Result{}, corerr.Wrap(corerr.ErrPermanent, fmt.Errorf("split-scenes: creating scratch dir: %w", err))
	}
	defer scratch.Close()

	videoName := strings.TrimSuffix(filepath.Base(req.FilePath), filepath.Ext(req.FilePath))
	filenameTemplate := fmt.Sprintf("%s.$SCENE_NUMBER", videoName)

	args := []string{
		"--input", req.FilePath,
		"detect-adaptive",
		"split-video", "--high-quality", "--preset", "medium",
		"--output", scratch.Path(),
		"--filename", filenameTemplate,
	}

	if _, err := procexec.Run(ctx, bin, args...); err != nil {
		return action.Result{}, err
	}

	entries, err := os.ReadDir(scratch.Path())
	if err != nil {
		return action.Result{}, corerr.Wrap(corerr.ErrPermanent, fmt.Errorf("split-scenes: reading scratch dir: %w", err))
	}

	if err := fsutil.EnsureDir(req.OutputDir); err != nil {
		return action.Result{}, err
	}

	var outputs []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		src := filepath.Join(scratch.Path(), e.Name())
		dst := filepath.Join(req.OutputDir, e.Name())
		if err := os.Rename(src, dst); err != nil {
			if err := copyFile(src, dst); err != nil {
				return action.Result{}, corerr.Wrap(corerr.ErrPermanent, fmt.Errorf("split-scenes: moving %q: %w", e.Name(), err))
			}
		}
		outputs = append(outputs, dst)
	}

	return action.Result{FilePaths: outputs}, nil
}
