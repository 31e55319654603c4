package fix

import (
	"context"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/allypost/dlhub/internal/corerr"
	"github.com/allypost/dlhub/internal/fsutil"
)

// Registry runs its fixers in declared order against one file.
type Registry struct {
	fixers []Fixer
	log    *zap.Logger
}

func New(log *zap.Logger, fixers ...Fixer) *Registry {
	return &Registry{fixers: fixers, log: log}
}

// RunChain resolves and canonicalizes path, verifies it's a regular
// file, then feeds it through every fixer whose CanRunFor agrees: a
// fixer's success hands the next fixer its new path, a fixer's error is
// logged and the previous path carries forward unchanged. If the final
// path differs from the input, the input's access/modification times
// are copied onto it.
func (r *Registry) RunChain(ctx context.Context, inputPath string, options map[string]any) (string, error) {
	abs, err := filepath.Abs(inputPath)
	if err != nil {
		return "", corerr.Wrap(corerr.ErrPermanent, fmt.Errorf("fix: resolving %q: %w", inputPath, err))
	}
	real, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", corerr.Wrap(corerr.ErrPermanent, fmt.Errorf("fix: canonicalizing %q: %w", abs, err))
	}
	if !fsutil.IsRegularFile(real) {
		return "", corerr.Wrap(corerr.ErrPermanent, fmt.Errorf("fix: %q is not a regular file", real))
	}

	times, err := fsutil.CaptureFileTimes(real)
	if err != nil {
		return "", err
	}

	current := real
	for _, f := range r.fixers {
		if !f.CanRun() {
			continue
		}
		req := Request{Path: current, Options: options}
		if !f.CanRunFor(ctx, req) {
			continue
		}

		res, err := f.Run(ctx, req)
		if err != nil {
			r.log.Warn("fixer failed, keeping previous path",
				zap.String("fixer", f.Name()), zap.String("path", current), zap.Error(err))
			continue
		}
		if res.Path != "" {
			current = res.Path
		}
	}

	if current != real {
		if err := times.Apply(current); err != nil {
			r.log.Warn("failed to transfer file times", zap.String("path", current), zap.Error(err))
		}
	}

	return current, nil
}
