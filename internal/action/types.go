// Package action implements the action registry: handlers invoked
// explicitly (not as part of the automatic fixer chain) and given
// free-form options.
package action

import (
	"context"
	"path/filepath"
)

// Request is the input to an action: the file to operate on, the
// output directory for results, and caller-supplied options.
type Request struct {
	FilePath  string
	OutputDir string
	Options   map[string]any
}

// InSameDir returns a Request targeting filePath's own directory.
func InSameDir(filePath string) Request {
	return Request{FilePath: filePath, OutputDir: filepath.Dir(filePath)}
}

// Option fetches a typed option, returning ok=false if absent or the
// wrong type.
func Option[T any](req Request, key string) (T, bool) {
	var zero T
	raw, exists := req.Options[key]
	if !exists {
		return zero, false
	}
	typed, ok := raw.(T)
	return typed, ok
}

// Result is an action's outcome. Most actions produce files; OcrImage
// instead returns recognized (or available-engine) text.
type Result struct {
	FilePaths []string
	Text      string
}

// Action is implemented by every registry member.
type Action interface {
	Name() string
	Description() string
	CanRun() bool
	CanRunFor(ctx context.Context, req Request) bool
	Run(ctx context.Context, req Request) (Result, error)
}
