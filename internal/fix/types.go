// Package fix implements the fixer chain: an ordered set of handlers
// that each may rewrite a file in place (or to a sibling path),
// executed sequentially per file with times preserved across rewrites.
package fix

import "context"

// Request is what each fixer in the chain receives; Path always points
// at an existing regular file (the previous fixer's output, or the
// original on the first iteration).
type Request struct {
	Path    string
	Options map[string]any
}

// Result is a fixer's outcome; Path is empty when the fixer passed the
// file through unchanged.
type Result struct {
	Path string
}

// Fixer is implemented by every registry member.
type Fixer interface {
	Name() string
	Description() string
	CanRun() bool
	CanRunFor(ctx context.Context, req Request) bool
	Run(ctx context.Context, req Request) (Result, error)
}
