// Package handlers collects every concrete extractor, grounded per-file on
// original_source/crates/app-actions/src/extractors/handlers/*.rs (the Rust
// implementation this spec was distilled from).
package handlers

import (
	"context"

	"github.com/allypost/dlhub/internal/extract"
)

// Fallthrough guarantees every request is handled: it always reports
// CanHandle=true and returns the input URL unchanged. It must be
// registered last so every more specific extractor gets first refusal.
// Grounded on handlers/fallthough.rs.
type Fallthrough struct{}

func (Fallthrough) Name() string        { return "fallthrough" }
func (Fallthrough) Description() string { return "Passes the input URL through unchanged." }

func (Fallthrough) CanHandle(_ context.Context, _ extract.Request) bool { return true }

func (Fallthrough) ExtractInfo(_ context.Context, req extract.Request) (extract.Info, error) {
	return extract.Info{
		Request: req,
		URLs: []extract.Url{
			{URL: req.URL, Headers: req.Headers},
		},
	}, nil
}
