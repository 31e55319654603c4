package extract

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"
)

// Registry is the ordered list of extractors (spec.md §2.4/§4.3). The
// first whose CanHandle returns true owns the request; if none does, the
// fallthrough extractor (always last, always CanHandle=true) returns the
// original URL alone.
type Registry struct {
	extractors []Extractor
	log        *zap.Logger
}

// New builds a registry from extractors in dispatch order. Capability
// gating (spec.md invariant: "a registry's visible list is { e |
// e.capability_check() }, computed once at startup") happens before
// extractors reach here — every extractor in this package is a pure
// protocol client with no environment dependency, so none is excluded.
func New(log *zap.Logger, extractors ...Extractor) *Registry {
	return &Registry{extractors: extractors, log: log.Named("extract")}
}

// ExtractInfo dispatches req to the first capable extractor and stamps
// meta["extractor"] with its name.
func (r *Registry) ExtractInfo(ctx context.Context, req Request) (Info, error) {
	for _, e := range r.extractors {
		if !e.CanHandle(ctx, req) {
			continue
		}

		r.log.Sugar().Debugw("dispatching extraction", "extractor", e.Name(), "url", req.URL)

		info, err := e.ExtractInfo(ctx, req)
		if err != nil {
			return Info{}, err
		}

		if info.Meta == nil {
			info.Meta = Meta{}
		}
		nameJSON, _ := json.Marshal(e.Name())
		info.Meta["extractor"] = nameJSON

		info.URLs = Dedup(info.URLs)

		return info, nil
	}

	return Info{}, errNoExtractorHandled
}

var errNoExtractorHandled = &noExtractorError{}

type noExtractorError struct{}

func (*noExtractorError) Error() string {
	return "extract: no extractor handled the request (fallthrough extractor should be registered last)"
}
