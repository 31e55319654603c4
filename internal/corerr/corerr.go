// Package corerr defines the error kinds shared by every registry in the
// core: extractors, downloaders, fixers and actions all classify their
// failures into one of these four kinds so the queue and the registry
// dispatch loops know whether to fall through, retry or give up.
package corerr

import "errors"

// Sentinel kinds. Wrap one of these with fmt.Errorf("...: %w", corerr.ErrTransient)
// (or corerr.Wrap) so callers can still errors.Is against the kind while
// keeping a human-readable message.
var (
	// NotApplicable means this extractor/downloader/fixer does not handle
	// the given input; the registry should try the next candidate.
	ErrNotApplicable = errors.New("not applicable")

	// Transient means the failure is likely to go away on its own: network
	// timeout, HTTP 5xx, a subprocess killed by signal. Retryable.
	ErrTransient = errors.New("transient failure")

	// Permanent means the failure will not go away without outside
	// intervention: HTTP 4xx, malformed response, schema mismatch, a
	// missing binary, a missing file, an invalid request. Fatal.
	ErrPermanent = errors.New("permanent failure")

	// Cancelled means the caller's context was cancelled or its deadline
	// exceeded. Surfaces unchanged to the caller.
	ErrCancelled = errors.New("cancelled")
)

// Wrap attaches kind to err so errors.Is(wrapped, kind) succeeds while
// preserving err's message and chain.
func Wrap(kind error, err error) error {
	if err == nil {
		return nil
	}
	return &wrapped{kind: kind, err: err}
}

type wrapped struct {
	kind error
	err  error
}

func (w *wrapped) Error() string { return w.err.Error() }
func (w *wrapped) Unwrap() []error {
	return []error{w.kind, w.err}
}

// NotApplicable reports whether err means "try the next candidate".
func NotApplicable(err error) bool { return errors.Is(err, ErrNotApplicable) }

// Transient reports whether err is retryable.
func Transient(err error) bool { return errors.Is(err, ErrTransient) }

// Permanent reports whether err is fatal.
func Permanent(err error) bool { return errors.Is(err, ErrPermanent) }

// Cancelled reports whether err originates from context cancellation.
func Cancelled(err error) bool { return errors.Is(err, ErrCancelled) }
