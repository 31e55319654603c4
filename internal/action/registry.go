package action

import (
	"context"
	"fmt"

	"github.com/allypost/dlhub/internal/corerr"
)

// Registry is the ordered, explicitly-invoked set of actions.
type Registry struct {
	actions []Action
}

func New(actions ...Action) *Registry {
	return &Registry{actions: actions}
}

// Run invokes the named action if it's runnable and applicable.
func (r *Registry) Run(ctx context.Context, name string, req Request) (Result, error) {
	for _, a := range r.actions {
		if a.Name() != name {
			continue
		}
		if !a.CanRun() {
			return Result{}, corerr.Wrap(corerr.ErrPermanent, fmt.Errorf("action: %q is not runnable (missing dependency)", name))
		}
		if !a.CanRunFor(ctx, req) {
			return Result{}, corerr.Wrap(corerr.ErrNotApplicable, fmt.Errorf("action: %q cannot run for %q", name, req.FilePath))
		}
		return a.Run(ctx, req)
	}
	return Result{}, corerr.Wrap(corerr.ErrNotApplicable, fmt.Errorf("action: no action named %q", name))
}

// Available lists the actions whose CanRun currently holds.
func (r *Registry) Available() []Action {
	var out []Action
	for _, a := range r.actions {
		if a.CanRun() {
			out = append(out, a)
		}
	}
	return out
}
