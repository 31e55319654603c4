package corerr

import (
	"errors"
	"fmt"
	"testing"
)

func TestWrapPreservesKindAndMessage(t *testing.T) {
	base := errors.New("boom")
	err := Wrap(ErrTransient, base)

	if err.Error() != "boom" {
		t.Errorf("Error() = %q, want %q", err.Error(), "boom")
	}
	if !Transient(err) {
		t.Error("Transient(err) = false, want true")
	}
	if Permanent(err) {
		t.Error("Permanent(err) = true, want false")
	}
}

func TestWrapNil(t *testing.T) {
	if err := Wrap(ErrPermanent, nil); err != nil {
		t.Errorf("Wrap(kind, nil) = %v, want nil", err)
	}
}

func TestWrapChainsWithFmtErrorf(t *testing.T) {
	wrapped := Wrap(ErrNotApplicable, errors.New("no handler"))
	further := fmt.Errorf("registry: %w", wrapped)

	if !NotApplicable(further) {
		t.Error("NotApplicable() should see through an outer %w wrap")
	}
	if Cancelled(further) {
		t.Error("Cancelled() = true, want false")
	}
}

func TestKindsAreDistinct(t *testing.T) {
	err := Wrap(ErrCancelled, errors.New("ctx done"))
	checks := map[string]bool{
		"NotApplicable": NotApplicable(err),
		"Transient":     Transient(err),
		"Permanent":     Permanent(err),
		"Cancelled":     Cancelled(err),
	}
	for name, got := range checks {
		want := name == "Cancelled"
		if got != want {
			t.Errorf("%s(err) = %v, want %v", name, got, want)
		}
	}
}
