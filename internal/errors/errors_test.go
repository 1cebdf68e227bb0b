package errors

import (
	"fmt"
	"testing"
)

func TestNotFoundError(t *testing.T) {
	err := NewNotFound("session", "abc-123")
	if got := err.Error(); got != "session not found: abc-123" {
		t.Errorf("Error(): got %q", got)
	}
	if !Is(err, ErrNotFound) {
		t.Error("NotFoundError should unwrap to ErrNotFound")
	}

	var nf *NotFoundError
	if !As(err, &nf) || nf.Resource != "session" {
		t.Errorf("As failed: %+v", nf)
	}

	cause := fmt.Errorf("lookup backend down")
	withCause := &NotFoundError{Resource: "slide", ID: "9", Err: cause}
	if !Is(withCause, ErrNotFound) || !Is(withCause, cause) {
		t.Error("NotFoundError with a cause should unwrap to both sentinel and cause")
	}
}

func TestLoadError(t *testing.T) {
	cause := fmt.Errorf("zip: not a valid zip file")
	err := NewLoad("/tmp/deck.pptx", cause)
	if !Is(err, ErrLoadFailure) {
		t.Error("LoadError should unwrap to ErrLoadFailure")
	}
	// The cause must stay reachable next to the sentinel.
	if !Is(err, cause) {
		t.Error("LoadError should unwrap to its cause")
	}
	if got := err.Error(); got != "failed to load /tmp/deck.pptx: zip: not a valid zip file" {
		t.Errorf("Error(): got %q", got)
	}
}

func TestStateError(t *testing.T) {
	err := NewState("replace fonts", "no document open")
	if !Is(err, ErrInvalidState) {
		t.Error("StateError should unwrap to ErrInvalidState")
	}
	if got := err.Error(); got != "invalid state: cannot replace fonts: no document open" {
		t.Errorf("Error(): got %q", got)
	}
}

func TestValidationError(t *testing.T) {
	err := NewValidation("replacement_font", "must not be empty")
	if !Is(err, ErrInvalidArgument) {
		t.Error("ValidationError should unwrap to ErrInvalidArgument")
	}
	if got := err.Error(); got != "validation failed for replacement_font: must not be empty" {
		t.Errorf("Error(): got %q", got)
	}
}

func TestIOError(t *testing.T) {
	cause := fmt.Errorf("disk full")
	err := NewIO("write", "/tmp/out.pptx", cause)
	if got := err.Error(); got != "failed to write /tmp/out.pptx: disk full" {
		t.Errorf("Error(): got %q", got)
	}
	if !Is(err, cause) {
		t.Error("IOError should unwrap to its cause")
	}
}

func TestWrap(t *testing.T) {
	if Wrap(nil, "context") != nil {
		t.Error("Wrap(nil) should be nil")
	}
	wrapped := Wrap(ErrNotFound, "opening deck")
	if !Is(wrapped, ErrNotFound) {
		t.Error("wrapped error should keep its identity")
	}
	if got := wrapped.Error(); got != "opening deck: not found" {
		t.Errorf("Error(): got %q", got)
	}

	if Wrapf(nil, "x %d", 1) != nil {
		t.Error("Wrapf(nil) should be nil")
	}
	wrapped = Wrapf(ErrInvalidState, "during %s", "analysis")
	if !Is(wrapped, ErrInvalidState) {
		t.Error("Wrapf should keep identity")
	}
}
