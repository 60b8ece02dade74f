package errdef

import (
	"errors"
	"fmt"
	"testing"
)

func TestWrapKeepsCode(t *testing.T) {
	base := errors.New("disk full")
	err := Wrap(CodeHistory, base, "persist %s", "history.json")
	if got := CodeOf(err); got != CodeHistory {
		t.Fatalf("expected history code, got %q", got)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to unwrap to base")
	}
	if got := Message(err); got != "persist history.json: disk full" {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestCodeOfForeignError(t *testing.T) {
	if got := CodeOf(errors.New("x")); got != CodeUnknown {
		t.Fatalf("expected unknown, got %q", got)
	}
	if got := CodeOf(nil); got != "" {
		t.Fatalf("expected empty code for nil, got %q", got)
	}
	wrapped := fmt.Errorf("outer: %w", New(CodeConfig, "bad value"))
	if !Is(wrapped, CodeConfig) {
		t.Fatalf("expected config code through fmt wrapping")
	}
}

func TestWrapNil(t *testing.T) {
	if Wrap(CodeParse, nil, "noop") != nil {
		t.Fatalf("expected nil")
	}
}
