package logging

import (
	"errors"
	"testing"
)

func TestSetLogLevel(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error", "WARN"} {
		if err := SetLogLevel(level); err != nil {
			t.Fatalf("SetLogLevel(%q) failed: %v", level, err)
		}
	}
	if err := SetLogLevel("loud"); err == nil {
		t.Fatal("expected error for unknown level")
	}
}

func TestErr(t *testing.T) {
	cause := errors.New("boom")
	attr := Err(cause)

	if attr.Key != "err" {
		t.Fatalf("expected key err, got %q", attr.Key)
	}
	got, ok := attr.Value.Any().(error)
	if !ok {
		t.Fatalf("expected error value, got %T", attr.Value.Any())
	}
	if got.Error() != "boom" {
		t.Fatalf("expected wrapped message, got %q", got.Error())
	}
}
