//go:build unix

package launch

import (
	"errors"
	"strings"
	"testing"
)

// Exec success cannot be tested directly, since it would replace the test
// binary. Only the failure paths run here.

func TestExecSupported(t *testing.T) {
	t.Parallel()

	if !ExecSupported() {
		t.Fatal("ExecSupported() = false on a unix platform")
	}
}

func TestExec_EmptyCommand(t *testing.T) {
	t.Parallel()

	if err := Exec(Spec{}); !errors.Is(err, ErrEmptyCommand) {
		t.Fatalf("Exec() = %v, want %v", err, ErrEmptyCommand)
	}
}

func TestExec_LookupFailure(t *testing.T) {
	t.Parallel()

	err := Exec(Spec{Path: "readygate-test-binary-that-does-not-exist"})
	if err == nil {
		t.Fatal("Exec() succeeded for a nonexistent command")
	}
	if !strings.Contains(err.Error(), "look up") {
		t.Fatalf("Exec() = %q, want a lookup failure", err)
	}
}

func TestSpecLookup_ResolvesFromPath(t *testing.T) {
	t.Parallel()

	path, err := Spec{Path: "sh"}.lookup()
	if err != nil {
		t.Fatalf("lookup(sh): %v", err)
	}
	if !strings.HasPrefix(path, "/") {
		t.Fatalf("lookup(sh) = %q, want an absolute path", path)
	}
}
