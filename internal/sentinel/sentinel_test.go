package sentinel

import (
	"errors"
	"fmt"
	"testing"
)

func TestError_ReturnsMessage(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		err  Error
		want string
	}{
		"plain message": {err: Error("dependency unavailable"), want: "dependency unavailable"},
		"empty message": {err: Error(""), want: ""},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			if got := tc.err.Error(); got != tc.want {
				t.Errorf("Error() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestError_MatchesThroughWrapping(t *testing.T) {
	t.Parallel()

	const sentinel = Error("dependency unavailable")

	if !errors.Is(sentinel, sentinel) {
		t.Error("errors.Is should match a sentinel against itself")
	}

	wrapped := fmt.Errorf("target db:5432: %w", sentinel)
	if !errors.Is(wrapped, sentinel) {
		t.Error("errors.Is should match a sentinel through a wrapped chain")
	}

	doubleWrapped := fmt.Errorf("launch aborted: %w", wrapped)
	if !errors.Is(doubleWrapped, sentinel) {
		t.Error("errors.Is should match a sentinel through two levels of wrapping")
	}
}

func TestError_DistinctSentinelsDoNotMatch(t *testing.T) {
	t.Parallel()

	const a = Error("first")
	const b = Error("second")

	if errors.Is(a, b) {
		t.Error("distinct sentinels must not match each other")
	}

	// Same text via errors.New is a different error identity.
	if errors.Is(a, errors.New("first")) {
		t.Error("a sentinel must not match an errors.New value with the same text")
	}
}
