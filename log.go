package readygate

import (
	"log/slog"

	"github.com/readygate/readygate/internal/core"
)

// SetLogger replaces the package-level logger used by readygate.
// This allows applications to integrate readygate logging with their own
// logging infrastructure. The provided logger should already have any
// desired attributes; readygate will not add additional attributes.
//
// If l is nil, the logger resets to the default: slog.Default() with
// "component" attribute, re-derived on the next Logger() call and then
// cached. Call SetLogger(nil) after slog.SetDefault() to pick up changes.
//
// Thread safety: SetLogger is safe to call concurrently with other
// readygate operations. Both the custom logger and the cached default are
// stored as atomic pointers, so loads and stores are data-race-free. A
// concurrent Logger call during SetLogger always returns a valid
// *slog.Logger, though it may briefly return the previous logger until
// both atomic stores complete. For a strict happens-before guarantee, call
// SetLogger before starting goroutines that use the library.
//
// Example:
//
//	readygate.SetLogger(myLogger.With("component", "readygate"))
func SetLogger(l *slog.Logger) {
	core.SetLogger(l)
}

// Logger returns the logger readygate currently writes through: the one
// given to SetLogger, or the derived default. Useful for emitting adjacent
// application logs through the same destination.
func Logger() *slog.Logger {
	return core.Logger()
}
