package readygate

import "github.com/readygate/readygate/internal/core"

// Sentinel errors reported by New, Wait, and Run. They come back wrapped
// with context, so match them with errors.Is rather than ==.
const (
	// ErrUnavailable is returned by Wait and Run when a target did not become
	// ready within its attempt or time bounds. It is always wrapped with the
	// target spec and the last probe error, so errors.Is is the way to match it.
	ErrUnavailable = core.ErrUnavailable

	// ErrInvalidTarget is returned by New when a target spec cannot be parsed
	// or uses a scheme the prober does not know.
	ErrInvalidTarget = core.ErrInvalidTarget

	// ErrNoTargets is returned by Wait when the launcher has no targets
	// configured. Run tolerates an empty gate; a bare Wait on nothing is
	// almost certainly a configuration mistake.
	ErrNoTargets = core.ErrNoTargets

	// ErrEmptyCommand is returned by Run when no command is configured.
	ErrEmptyCommand = core.ErrEmptyCommand

	// ErrExecUnsupported is reported on platforms where the process image
	// cannot be replaced. Run falls back to supervision instead of returning
	// this; it surfaces only from code paths that require exec explicitly.
	ErrExecUnsupported = core.ErrExecUnsupported
)
